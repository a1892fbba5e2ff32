package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sendahandyman-backend/internal/notification"
	"sendahandyman-backend/internal/payment/domain"
	taskRepository "sendahandyman-backend/internal/task/repository"

	"go.uber.org/zap"
)

// gatewayFailure maps a failed money-movement call onto the error vocabulary.
// A timeout never becomes a plain failure because the call may have applied.
func gatewayFailure(base *domain.Error, err error) *domain.Error {
	if domain.IsGatewayTimeout(err) {
		return domain.ErrGatewayTimeout.Wrap(err)
	}
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		return base.Wrap(err).WithDetail("%s", gwErr.Message)
	}
	return base.Wrap(err)
}

// storeFailure maps a read failure before any money moved
func storeFailure(notFound *domain.Error, err error) *domain.Error {
	if errors.Is(err, taskRepository.ErrNotFound) {
		return notFound
	}
	return domain.ErrStoreUnavailable.Wrap(err)
}

// notifier wraps the dispatcher and admin alerter with warning bookkeeping
type notifier struct {
	notification.Notifier
	logger *zap.Logger
}

// send dispatches an SMS and an email in parallel, turning failures into warnings
func (n notifier) send(ctx context.Context, w *domain.Warnings, sms, email notification.Message) {
	sms.Channel = notification.ChannelSMS
	email.Channel = notification.ChannelEmail
	errs := notification.DispatchAll(ctx, n.Notifier, sms, email)
	steps := []string{domain.StepNotifySMS, domain.StepNotifyEmail}
	for i, err := range errs {
		if err == nil {
			continue
		}
		n.logger.Warn("Notification failed", zap.String("step", steps[i]), zap.Error(err))
		w.Add(steps[i], err)
	}
}

// alertOnBookkeeping pushes an admin alert when a bookkeeping write failed
// after money moved, so the store can be repaired by hand.
func (n notifier) alertOnBookkeeping(ctx context.Context, w *domain.Warnings, title string, data map[string]string) {
	var failed []string
	for _, warn := range *w {
		switch warn.Step {
		case domain.StepUpdatePayment, domain.StepUpdateTask, domain.StepRecordPayment,
			domain.StepIncrementTotal, domain.StepCreateTask, domain.StepMarkQuotePaid:
			failed = append(failed, warn.Step)
		}
	}
	if len(failed) == 0 {
		return
	}
	n.alert(ctx, w, notification.Alert{
		Title: title,
		Body:  fmt.Sprintf("Money moved but bookkeeping failed: %s", strings.Join(failed, ", ")),
		Data:  data,
	})
}

func (n notifier) alert(ctx context.Context, w *domain.Warnings, alert notification.Alert) {
	if err := n.AlertAdmins(ctx, alert); err != nil {
		n.logger.Error("Admin alert failed", zap.String("title", alert.Title), zap.Error(err))
		w.Add(domain.StepAlertAdmins, err)
	}
}
