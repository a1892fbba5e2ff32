package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"sendahandyman-backend/internal/notification"
	"sendahandyman-backend/internal/payment/domain"
	taskDomain "sendahandyman-backend/internal/task/domain"
	taskRepository "sendahandyman-backend/internal/task/repository"
	"sendahandyman-backend/pkg/money"

	"go.uber.org/zap"
)

type captureUsecase struct {
	taskRepo taskRepository.TaskRepository
	gateway  domain.Gateway
	resolver HoldResolver
	notifier notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewCaptureUsecase(taskRepo taskRepository.TaskRepository, gateway domain.Gateway, resolver HoldResolver, n notification.Notifier, logger *zap.Logger) CaptureUsecase {
	logger = logger.Named("capture")
	return &captureUsecase{
		taskRepo: taskRepo,
		gateway:  gateway,
		resolver: resolver,
		notifier: notifier{Notifier: n, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

func (u *captureUsecase) Capture(ctx context.Context, req CaptureRequest) (*domain.CaptureResult, error) {
	if strings.TrimSpace(req.TaskID) == "" {
		return nil, domain.ErrInvalidRequest.WithDetail("Task ID is required")
	}

	task, err := u.taskRepo.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, storeFailure(domain.ErrTaskNotFound, err)
	}

	payment, err := u.taskRepo.GetOpenPayment(ctx, task.ID)
	if err != nil {
		if errors.Is(err, taskRepository.ErrNotFound) {
			return u.settledWithoutOpenPayment(ctx, task)
		}
		return nil, domain.ErrStoreUnavailable.Wrap(err)
	}

	res, err := u.resolver.Resolve(ctx, task, payment)
	if err != nil {
		return nil, err
	}

	result := &domain.CaptureResult{
		TaskID:     task.ID,
		TaskNumber: task.TaskID,
		Source:     res.Source,
	}
	if res.Candidates > 1 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Step:    domain.StepAmbiguousHold,
			Message: strconv.Itoa(res.Candidates) + " recent holds matched; captured " + res.Hold.ID,
		})
	}

	if res.AlreadyCaptured() {
		u.logger.Info("Hold already captured, settling bookkeeping",
			zap.String("task_id", task.ID),
			zap.String("payment_intent_id", res.Hold.ID),
		)
		u.finalize(ctx, task, payment, res.Hold, req, result)
		result.Outcome = domain.OutcomeAlreadyProcessed
		return result, nil
	}

	captured, err := u.capture(ctx, task, res.Hold, req)
	if err != nil {
		// A concurrent or earlier attempt may have won the capture
		if !domain.IsGatewayTimeout(err) {
			if current, getErr := u.gateway.Get(ctx, res.Hold.ID); getErr == nil && current.Status == domain.HoldSucceeded {
				u.finalize(ctx, task, payment, current, req, result)
				result.Outcome = domain.OutcomeAlreadyProcessed
				return result, nil
			}
		}
		u.logger.Error("Capture failed",
			zap.String("task_id", task.ID),
			zap.String("payment_intent_id", res.Hold.ID),
			zap.Error(err),
		)
		gErr := gatewayFailure(domain.ErrCaptureFailed, err)
		if gErr.Kind == domain.KindTimeout {
			gErr = gErr.WithDetail("capture of %s timed out; reconcile task %s before retrying", res.Hold.ID, task.ID)
		}
		return nil, gErr
	}

	u.logger.Info("Payment captured",
		zap.String("task_id", task.ID),
		zap.String("payment_intent_id", captured.ID),
		zap.String("source", string(res.Source)),
	)

	u.finalize(ctx, task, payment, captured, req, result)
	result.Outcome = domain.OutcomeCaptured

	u.notifier.send(ctx, &result.Warnings,
		notification.Message{
			Kind: notification.SMSJobComplete,
			Payload: notification.Payload{
				"customer_phone": task.CustomerPhone,
				"task_id":        task.TaskID,
				"final_amount":   result.AmountCaptured.StringFixed(2),
				"service_name":   task.TaskCategory,
				"customer_name":  task.CustomerName,
			},
		},
		notification.Message{
			Kind: notification.EmailTaskCompletion,
			Payload: notification.Payload{
				"customer": map[string]string{
					"name":    task.CustomerName,
					"email":   task.CustomerEmail,
					"phone":   task.CustomerPhone,
					"address": task.CustomerAddress,
				},
				"task": map[string]interface{}{
					"id":               task.TaskID,
					"category":         task.TaskCategory,
					"description":      task.TaskDescription,
					"completed_at":     u.now().UTC().Format(time.RFC3339),
					"completion_notes": completionNotes(req.CompletionNotes),
					"photos":           req.CompletionPhotos,
				},
				"handyman": map[string]interface{}{
					"name":  task.AssignedHandymanName,
					"phone": task.AssignedHandymanPhone,
				},
				"payment": map[string]string{
					"amount":            result.AmountCaptured.StringFixed(2),
					"payment_intent_id": captured.ID,
					"status":            "completed",
				},
			},
		},
	)

	return result, nil
}

func (u *captureUsecase) capture(ctx context.Context, task *taskDomain.Task, hold *domain.Hold, req CaptureRequest) (*domain.Hold, error) {
	target := money.ToMinor(task.TotalAmount)
	if target > hold.Amount {
		u.logger.Warn("Task total exceeds authorized amount, capturing full hold",
			zap.String("task_id", task.ID),
			zap.Int64("target_amount", target),
			zap.Int64("authorized_amount", hold.Amount),
		)
		target = hold.Amount
	}

	return u.gateway.Capture(ctx, hold.ID, domain.CaptureParams{
		AmountToCapture: target,
		Metadata: map[string]string{
			"task_id":                 task.TaskID,
			"task_completed_at":       u.now().UTC().Format(time.RFC3339),
			"completion_photos_count": strconv.Itoa(len(req.CompletionPhotos)),
			"completion_notes":        completionNotes(req.CompletionNotes),
		},
	})
}

// finalize writes the two bookkeeping updates independently. Failures become
// warnings; the capture already happened.
func (u *captureUsecase) finalize(ctx context.Context, task *taskDomain.Task, payment *taskDomain.Payment, hold *domain.Hold, req CaptureRequest, result *domain.CaptureResult) {
	at := u.now()
	result.PaymentIntentID = hold.ID
	result.AmountCaptured = task.TotalAmount
	if hold.AmountReceived > 0 {
		result.AmountCaptured = money.FromMinor(hold.AmountReceived)
	}

	if err := u.taskRepo.UpdatePayment(ctx, payment.ID, taskDomain.CapturedPaymentPatch(hold.ID, at, req.CompletionPhotos, req.CompletionNotes)); err != nil {
		u.logger.Error("Failed to update payment record after capture",
			zap.String("payment_id", payment.ID),
			zap.String("payment_intent_id", hold.ID),
			zap.Error(err),
		)
		result.Warnings.Add(domain.StepUpdatePayment, err)
	}

	if err := u.taskRepo.UpdateTask(ctx, task.ID, taskDomain.CapturedPatch(hold.ID, at)); err != nil {
		u.logger.Error("Failed to update task status after capture",
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		result.Warnings.Add(domain.StepUpdateTask, err)
	}

	u.notifier.alertOnBookkeeping(ctx, &result.Warnings, "Capture needs attention", map[string]string{
		"task_id":           task.ID,
		"task_number":       task.TaskID,
		"payment_intent_id": hold.ID,
	})
}

// settledWithoutOpenPayment handles a retry after the open payment was
// already closed. The task is repaired if its own update was lost.
func (u *captureUsecase) settledWithoutOpenPayment(ctx context.Context, task *taskDomain.Task) (*domain.CaptureResult, error) {
	captured, err := u.taskRepo.GetCapturedPayment(ctx, task.ID)
	if err != nil && !errors.Is(err, taskRepository.ErrNotFound) {
		return nil, domain.ErrStoreUnavailable.Wrap(err)
	}
	if captured == nil && task.PaymentStatus != taskDomain.PaymentStatusCaptured {
		return nil, domain.ErrPaymentRecordMissing
	}

	result := &domain.CaptureResult{
		Outcome:        domain.OutcomeAlreadyProcessed,
		TaskID:         task.ID,
		TaskNumber:     task.TaskID,
		AmountCaptured: task.TotalAmount,
		Source:         domain.SourceStoredReference,
	}
	if captured != nil {
		result.PaymentIntentID = captured.IntentID()
		result.AmountCaptured = captured.Amount
		if task.PaymentStatus != taskDomain.PaymentStatusCaptured {
			at := u.now()
			if captured.CapturedAt != nil {
				at = *captured.CapturedAt
			}
			if err := u.taskRepo.UpdateTask(ctx, task.ID, taskDomain.CapturedPatch(captured.IntentID(), at)); err != nil {
				result.Warnings.Add(domain.StepUpdateTask, err)
			}
		}
	}

	u.logger.Info("Capture already processed", zap.String("task_id", task.ID))
	return result, nil
}

func (u *captureUsecase) Reconcile(ctx context.Context, taskID string) (*ReconcileReport, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, domain.ErrInvalidRequest.WithDetail("Task ID is required")
	}

	task, err := u.taskRepo.GetTask(ctx, taskID)
	if err != nil {
		return nil, storeFailure(domain.ErrTaskNotFound, err)
	}
	report := &ReconcileReport{Task: task, CheckedAt: u.now()}

	open, err := u.taskRepo.GetOpenPayment(ctx, task.ID)
	if err != nil && !errors.Is(err, taskRepository.ErrNotFound) {
		return nil, domain.ErrStoreUnavailable.Wrap(err)
	}
	report.OpenPayment = open

	captured, err := u.taskRepo.GetCapturedPayment(ctx, task.ID)
	if err != nil && !errors.Is(err, taskRepository.ErrNotFound) {
		return nil, domain.ErrStoreUnavailable.Wrap(err)
	}
	report.CapturedPayment = captured

	if open == nil {
		if captured == nil {
			report.State = StateNoPayment
			return report, nil
		}
		report.State = StateCaptured
		if captured.IntentID() != "" {
			hold, err := u.gateway.Get(ctx, captured.IntentID())
			if err != nil {
				return nil, gatewayFailure(domain.ErrCaptureFailed, err)
			}
			report.Hold = hold
			report.Source = domain.SourceStoredReference
		}
		return report, nil
	}

	res, err := u.resolver.Resolve(ctx, task, open)
	if err != nil {
		if isNoCapturableHold(err) {
			report.State = StateNoCapturableHold
			return report, nil
		}
		return nil, err
	}
	report.Hold = res.Hold
	report.Source = res.Source
	report.Candidates = res.Candidates
	if res.AlreadyCaptured() {
		report.State = StateBookkeepingStale
	} else {
		report.State = StateCapturable
	}
	return report, nil
}

func completionNotes(notes string) string {
	if strings.TrimSpace(notes) == "" {
		return "No notes provided"
	}
	return notes
}
