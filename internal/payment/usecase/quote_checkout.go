package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sendahandyman-backend/internal/notification"
	"sendahandyman-backend/internal/payment/domain"
	quoteDomain "sendahandyman-backend/internal/quote/domain"
	quoteRepository "sendahandyman-backend/internal/quote/repository"
	taskDomain "sendahandyman-backend/internal/task/domain"
	taskUsecase "sendahandyman-backend/internal/task/usecase"
	"sendahandyman-backend/pkg/config"
	"sendahandyman-backend/pkg/money"

	"go.uber.org/zap"
)

const quoteHoldReason = "Quote authorization hold - awaiting service completion"

type quoteCheckoutUsecase struct {
	quotes   QuoteStore
	booker   TaskBooker
	gateway  domain.Gateway
	notifier notifier
	config   *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewQuoteCheckoutUsecase(quotes QuoteStore, booker TaskBooker, gateway domain.Gateway, n notification.Notifier, cfg *config.Config, logger *zap.Logger) QuoteCheckoutUsecase {
	logger = logger.Named("quote_checkout")
	return &quoteCheckoutUsecase{
		quotes:   quotes,
		booker:   booker,
		gateway:  gateway,
		notifier: notifier{Notifier: n, logger: logger},
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *quoteCheckoutUsecase) PayQuote(ctx context.Context, req QuoteCheckoutRequest) (*domain.QuoteResult, error) {
	if req.QuoteToken == "" || req.PaymentMethodID == "" {
		return nil, domain.ErrInvalidRequest.WithDetail("Quote token and payment method are required")
	}

	quote, err := u.quotes.FindByToken(ctx, req.QuoteToken)
	if err != nil {
		if errors.Is(err, quoteRepository.ErrNotFound) {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, domain.ErrStoreUnavailable.Wrap(err)
	}

	if quote.Status != quoteDomain.QuoteStatusPending {
		return nil, domain.ErrQuoteUnavailable.WithDetail("quote %s is %s", quote.QuoteID, quote.Status)
	}
	if quote.IsExpired(u.now()) {
		if err := u.quotes.MarkExpired(ctx, req.QuoteToken); err != nil {
			u.logger.Warn("Failed to mark quote expired", zap.String("quote_id", quote.QuoteID), zap.Error(err))
		}
		return nil, domain.ErrQuoteExpired.WithDetail("quote %s expired at %s", quote.QuoteID, quote.ExpiresAt.UTC().Format(time.RFC3339))
	}

	customer := u.customerFor(quote, req)

	hold, err := u.gateway.Authorize(ctx, domain.AuthorizeParams{
		Amount:        money.ToMinor(quote.CustomAmount),
		Currency:      u.config.PaymentCurrency,
		PaymentMethod: req.PaymentMethodID,
		Description:   fmt.Sprintf("Quote Payment: %s for %s", quote.ServiceType, customer.CustomerName),
		ReturnURL:     u.returnURL(req),
		Customer: &domain.CustomerDetails{
			Name:  customer.CustomerName,
			Email: customer.CustomerEmail,
			Phone: customer.CustomerPhone,
		},
		Metadata: map[string]string{
			"quote_id":               quote.QuoteID,
			domain.MetaCustomerName:  customer.CustomerName,
			domain.MetaCustomerEmail: customer.CustomerEmail,
			domain.MetaCustomerPhone: customer.CustomerPhone,
			"service_type":           quote.ServiceType,
			"source":                 "admin_quote",
		},
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		u.logger.Error("Quote authorization failed", zap.String("quote_id", quote.QuoteID), zap.Error(err))
		return nil, gatewayFailure(domain.ErrGatewayDeclined, err)
	}

	result := &domain.QuoteResult{
		PaymentIntentID: hold.ID,
		Amount:          quote.CustomAmount,
		Service:         quote.ServiceType,
	}

	switch hold.Status {
	case domain.HoldRequiresAction:
		u.logger.Info("Quote authorization requires customer action",
			zap.String("quote_id", quote.QuoteID),
			zap.String("payment_intent_id", hold.ID),
		)
		result.RequiresAction = true
		result.ClientSecret = hold.ClientSecret
		return result, nil
	case domain.HoldRequiresCapture, domain.HoldSucceeded:
	default:
		return nil, domain.ErrAuthorizationFail.WithDetail("payment intent %s is %s", hold.ID, hold.Status)
	}

	u.logger.Info("Quote authorized",
		zap.String("quote_id", quote.QuoteID),
		zap.String("payment_intent_id", hold.ID),
		zap.String("amount", quote.CustomAmount.StringFixed(2)),
	)

	if err := u.quotes.MarkPaid(ctx, req.QuoteToken, quoteDomain.Redemption{
		PaymentIntentID:  hold.ID,
		CustomerName:     customer.CustomerName,
		CustomerPhone:    customer.CustomerPhone,
		CustomerEmail:    customer.CustomerEmail,
		CustomerAddress:  customer.CustomerAddress,
		TimingPreference: customer.TimeWindow,
		UsedAt:           u.now(),
	}); err != nil {
		if errors.Is(err, quoteRepository.ErrNotPending) {
			// Another checkout redeemed the quote first; this hold is never captured
			u.logger.Warn("Quote redeemed concurrently, not booking",
				zap.String("quote_id", quote.QuoteID),
				zap.String("payment_intent_id", hold.ID),
			)
			var w domain.Warnings
			u.notifier.alert(ctx, &w, notification.Alert{
				Title: "Duplicate quote authorization",
				Body:  fmt.Sprintf("Quote %s was already redeemed; release hold %s", quote.QuoteID, hold.ID),
				Data:  map[string]string{"quote_id": quote.QuoteID, "payment_intent_id": hold.ID},
			})
			return nil, domain.ErrQuoteUnavailable.WithDetail("quote %s was redeemed by another checkout; authorization %s will not be captured", quote.QuoteID, hold.ID)
		}
		u.logger.Error("Failed to update quote status", zap.String("quote_id", quote.QuoteID), zap.Error(err))
		result.Warnings.Add(domain.StepMarkQuotePaid, err)
	}

	task, err := u.booker.CreateTask(ctx, customer)
	if err != nil {
		u.logger.Error("Task creation failed after quote authorization",
			zap.String("quote_id", quote.QuoteID),
			zap.String("payment_intent_id", hold.ID),
			zap.Error(err),
		)
		result.Warnings.Add(domain.StepCreateTask, err)
		u.notifier.alertOnBookkeeping(ctx, &result.Warnings, "Quote booking needs attention", map[string]string{
			"quote_id":          quote.QuoteID,
			"payment_intent_id": hold.ID,
		})
		return result, nil
	}
	result.TaskID = task.ID
	result.TaskNumber = task.TaskID

	if _, err := u.booker.RecordAuthorization(ctx, task.ID, taskUsecase.Authorization{
		Amount:          quote.CustomAmount,
		PaymentIntentID: hold.ID,
		Type:            taskDomain.PaymentTypeQuotePayment,
		QuoteID:         quote.QuoteID,
		HoldReason:      quoteHoldReason,
	}); err != nil {
		u.logger.Error("Failed to create payment record",
			zap.String("task_id", task.ID),
			zap.String("payment_intent_id", hold.ID),
			zap.Error(err),
		)
		result.Warnings.Add(domain.StepRecordPayment, err)
	}

	u.notifier.alertOnBookkeeping(ctx, &result.Warnings, "Quote booking needs attention", map[string]string{
		"quote_id":          quote.QuoteID,
		"task_id":           task.ID,
		"payment_intent_id": hold.ID,
	})

	u.notifier.send(ctx, &result.Warnings,
		notification.Message{
			Kind: notification.SMSQuoteBookingConfirmation,
			Payload: notification.Payload{
				"customer_phone": customer.CustomerPhone,
				"customer_name":  customer.CustomerName,
				"service_name":   quote.ServiceType,
				"amount":         quote.CustomAmount.StringFixed(2),
				"task_id":        task.TaskID,
			},
		},
		notification.Message{
			Kind: notification.EmailQuoteBooking,
			Payload: notification.Payload{
				"customer": map[string]string{
					"name":  customer.CustomerName,
					"email": customer.CustomerEmail,
					"phone": customer.CustomerPhone,
				},
				"quote": map[string]string{
					"id":           quote.QuoteID,
					"service_type": quote.ServiceType,
					"amount":       quote.CustomAmount.StringFixed(2),
					"description":  quote.DescriptionOr(""),
				},
				"task": map[string]string{
					"id":         task.TaskID,
					"created_at": task.CreatedAt.UTC().Format(time.RFC3339),
				},
			},
		},
	)

	return result, nil
}

// customerFor builds the booking from the quote, preferring the details the
// customer entered at checkout.
func (u *quoteCheckoutUsecase) customerFor(quote *quoteDomain.Quote, req QuoteCheckoutRequest) taskUsecase.CreateTaskInput {
	email := req.CustomerEmail
	if email == "" && quote.CustomerEmail != nil {
		email = *quote.CustomerEmail
	}
	timing := req.TimingPreference
	if timing == "" {
		timing = "flexible"
	}
	return taskUsecase.CreateTaskInput{
		CustomerName:      firstNonEmpty(req.CustomerName, quote.CustomerName),
		CustomerPhone:     firstNonEmpty(req.CustomerPhone, quote.CustomerPhone),
		CustomerEmail:     email,
		CustomerAddress:   req.CustomerAddress,
		Category:          quote.ServiceType,
		Description:       quote.DescriptionOr(quote.ServiceType),
		TimeWindow:        timing,
		EstimatedHours:    quote.EstimatedHours,
		TotalAmount:       quote.CustomAmount,
		AccessDetails:     "Created from admin quote",
		PetsAndSpecial:    "N/A",
		AdditionalDetails: fmt.Sprintf("Admin quote %s. Timing: %s", quote.QuoteID, timing),
	}
}

func (u *quoteCheckoutUsecase) returnURL(req QuoteCheckoutRequest) string {
	base := req.ReturnOrigin
	if base == "" {
		base = u.config.PublicBaseURL
	}
	return strings.TrimRight(base, "/") + "/quote-payment-success?token=" + url.QueryEscape(req.QuoteToken)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
