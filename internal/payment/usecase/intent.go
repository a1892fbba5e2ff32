package usecase

import (
	"context"
	"fmt"

	"sendahandyman-backend/internal/payment/domain"
	"sendahandyman-backend/pkg/config"
	"sendahandyman-backend/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// minimumCharge is the smallest amount the processor accepts
var minimumCharge = decimal.New(50, -2)

type intentUsecase struct {
	gateway domain.Gateway
	config  *config.Config
	logger  *zap.Logger
}

func NewIntentUsecase(gateway domain.Gateway, cfg *config.Config, logger *zap.Logger) IntentUsecase {
	return &intentUsecase{
		gateway: gateway,
		config:  cfg,
		logger:  logger.Named("intent"),
	}
}

// CreateBookingIntent places an unconfirmed manual-capture authorization.
// The customer fields go into metadata so capture can match the hold later
// even when the booking never reports the intent id back.
func (u *intentUsecase) CreateBookingIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	if req.Amount.LessThan(minimumCharge) {
		return nil, domain.ErrInvalidRequest.WithDetail("Invalid amount")
	}

	hold, err := u.gateway.Authorize(ctx, domain.AuthorizeParams{
		Amount:      money.ToMinor(req.Amount),
		Currency:    u.config.PaymentCurrency,
		Description: fmt.Sprintf("Handyman Service: %s - %s", orDefault(req.ServiceCategory, "Service"), orDefault(req.CustomerName, "Customer")),
		Customer: &domain.CustomerDetails{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Metadata: map[string]string{
			domain.MetaCustomerName:  orDefault(req.CustomerName, "Unknown"),
			domain.MetaCustomerEmail: orDefault(req.CustomerEmail, "Unknown"),
			domain.MetaCustomerPhone: orDefault(req.CustomerPhone, "Unknown"),
			"service_category":       orDefault(req.ServiceCategory, "Unknown"),
			"service_window":         orDefault(req.ServiceWindow, "Unknown"),
			"estimated_hours":        orDefault(req.EstimatedHours, "Unknown"),
		},
	})
	if err != nil {
		return nil, gatewayFailure(domain.ErrAuthorizationFail, err)
	}

	u.logger.Info("Booking payment intent created",
		zap.String("payment_intent_id", hold.ID),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return &IntentResult{PaymentIntentID: hold.ID, ClientSecret: hold.ClientSecret}, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
