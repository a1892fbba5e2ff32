package usecase

import (
	"context"
	"errors"
	"time"

	"sendahandyman-backend/internal/quote/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest = errors.New("missing required fields: customer_name, customer_phone, service_type, amount")
	ErrInvalidToken   = errors.New("invalid quote token")
	ErrNotFound       = errors.New("quote not found")
	ErrExpired        = errors.New("quote has expired")
	ErrAlreadyUsed    = errors.New("quote has already been used")
)

// QuoteUsecase covers the admin and customer sides of quotes. Redemption
// with payment is done by the payment quote checkout.
type QuoteUsecase interface {
	CreateQuote(ctx context.Context, input CreateQuoteInput) (*CreatedQuote, error)
	GetQuote(ctx context.Context, token string) (*QuoteView, error)
	// ExpireStale marks pending quotes past expiry as expired
	ExpireStale(ctx context.Context) (int64, error)
}

type CreateQuoteInput struct {
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  string
	ServiceType    string
	Amount         decimal.Decimal
	Description    string
	EstimatedHours *float64
	ExpiryDays     int // zero uses the configured default
	CreatedBy      string
}

type CreatedQuote struct {
	Quote *domain.Quote
	Token string
	URL   string
}

// QuoteView is what a customer sees when opening a quote link
type QuoteView struct {
	Quote           *domain.Quote
	DaysUntilExpiry int
}

// ExpiredError carries the expiry time of a quote that can no longer be redeemed
type ExpiredError struct {
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return ErrExpired.Error()
}

func (e *ExpiredError) Unwrap() error {
	return ErrExpired
}
