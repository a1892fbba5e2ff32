package repository

import (
	"context"
	"errors"
	"time"

	"sendahandyman-backend/internal/quote/domain"
)

var (
	ErrNotFound = errors.New("quote not found")
	// ErrNotPending is returned by MarkPaid when the quote left pending first
	ErrNotPending = errors.New("quote is not pending")
	ErrDuplicate  = errors.New("duplicate quote id or token")
)

// QuoteRepository persists quotes
type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.Quote) error
	FindByToken(ctx context.Context, token string) (*domain.Quote, error)

	// MarkPaid moves a pending quote to paid. The update is conditional on
	// status = pending so two redemptions cannot both succeed.
	MarkPaid(ctx context.Context, token string, r domain.Redemption) error

	MarkExpired(ctx context.Context, token string) error

	// ExpirePending marks every pending quote with expires_at <= now as expired
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
