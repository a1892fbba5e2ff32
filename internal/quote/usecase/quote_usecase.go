package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"sendahandyman-backend/internal/quote/domain"
	"sendahandyman-backend/internal/quote/repository"
	"sendahandyman-backend/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// minTokenLength rejects obviously malformed tokens before touching the store
const minTokenLength = 16

type quoteUsecase struct {
	quoteRepo repository.QuoteRepository
	config    *config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewQuoteUsecase(quoteRepo repository.QuoteRepository, cfg *config.Config, logger *zap.Logger) QuoteUsecase {
	return &quoteUsecase{
		quoteRepo: quoteRepo,
		config:    cfg,
		logger:    logger.Named("quote"),
		now:       time.Now,
	}
}

func (u *quoteUsecase) CreateQuote(ctx context.Context, input CreateQuoteInput) (*CreatedQuote, error) {
	if input.CustomerName == "" || input.CustomerPhone == "" || input.ServiceType == "" || !input.Amount.IsPositive() {
		return nil, ErrInvalidRequest
	}

	token, err := newQuoteToken()
	if err != nil {
		return nil, fmt.Errorf("generate quote token: %w", err)
	}

	expiryDays := input.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = u.config.QuoteExpiryDays
	}
	now := u.now()

	quote := &domain.Quote{
		QuoteID:        fmt.Sprintf("QUOTE-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		QuoteToken:     token,
		CustomerName:   input.CustomerName,
		CustomerPhone:  input.CustomerPhone,
		CustomerEmail:  optional(input.CustomerEmail),
		ServiceType:    input.ServiceType,
		CustomAmount:   input.Amount.Round(2),
		Description:    optional(input.Description),
		EstimatedHours: input.EstimatedHours,
		ExpiresAt:      now.AddDate(0, 0, expiryDays),
		Status:         domain.QuoteStatusPending,
		CreatedBy:      input.CreatedBy,
	}
	if quote.CreatedBy == "" {
		quote.CreatedBy = "admin"
	}

	if err := u.quoteRepo.Create(ctx, quote); err != nil {
		return nil, err
	}

	u.logger.Info("Quote created",
		zap.String("quote_id", quote.QuoteID),
		zap.String("service_type", quote.ServiceType),
		zap.String("amount", quote.CustomAmount.StringFixed(2)),
		zap.Time("expires_at", quote.ExpiresAt),
	)

	return &CreatedQuote{
		Quote: quote,
		Token: token,
		URL:   strings.TrimRight(u.config.PublicBaseURL, "/") + "/quote/" + token,
	}, nil
}

func (u *quoteUsecase) GetQuote(ctx context.Context, token string) (*QuoteView, error) {
	if len(token) < minTokenLength {
		return nil, ErrInvalidToken
	}

	quote, err := u.quoteRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := u.now()
	if quote.Status == domain.QuoteStatusExpired || (quote.Status == domain.QuoteStatusPending && quote.IsExpired(now)) {
		if quote.Status == domain.QuoteStatusPending {
			if err := u.quoteRepo.MarkExpired(ctx, token); err != nil {
				u.logger.Warn("Failed to mark quote expired", zap.String("quote_id", quote.QuoteID), zap.Error(err))
			}
		}
		return nil, &ExpiredError{ExpiresAt: quote.ExpiresAt}
	}
	if quote.Status == domain.QuoteStatusPaid {
		return nil, ErrAlreadyUsed
	}

	return &QuoteView{
		Quote:           quote,
		DaysUntilExpiry: quote.DaysUntilExpiry(now),
	}, nil
}

func (u *quoteUsecase) ExpireStale(ctx context.Context) (int64, error) {
	n, err := u.quoteRepo.ExpirePending(ctx, u.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.logger.Info("Expired stale quotes", zap.Int64("count", n))
	}
	return n, nil
}

// newQuoteToken returns 32 hex characters from the system CSPRNG
func newQuoteToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
