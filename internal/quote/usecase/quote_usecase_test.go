package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sendahandyman-backend/internal/quote/domain"
	"sendahandyman-backend/internal/quote/repository"
	"sendahandyman-backend/pkg/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestUsecase(t *testing.T) (*quoteUsecase, repository.QuoteRepository) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := repository.NewGormQuoteRepository(db)
	cfg := &config.Config{QuoteExpiryDays: 14, PublicBaseURL: "https://sendahandyman.com/"}
	return NewQuoteUsecase(repo, cfg, zap.NewNop()).(*quoteUsecase), repo
}

func validInput() CreateQuoteInput {
	return CreateQuoteInput{
		CustomerName:  "Sam Quote",
		CustomerPhone: "+15555550111",
		CustomerEmail: "sam@example.com",
		ServiceType:   "fence repair",
		Amount:        decimal.RequireFromString("240"),
		CreatedBy:     "ops@example.com",
	}
}

func TestCreateQuote(t *testing.T) {
	uc, _ := newTestUsecase(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return fixed }

	created, err := uc.CreateQuote(context.Background(), validInput())
	require.NoError(t, err)

	assert.Len(t, created.Token, 32)
	assert.Equal(t, "https://sendahandyman.com/quote/"+created.Token, created.URL)
	assert.True(t, strings.HasPrefix(created.Quote.QuoteID, "QUOTE-"))
	assert.Equal(t, fixed.AddDate(0, 0, 14), created.Quote.ExpiresAt)
	assert.Equal(t, domain.QuoteStatusPending, created.Quote.Status)
	assert.Equal(t, "ops@example.com", created.Quote.CreatedBy)
	require.NotNil(t, created.Quote.CustomerEmail)
	assert.Nil(t, created.Quote.Description)

	other, err := uc.CreateQuote(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEqual(t, created.Token, other.Token)
}

func TestCreateQuote_CustomExpiry(t *testing.T) {
	uc, _ := newTestUsecase(t)
	in := validInput()
	in.ExpiryDays = 3

	created, err := uc.CreateQuote(context.Background(), in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 3), created.Quote.ExpiresAt, time.Minute)
}

func TestCreateQuote_Validation(t *testing.T) {
	uc, _ := newTestUsecase(t)
	for name, mutate := range map[string]func(*CreateQuoteInput){
		"no name":     func(in *CreateQuoteInput) { in.CustomerName = "" },
		"no phone":    func(in *CreateQuoteInput) { in.CustomerPhone = "" },
		"no service":  func(in *CreateQuoteInput) { in.ServiceType = "" },
		"zero amount": func(in *CreateQuoteInput) { in.Amount = decimal.Zero },
	} {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := uc.CreateQuote(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestGetQuote(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()
	created, err := uc.CreateQuote(ctx, validInput())
	require.NoError(t, err)

	view, err := uc.GetQuote(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, 14, view.DaysUntilExpiry)
	assert.Equal(t, created.Quote.QuoteID, view.Quote.QuoteID)

	_, err = uc.GetQuote(ctx, "short")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = uc.GetQuote(ctx, strings.Repeat("a", 32))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.MarkPaid(ctx, created.Token, domain.Redemption{PaymentIntentID: "pi_1", UsedAt: time.Now()}))
	_, err = uc.GetQuote(ctx, created.Token)
	assert.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestGetQuote_ExpiredIsMarked(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()
	created, err := uc.CreateQuote(ctx, validInput())
	require.NoError(t, err)

	uc.now = func() time.Time { return created.Quote.ExpiresAt.Add(time.Second) }
	_, err = uc.GetQuote(ctx, created.Token)
	assert.ErrorIs(t, err, ErrExpired)
	var expired *ExpiredError
	require.True(t, errors.As(err, &expired))
	assert.True(t, expired.ExpiresAt.Equal(created.Quote.ExpiresAt))

	stored, err := repo.FindByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusExpired, stored.Status)

	_, err = uc.GetQuote(ctx, created.Token)
	assert.ErrorIs(t, err, ErrExpired, "stays expired")
}

func TestExpireStale(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()
	_, err := uc.CreateQuote(ctx, validInput())
	require.NoError(t, err)

	n, err := uc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	uc.now = func() time.Time { return time.Now().AddDate(0, 0, 15) }
	n, err = uc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
