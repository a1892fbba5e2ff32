package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"sendahandyman-backend/internal/quote/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) QuoteRepository {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return NewGormQuoteRepository(db)
}

func newQuote(token string, expiresAt time.Time) *domain.Quote {
	return &domain.Quote{
		QuoteID:       "QUOTE-" + token,
		QuoteToken:    token,
		CustomerName:  "Sam",
		CustomerPhone: "+15555550111",
		ServiceType:   "fence repair",
		CustomAmount:  decimal.RequireFromString("240.00"),
		ExpiresAt:     expiresAt,
	}
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	q := newQuote("tok-1", time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, q))
	assert.NotEmpty(t, q.ID)

	got, err := repo.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, got.Status)
	assert.True(t, got.CustomAmount.Equal(decimal.NewFromInt(240)))

	_, err = repo.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := newQuote("tok-1", time.Now().Add(time.Hour))
	dup.QuoteID = "QUOTE-other"
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)
}

func TestMarkPaid_OnlyOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newQuote("tok-race", time.Now().Add(time.Hour))))

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.MarkPaid(ctx, "tok-race", domain.Redemption{PaymentIntentID: "pi_" + uuid.NewString(), UsedAt: time.Now()})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrNotPending)
	}
	assert.Equal(t, 1, won)

	got, err := repo.FindByToken(ctx, "tok-race")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPaid, got.Status)
	assert.NotNil(t, got.UsedAt)
}

func TestMarkExpired_LeavesPaidQuotesAlone(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newQuote("tok-paid", time.Now().Add(-time.Hour))))
	require.NoError(t, repo.MarkPaid(ctx, "tok-paid", domain.Redemption{PaymentIntentID: "pi_1", UsedAt: time.Now()}))

	require.NoError(t, repo.MarkExpired(ctx, "tok-paid"))
	got, err := repo.FindByToken(ctx, "tok-paid")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPaid, got.Status)
}

func TestExpirePending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, newQuote("tok-stale-1", now.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(ctx, newQuote("tok-stale-2", now.Add(-time.Minute))))
	require.NoError(t, repo.Create(ctx, newQuote("tok-fresh", now.Add(time.Hour))))

	n, err := repo.ExpirePending(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	fresh, err := repo.FindByToken(ctx, "tok-fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, fresh.Status)

	n, err = repo.ExpirePending(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
