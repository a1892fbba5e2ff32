package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sendahandyman-backend/internal/quote/domain"
	"sendahandyman-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormQuoteRepository struct {
	db *gorm.DB
}

func NewGormQuoteRepository(db *gorm.DB) QuoteRepository {
	return &gormQuoteRepository{db: db}
}

// Migrate creates the quotes table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Quote{})
}

func (r *gormQuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now
	if quote.Status == "" {
		quote.Status = domain.QuoteStatusPending
	}

	err := r.db.WithContext(ctx).Create(quote).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, quote.QuoteID)
	}
	return err
}

func (r *gormQuoteRepository) FindByToken(ctx context.Context, token string) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).Where("quote_token = ?", token).First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

func (r *gormQuoteRepository) MarkPaid(ctx context.Context, token string, red domain.Redemption) error {
	res := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("quote_token = ? AND status = ?", token, domain.QuoteStatusPending).
		Updates(map[string]interface{}{
			"status":                 domain.QuoteStatusPaid,
			"payment_intent_id":      red.PaymentIntentID,
			"used_at":                red.UsedAt,
			"final_customer_name":    red.CustomerName,
			"final_customer_phone":   red.CustomerPhone,
			"final_customer_email":   red.CustomerEmail,
			"final_customer_address": red.CustomerAddress,
			"timing_preference":      red.TimingPreference,
			"updated_at":             time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *gormQuoteRepository) MarkExpired(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("quote_token = ? AND status = ?", token, domain.QuoteStatusPending).
		Updates(map[string]interface{}{
			"status":     domain.QuoteStatusExpired,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormQuoteRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("status = ? AND expires_at <= ?", domain.QuoteStatusPending, now).
		Updates(map[string]interface{}{
			"status":     domain.QuoteStatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
