package repository

import (
	"context"
	"time"

	authdomain "sendahandyman-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FCMTokenRepository defines the interface for FCM token operations
type FCMTokenRepository interface {
	SaveToken(ctx context.Context, adminID, token, deviceInfo string) error
	GetTokensByAdminID(ctx context.Context, adminID string) ([]authdomain.FCMToken, error)
	GetAllTokens(ctx context.Context) ([]authdomain.FCMToken, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteTokensByAdminID(ctx context.Context, adminID string) error
}

type fcmTokenRepository struct {
	db *gorm.DB
}

// NewFCMTokenRepository creates a new instance of fcmTokenRepository
func NewFCMTokenRepository(db *gorm.DB) FCMTokenRepository {
	return &fcmTokenRepository{
		db: db,
	}
}

// SaveToken saves or updates an FCM token for an admin (atomic upsert)
func (r *fcmTokenRepository) SaveToken(ctx context.Context, adminID, token, deviceInfo string) error {
	now := time.Now()
	fcmToken := &authdomain.FCMToken{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// INSERT ... ON CONFLICT (token) DO UPDATE: a device handed to another admin moves with its token
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"admin_id", "device_info", "updated_at"}),
	}).Create(fcmToken).Error
}

func (r *fcmTokenRepository) GetTokensByAdminID(ctx context.Context, adminID string) ([]authdomain.FCMToken, error) {
	var tokens []authdomain.FCMToken
	if err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetAllTokens returns the tokens of every active admin
func (r *fcmTokenRepository) GetAllTokens(ctx context.Context) ([]authdomain.FCMToken, error) {
	var tokens []authdomain.FCMToken
	err := r.db.WithContext(ctx).
		Joins("JOIN admin_users ON admin_users.id = fcm_tokens.admin_id").
		Where("admin_users.active = ?", true).
		Order("fcm_tokens.created_at").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *fcmTokenRepository) DeleteToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&authdomain.FCMToken{}).Error
}

func (r *fcmTokenRepository) DeleteTokensByAdminID(ctx context.Context, adminID string) error {
	return r.db.WithContext(ctx).Where("admin_id = ?", adminID).Delete(&authdomain.FCMToken{}).Error
}
