package repository

import (
	"context"
	"errors"
	"time"

	authdomain "sendahandyman-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRepository reads and creates operator accounts. Admin CRUD beyond
// bootstrapping lives in a separate service.
type AdminRepository interface {
	Create(ctx context.Context, admin *authdomain.AdminUser) error
	FindByID(ctx context.Context, id string) (*authdomain.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*authdomain.AdminUser, error)
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new instance of adminRepository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{
		db: db,
	}
}

func (r *adminRepository) Create(ctx context.Context, admin *authdomain.AdminUser) error {
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	if admin.Role == "" {
		admin.Role = authdomain.RoleAdmin
	}
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = admin.CreatedAt
	return r.db.WithContext(ctx).Create(admin).Error
}

// FindByID returns nil, nil when no admin has the id
func (r *adminRepository) FindByID(ctx context.Context, id string) (*authdomain.AdminUser, error) {
	var admin authdomain.AdminUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*authdomain.AdminUser, error) {
	var admin authdomain.AdminUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// Migrate creates the admin and device token tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&authdomain.AdminUser{}, &authdomain.FCMToken{})
}
