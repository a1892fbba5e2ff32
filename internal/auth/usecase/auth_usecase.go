package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "sendahandyman-backend/internal/auth/domain"
	"sendahandyman-backend/internal/auth/repository"
	"sendahandyman-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAdmin     = errors.New("admin access required")
	ErrUnknownAdmin = errors.New("admin not found")
)

type authUsecase struct {
	adminRepo repository.AdminRepository
	fcmRepo   repository.FCMTokenRepository
	config    *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(adminRepo repository.AdminRepository, fcmRepo repository.FCMTokenRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		adminRepo: adminRepo,
		fcmRepo:   fcmRepo,
		config:    cfg,
	}
}

func (u *authUsecase) VerifyAdmin(ctx context.Context, tokenString string) (*authdomain.AdminUser, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	adminID, err := token.Claims.GetSubject()
	if err != nil || adminID == "" {
		return nil, ErrInvalidToken
	}

	admin, err := u.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.CanOperate() {
		return nil, ErrNotAdmin
	}
	return admin, nil
}

// IssueToken signs an access token for the admin with email. Used by the
// operator CLI; interactive login belongs to the admin service.
func (u *authUsecase) IssueToken(ctx context.Context, email string) (string, error) {
	admin, err := u.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if admin == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownAdmin, email)
	}
	if !admin.CanOperate() {
		return "", ErrNotAdmin
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   admin.ID,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(u.config.JWTTokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) RegisterDevice(ctx context.Context, adminID, token, deviceInfo string) error {
	if token == "" {
		return errors.New("device token is required")
	}
	return u.fcmRepo.SaveToken(ctx, adminID, token, deviceInfo)
}

func (u *authUsecase) UnregisterDevice(ctx context.Context, token string) error {
	return u.fcmRepo.DeleteToken(ctx, token)
}
