package usecase

import (
	"context"

	authdomain "sendahandyman-backend/internal/auth/domain"
)

// AuthUsecase verifies admin bearer tokens and manages admin alert devices
type AuthUsecase interface {
	// VerifyAdmin returns the admin behind token or an error when the token
	// is invalid, expired or does not belong to an active admin.
	VerifyAdmin(ctx context.Context, token string) (*authdomain.AdminUser, error)
	IssueToken(ctx context.Context, email string) (string, error)

	RegisterDevice(ctx context.Context, adminID, token, deviceInfo string) error
	UnregisterDevice(ctx context.Context, token string) error
}
