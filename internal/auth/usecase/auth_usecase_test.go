package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "sendahandyman-backend/internal/auth/domain"
	"sendahandyman-backend/internal/auth/repository"
	"sendahandyman-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authFixture struct {
	db     *gorm.DB
	admins repository.AdminRepository
	tokens repository.FCMTokenRepository
	cfg    *config.Config
	uc     AuthUsecase
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	f := &authFixture{
		db:     db,
		admins: repository.NewAdminRepository(db),
		tokens: repository.NewFCMTokenRepository(db),
		cfg:    &config.Config{JWTSecret: "test-secret", JWTTokenExpiry: time.Hour},
	}
	f.uc = NewAuthUsecase(f.admins, f.tokens, f.cfg)
	return f
}

func (f *authFixture) admin(t *testing.T, email string) *authdomain.AdminUser {
	t.Helper()
	a := &authdomain.AdminUser{Email: email, Name: "Ops"}
	require.NoError(t, f.admins.Create(context.Background(), a))
	return a
}

func TestIssueAndVerifyToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a := f.admin(t, "ops@example.com")

	token, err := f.uc.IssueToken(ctx, "ops@example.com")
	require.NoError(t, err)

	got, err := f.uc.VerifyAdmin(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "ops@example.com", got.Email)
}

func TestIssueToken_UnknownAdmin(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.uc.IssueToken(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUnknownAdmin)
}

func TestVerifyAdmin_RejectsBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a := f.admin(t, "ops@example.com")

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	now := time.Now()

	cases := map[string]string{
		"garbage":        "not-a-jwt",
		"wrong secret":   sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: a.ID, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}),
		"expired":        sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{Subject: a.ID, ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}),
		"no expiry":      sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{Subject: a.ID}),
		"no subject":     sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}),
		"hs512":          sign(jwt.SigningMethodHS512, []byte("test-secret"), jwt.RegisteredClaims{Subject: a.ID, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.VerifyAdmin(ctx, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyAdmin_InactiveOrUnknownIsForbidden(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a := f.admin(t, "ops@example.com")

	token, err := f.uc.IssueToken(ctx, "ops@example.com")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&authdomain.AdminUser{}).Where("id = ?", a.ID).Update("active", false).Error)

	_, err = f.uc.VerifyAdmin(ctx, token)
	assert.ErrorIs(t, err, ErrNotAdmin)

	ghost, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ghost",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = f.uc.VerifyAdmin(ctx, ghost)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestRegisterAndUnregisterDevice(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a := f.admin(t, "ops@example.com")

	assert.Error(t, f.uc.RegisterDevice(ctx, a.ID, "", "Chrome"))
	require.NoError(t, f.uc.RegisterDevice(ctx, a.ID, "device-1", "Chrome"))

	all, err := f.tokens.GetAllTokens(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, f.uc.UnregisterDevice(ctx, "device-1"))
	all, err = f.tokens.GetAllTokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
