package delivery

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "sendahandyman-backend/internal/auth/domain"
	"sendahandyman-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockAuth struct {
	VerifyFunc   func(ctx context.Context, token string) (*authdomain.AdminUser, error)
	RegisterFunc func(ctx context.Context, adminID, token, deviceInfo string) error
}

func (m *mockAuth) VerifyAdmin(ctx context.Context, token string) (*authdomain.AdminUser, error) {
	return m.VerifyFunc(ctx, token)
}

func (m *mockAuth) IssueToken(ctx context.Context, email string) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockAuth) RegisterDevice(ctx context.Context, adminID, token, deviceInfo string) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, adminID, token, deviceInfo)
	}
	return nil
}

func (m *mockAuth) UnregisterDevice(ctx context.Context, token string) error {
	return nil
}

func verifier() *mockAuth {
	return &mockAuth{VerifyFunc: func(ctx context.Context, token string) (*authdomain.AdminUser, error) {
		switch token {
		case "good":
			return &authdomain.AdminUser{ID: "admin-1", Email: "ops@example.com", Role: authdomain.RoleAdmin, Active: true}, nil
		case "customer":
			return nil, usecase.ErrNotAdmin
		case "broken":
			return nil, errors.New("db down")
		default:
			return nil, usecase.ErrInvalidToken
		}
	}}
}

func protectedRouter(auth usecase.AuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminMiddleware(auth), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentAdmin(c).Email)
	})
	devices := NewDeviceHandler(auth)
	r.POST("/devices", AdminMiddleware(auth), devices.RegisterDevice)
	return r
}

func TestAdminMiddleware(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer expired", http.StatusUnauthorized},
		{"not an admin", "Bearer customer", http.StatusForbidden},
		{"lookup failure", "Bearer broken", http.StatusInternalServerError},
		{"admin", "Bearer good", http.StatusOK},
	}
	r := protectedRouter(verifier())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "ops@example.com", w.Body.String())
			}
		})
	}
}

func TestRegisterDevice_UsesCallingAdmin(t *testing.T) {
	auth := verifier()
	var gotAdmin, gotToken string
	auth.RegisterFunc = func(ctx context.Context, adminID, token, deviceInfo string) error {
		gotAdmin, gotToken = adminID, token
		return nil
	}
	r := protectedRouter(auth)

	req := httptest.NewRequest(http.MethodPost, "/devices", bytes.NewBufferString(`{"token":"fcm-123","device_info":"Chrome"}`))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", gotAdmin)
	assert.Equal(t, "fcm-123", gotToken)
}
