package usecase

import (
	"context"
	"testing"

	"sendahandyman-backend/internal/payment/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingIntent(t *testing.T) {
	env := newTestEnv(t)
	uc := NewIntentUsecase(env.gateway, env.config, env.logger)

	res, err := uc.CreateBookingIntent(context.Background(), IntentRequest{
		Amount:          dec("160"),
		CustomerName:    "Jane Doe",
		CustomerEmail:   "jane@example.com",
		ServiceCategory: "drywall",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.PaymentIntentID)
	assert.Equal(t, res.PaymentIntentID+"_secret", res.ClientSecret)

	require.Len(t, env.gateway.authorizeCalls, 1)
	call := env.gateway.authorizeCalls[0]
	assert.Equal(t, int64(16000), call.Amount)
	assert.Empty(t, call.PaymentMethod, "the client confirms the hold")
	assert.Equal(t, "jane@example.com", call.Metadata[domain.MetaCustomerEmail])
	assert.Equal(t, "Unknown", call.Metadata[domain.MetaCustomerPhone])
	assert.Equal(t, "Handyman Service: drywall - Jane Doe", call.Description)
	require.NotNil(t, call.Customer)
	assert.Equal(t, domain.CustomerDetails{Name: "Jane Doe", Email: "jane@example.com"}, *call.Customer)

	// The unconfirmed hold is not capturable yet
	assert.Equal(t, domain.HoldRequiresPaymentMethod, env.gateway.hold(res.PaymentIntentID).Status)
}

func TestCreateBookingIntent_MinimumAmount(t *testing.T) {
	env := newTestEnv(t)
	uc := NewIntentUsecase(env.gateway, env.config, env.logger)

	_, err := uc.CreateBookingIntent(context.Background(), IntentRequest{Amount: dec("0.49")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = uc.CreateBookingIntent(context.Background(), IntentRequest{Amount: dec("0.50")})
	assert.NoError(t, err)
}
