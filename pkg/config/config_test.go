package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("HOLD_SEARCH_LIMIT", "")
	t.Setenv("DEFAULT_TRAVEL_FEE", "")
	t.Setenv("ADDITIONAL_CHARGE_CAP_RATIO", "")
	t.Setenv("HEURISTIC_HOLD_MATCHING", "")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 100, cfg.HoldSearchLimit)
	assert.True(t, cfg.HeuristicHoldMatching)
	assert.True(t, cfg.DefaultTravelFee.Equal(decimal.NewFromInt(80)))
	assert.True(t, cfg.AdditionalChargeCapRatio.IsZero())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("HOLD_SEARCH_LIMIT", "25")
	t.Setenv("HEURISTIC_HOLD_MATCHING", "false")
	t.Setenv("DEFAULT_TRAVEL_FEE", "65.50")
	t.Setenv("ADDITIONAL_CHARGE_CAP_RATIO", "0.5")

	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 25, cfg.HoldSearchLimit)
	assert.False(t, cfg.HeuristicHoldMatching)
	assert.Equal(t, "65.5", cfg.DefaultTravelFee.String())
	assert.Equal(t, "0.5", cfg.AdditionalChargeCapRatio.String())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("PAYMENT_TIMEOUT", "soon")
	t.Setenv("HOLD_SEARCH_LIMIT", "lots")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 100, cfg.HoldSearchLimit)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db:5432/app"}
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DSN())

	cfg = &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "app", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=app sslmode=disable", cfg.DSN())
}
