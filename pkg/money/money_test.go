package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"160", 16000},
		{"160.00", 16000},
		{"240.00", 24000},
		{"125.50", 12550},
		{"0.5", 50},
		{"19.995", 2000},
		{"0.1", 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToMinor(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestMaterialsPlusTravel(t *testing.T) {
	total := decimal.RequireFromString("45.50").Add(decimal.NewFromInt(80))
	assert.Equal(t, int64(12550), ToMinor(total))
	assert.Equal(t, "125.50", Format(total))
}

func TestRoundTripHasNoDrift(t *testing.T) {
	amount := decimal.RequireFromString("240.00")
	back := FromMinor(ToMinor(amount))

	assert.True(t, back.Equal(amount))
	assert.Equal(t, "240.00", Format(back))
}
