// Package money converts between decimal currency amounts and the integer
// minor units the payment processor works in.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinor returns the amount in cents, rounded half away from zero.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinor returns the decimal amount for a number of cents.
func FromMinor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders an amount with two decimal places, e.g. "125.50".
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
