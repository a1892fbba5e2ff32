package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus is the redemption state of a quote: pending -> paid, or pending -> expired
type QuoteStatus string

const (
	QuoteStatusPending QuoteStatus = "pending"
	QuoteStatusPaid    QuoteStatus = "paid"
	QuoteStatusExpired QuoteStatus = "expired"
)

// Quote is an admin-issued fixed-price offer redeemable once via its token before expiry
type Quote struct {
	ID             string          `json:"-" gorm:"primaryKey"`
	QuoteID        string          `json:"quote_id" gorm:"uniqueIndex;not null"`
	QuoteToken     string          `json:"-" gorm:"uniqueIndex;not null"`
	CustomerName   string          `json:"customer_name" gorm:"not null"`
	CustomerPhone  string          `json:"customer_phone" gorm:"not null"`
	CustomerEmail  *string         `json:"customer_email,omitempty"`
	ServiceType    string          `json:"service_type" gorm:"not null"`
	CustomAmount   decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Description    *string         `json:"description,omitempty"`
	EstimatedHours *float64        `json:"estimated_hours,omitempty"`
	ExpiresAt      time.Time       `json:"expires_at" gorm:"index;not null"`
	Status         QuoteStatus     `json:"status" gorm:"index;not null;default:pending"`
	CreatedBy      string          `json:"created_by"`

	// Set when the quote is redeemed
	PaymentIntentID      *string    `json:"payment_intent_id,omitempty"`
	UsedAt               *time.Time `json:"used_at,omitempty"`
	FinalCustomerName    string     `json:"final_customer_name,omitempty"`
	FinalCustomerPhone   string     `json:"final_customer_phone,omitempty"`
	FinalCustomerEmail   string     `json:"final_customer_email,omitempty"`
	FinalCustomerAddress string     `json:"final_customer_address,omitempty"`
	TimingPreference     string     `json:"timing_preference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether the quote can no longer be redeemed at now
func (q *Quote) IsExpired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// DaysUntilExpiry rounds the remaining validity up to whole days
func (q *Quote) DaysUntilExpiry(now time.Time) int {
	return int(math.Ceil(q.ExpiresAt.Sub(now).Hours() / 24))
}

// DescriptionOr returns the description, or fallback when it is empty
func (q *Quote) DescriptionOr(fallback string) string {
	if q.Description == nil || *q.Description == "" {
		return fallback
	}
	return *q.Description
}

// Redemption carries the finalized customer details written when a quote is paid
type Redemption struct {
	PaymentIntentID  string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	CustomerAddress  string
	TimingPreference string
	UsedAt           time.Time
}
