package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentRecordStatus is the state of a single money movement
type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending" // open authorization hold
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// PaymentType distinguishes the original hold from follow-on charges
type PaymentType string

const (
	PaymentTypeBooking             PaymentType = "booking"
	PaymentTypeQuotePayment        PaymentType = "quote_payment"
	PaymentTypeAdditionalMaterials PaymentType = "additional_materials"
)

// IsHold reports whether payments of this type start life as an authorization hold.
func (t PaymentType) IsHold() bool {
	return t == PaymentTypeBooking || t == PaymentTypeQuotePayment
}

// HoldPaymentTypes lists the payment types that may be the task's open hold.
var HoldPaymentTypes = []PaymentType{PaymentTypeBooking, PaymentTypeQuotePayment}

// Payment represents one money movement tied to exactly one task
type Payment struct {
	ID              string              `json:"id" gorm:"primaryKey"`
	TaskID          string              `json:"task_id" gorm:"index;not null"` // References tasks.id
	Amount          decimal.Decimal     `json:"amount" gorm:"type:numeric(12,2);not null"`
	PaymentIntentID *string             `json:"payment_intent_id,omitempty" gorm:"index"`
	Status          PaymentRecordStatus `json:"status" gorm:"index;not null;default:pending"`
	PaymentType     PaymentType         `json:"payment_type" gorm:"not null;default:booking"`
	QuoteID         *string             `json:"quote_id,omitempty"`

	HoldReason string     `json:"hold_reason,omitempty"`
	HoldUntil  *time.Time `json:"hold_until,omitempty"`

	// Completion metadata
	CompletionPhotos datatypes.JSONSlice[string] `json:"completion_photos,omitempty"`
	CompletionNotes  string                      `json:"completion_notes,omitempty"`
	CapturedAt       *time.Time                  `json:"captured_at,omitempty"`

	// Additional materials metadata
	TravelFee        decimal.NullDecimal         `json:"travel_fee,omitempty" gorm:"type:numeric(12,2)"`
	MaterialCosts    decimal.NullDecimal         `json:"material_costs,omitempty" gorm:"type:numeric(12,2)"`
	MaterialReceipts datatypes.JSONSlice[string] `json:"material_receipts,omitempty"`
	HandymanNotes    string                      `json:"handyman_notes,omitempty"`
	CustomerApproved bool                        `json:"customer_approved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpenHold reports whether this row is the task's pending authorization.
func (p *Payment) IsOpenHold() bool {
	return p.Status == PaymentRecordPending && p.PaymentType.IsHold()
}

// IntentID returns the gateway reference or "" when unknown.
func (p *Payment) IntentID() string {
	if p.PaymentIntentID == nil {
		return ""
	}
	return *p.PaymentIntentID
}

// PaymentPatch is a partial update of a payment. Nil fields are left untouched.
type PaymentPatch struct {
	Status           *PaymentRecordStatus
	PaymentIntentID  *string
	CapturedAt       *time.Time
	CompletionPhotos []string
	CompletionNotes  *string
}

// Columns returns the column/value pairs to write.
func (p PaymentPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.PaymentIntentID != nil {
		cols["payment_intent_id"] = *p.PaymentIntentID
	}
	if p.CapturedAt != nil {
		cols["captured_at"] = *p.CapturedAt
	}
	if p.CompletionPhotos != nil {
		cols["completion_photos"] = datatypes.NewJSONSlice(p.CompletionPhotos)
	}
	if p.CompletionNotes != nil {
		cols["completion_notes"] = *p.CompletionNotes
	}
	return cols
}

// Apply copies the set fields onto pay.
func (p PaymentPatch) Apply(pay *Payment) {
	if p.Status != nil {
		pay.Status = *p.Status
	}
	if p.PaymentIntentID != nil {
		id := *p.PaymentIntentID
		pay.PaymentIntentID = &id
	}
	if p.CapturedAt != nil {
		at := *p.CapturedAt
		pay.CapturedAt = &at
	}
	if p.CompletionPhotos != nil {
		pay.CompletionPhotos = datatypes.NewJSONSlice(p.CompletionPhotos)
	}
	if p.CompletionNotes != nil {
		pay.CompletionNotes = *p.CompletionNotes
	}
}

// CapturedPaymentPatch closes an open hold after a successful capture.
func CapturedPaymentPatch(intentID string, at time.Time, photos []string, notes string) PaymentPatch {
	status := PaymentRecordCompleted
	if photos == nil {
		photos = []string{}
	}
	return PaymentPatch{
		Status:           &status,
		PaymentIntentID:  &intentID,
		CapturedAt:       &at,
		CompletionPhotos: photos,
		CompletionNotes:  &notes,
	}
}
