package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HoldStatus mirrors the processor's payment intent states
type HoldStatus string

const (
	HoldRequiresCapture       HoldStatus = "requires_capture"
	HoldSucceeded             HoldStatus = "succeeded"
	HoldCanceled              HoldStatus = "canceled"
	HoldRequiresAction        HoldStatus = "requires_action"
	HoldRequiresPaymentMethod HoldStatus = "requires_payment_method"
	HoldRequiresConfirmation  HoldStatus = "requires_confirmation"
	HoldProcessing            HoldStatus = "processing"
)

// Metadata keys written on authorizations and read back by the reconciler
const (
	MetaCustomerName  = "customer_name"
	MetaCustomerEmail = "customer_email"
	MetaCustomerPhone = "customer_phone"
)

// Hold is a processor-side payment intent: an authorization hold, a captured
// payment or an immediate charge. Amount is in minor units.
type Hold struct {
	ID              string
	Amount          int64
	AmountReceived  int64
	Currency        string
	Status          HoldStatus
	CustomerID      string
	PaymentMethodID string
	ClientSecret    string
	Metadata        map[string]string
	Created         time.Time
}

func (h *Hold) CustomerName() string  { return h.Metadata[MetaCustomerName] }
func (h *Hold) CustomerEmail() string { return h.Metadata[MetaCustomerEmail] }

// Capturable reports whether the hold can still be captured.
func (h *Hold) Capturable() bool {
	return h.Status == HoldRequiresCapture
}

// HasSavedInstrument reports whether the hold carries a customer and payment
// method that a later merchant-initiated charge can reuse.
func (h *Hold) HasSavedInstrument() bool {
	return h.CustomerID != "" && h.PaymentMethodID != ""
}

// CustomerDetails identifies the payer the processor attaches the hold to
type CustomerDetails struct {
	Name  string
	Email string
	Phone string
}

// AuthorizeParams creates a manual-capture hold. When PaymentMethod is empty
// the hold is left unconfirmed for the client to confirm with ClientSecret.
// A non-nil Customer saves the payment method to that customer for later
// off-session charges.
type AuthorizeParams struct {
	Amount         int64
	Currency       string
	PaymentMethod  string
	Customer       *CustomerDetails
	Description    string
	ReturnURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

// CaptureParams captures a hold. Zero AmountToCapture captures the full hold.
type CaptureParams struct {
	AmountToCapture int64
	Metadata        map[string]string
}

// ChargeParams creates and confirms an immediate, merchant-initiated charge.
type ChargeParams struct {
	Amount         int64
	Currency       string
	CustomerID     string
	PaymentMethod  string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// Gateway is the payment processor contract the orchestrators depend on.
type Gateway interface {
	Authorize(ctx context.Context, params AuthorizeParams) (*Hold, error)
	Capture(ctx context.Context, holdID string, params CaptureParams) (*Hold, error)
	ChargeNow(ctx context.Context, params ChargeParams) (*Hold, error)
	Get(ctx context.Context, holdID string) (*Hold, error)
	// ListRecent returns up to limit holds, most recent first
	ListRecent(ctx context.Context, limit int) ([]*Hold, error)
}

var (
	// ErrGatewayTimeoutUnknown marks a call whose outcome is unknown
	ErrGatewayTimeoutUnknown = errors.New("gateway call timed out")
	// ErrHoldNotFound is returned by Get for unknown ids
	ErrHoldNotFound = errors.New("hold not found")
)

// GatewayError is a rejection reported by the processor
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
	}
	return "gateway error: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayTimeout reports whether err leaves the outcome of a gateway call unknown.
func IsGatewayTimeout(err error) bool {
	return errors.Is(err, ErrGatewayTimeoutUnknown) || errors.Is(err, context.DeadlineExceeded)
}
