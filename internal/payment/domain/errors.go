package domain

import (
	"fmt"
)

// Kind classifies an error for propagation and HTTP mapping
type Kind string

const (
	KindValidation Kind = "validation" // malformed input, never retried
	KindNotFound   Kind = "not_found"  // task/payment/quote/hold absent
	KindConflict   Kind = "conflict"   // state no longer allows the operation
	KindGateway    Kind = "gateway"    // processor rejected the operation
	KindTimeout    Kind = "timeout"    // outcome unknown, reconcile before retrying
	KindInternal   Kind = "internal"
)

// Error is the error type returned by payment usecases. Code is stable and
// machine-readable; Message is the short user-facing text.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinel errors work with errors.Is after WithDetail/Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy carrying machine-oriented detail.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	cp := *e
	cp.Detail = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy with err as cause; err's text becomes the detail when none is set.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	if cp.Detail == "" && err != nil {
		cp.Detail = err.Error()
	}
	return &cp
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidRequest = newError(KindValidation, "invalid_request", "Invalid request")

	ErrTaskNotFound            = newError(KindNotFound, "task_not_found", "Task not found")
	ErrPaymentRecordMissing    = newError(KindNotFound, "payment_record_missing", "Payment record not found or already processed")
	ErrNoCapturableHold        = newError(KindNotFound, "no_capturable_hold", "No authorized payment found for this task. Payment may have expired.")
	ErrOriginalPaymentNotFound = newError(KindNotFound, "original_payment_not_found", "Original payment not found")
	ErrQuoteNotFound           = newError(KindNotFound, "quote_not_found", "Quote not found")

	ErrQuoteUnavailable  = newError(KindValidation, "quote_unavailable", "Quote is no longer available")
	ErrQuoteExpired      = newError(KindValidation, "quote_expired", "Quote has expired")
	ErrNoSavedInstrument = newError(KindValidation, "no_saved_instrument", "Unable to charge: no saved payment method found")
	ErrChargeExceedsCap  = newError(KindValidation, "charge_exceeds_cap", "Additional charge exceeds the allowed limit")

	ErrGatewayDeclined   = newError(KindGateway, "gateway_declined", "Payment processing failed")
	ErrCaptureFailed     = newError(KindGateway, "capture_failed", "Payment capture failed")
	ErrChargeFailed      = newError(KindGateway, "charge_failed", "Additional materials charge failed")
	ErrGatewayTimeout    = newError(KindTimeout, "gateway_timeout", "Payment processor did not respond; the outcome is unknown")
	ErrStoreUnavailable  = newError(KindInternal, "store_unavailable", "Database error")
	ErrAuthorizationFail = newError(KindGateway, "authorization_failed", "Payment authorization failed")
)
