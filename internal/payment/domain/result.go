package domain

import (
	"github.com/shopspring/decimal"
)

// Warning records a non-fatal failure that happened after the money movement
// succeeded. The operation still reports success.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Warnings accumulates partial-success warnings for a result.
type Warnings []Warning

func (w *Warnings) Add(step string, err error) {
	*w = append(*w, Warning{Step: step, Message: err.Error()})
}

func (w Warnings) Has(step string) bool {
	for _, warn := range w {
		if warn.Step == step {
			return true
		}
	}
	return false
}

// Warning steps
const (
	StepUpdatePayment  = "update_payment"
	StepUpdateTask     = "update_task"
	StepRecordPayment  = "record_payment"
	StepIncrementTotal = "increment_total"
	StepMarkQuotePaid  = "mark_quote_paid"
	StepCreateTask     = "create_task"
	StepAmbiguousHold  = "ambiguous_hold_match"
	StepNotifySMS      = "notify_sms"
	StepNotifyEmail    = "notify_email"
	StepAlertAdmins    = "alert_admins"
)

// CaptureOutcome distinguishes a fresh capture from a retry of one that already happened
type CaptureOutcome string

const (
	OutcomeCaptured         CaptureOutcome = "captured"
	OutcomeAlreadyProcessed CaptureOutcome = "already_processed"
)

// HoldSource tells how a hold was located
type HoldSource string

const (
	SourceStoredReference HoldSource = "stored_reference"
	SourceHeuristicMatch  HoldSource = "heuristic_match"
)

// CaptureResult is returned by a capture, including retries of a completed capture.
type CaptureResult struct {
	Outcome         CaptureOutcome
	TaskID          string
	TaskNumber      string
	PaymentIntentID string
	AmountCaptured  decimal.Decimal
	Source          HoldSource
	Warnings        Warnings
}

// ChargeResult is returned by an additional charge.
type ChargeResult struct {
	TaskID           string
	PaymentIntentID  string
	AdditionalAmount decimal.Decimal
	MaterialCosts    decimal.Decimal
	TravelFee        decimal.Decimal
	NewTotal         decimal.Decimal
	Warnings         Warnings
}

// QuoteResult is returned by a quote checkout. When RequiresAction is set the
// client must complete step-up authentication with ClientSecret and nothing
// was booked yet.
type QuoteResult struct {
	RequiresAction  bool
	PaymentIntentID string
	ClientSecret    string
	TaskID          string
	TaskNumber      string
	Amount          decimal.Decimal
	Service         string
	Warnings        Warnings
}
