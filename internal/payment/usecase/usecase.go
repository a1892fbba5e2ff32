package usecase

import (
	"context"
	"time"

	"sendahandyman-backend/internal/payment/domain"
	quoteDomain "sendahandyman-backend/internal/quote/domain"
	taskDomain "sendahandyman-backend/internal/task/domain"
	taskUsecase "sendahandyman-backend/internal/task/usecase"

	"github.com/shopspring/decimal"
)

// HoldResolver locates the gateway hold backing a task's open payment
type HoldResolver interface {
	Resolve(ctx context.Context, task *taskDomain.Task, payment *taskDomain.Payment) (*Resolution, error)
}

// CaptureUsecase converts a task's authorization hold into a payment at completion
type CaptureUsecase interface {
	Capture(ctx context.Context, req CaptureRequest) (*domain.CaptureResult, error)
	// Reconcile reports hold and bookkeeping state without moving money
	Reconcile(ctx context.Context, taskID string) (*ReconcileReport, error)
}

// AdditionalChargeUsecase charges the saved instrument of a completed task again
type AdditionalChargeUsecase interface {
	ChargeAdditional(ctx context.Context, req ChargeRequest) (*domain.ChargeResult, error)
}

// QuoteCheckoutUsecase redeems a quote by authorizing its amount and booking the task
type QuoteCheckoutUsecase interface {
	PayQuote(ctx context.Context, req QuoteCheckoutRequest) (*domain.QuoteResult, error)
}

// IntentUsecase creates the unconfirmed authorization a booking form confirms client-side
type IntentUsecase interface {
	CreateBookingIntent(ctx context.Context, req IntentRequest) (*IntentResult, error)
}

// TaskBooker is the booking contract shared with normal bookings
type TaskBooker interface {
	CreateTask(ctx context.Context, input taskUsecase.CreateTaskInput) (*taskDomain.Task, error)
	RecordAuthorization(ctx context.Context, taskID string, auth taskUsecase.Authorization) (*taskDomain.Payment, error)
}

// QuoteStore is the part of the quote repository checkout needs
type QuoteStore interface {
	FindByToken(ctx context.Context, token string) (*quoteDomain.Quote, error)
	MarkPaid(ctx context.Context, token string, r quoteDomain.Redemption) error
	MarkExpired(ctx context.Context, token string) error
}

type CaptureRequest struct {
	TaskID           string
	CompletionPhotos []string
	CompletionNotes  string
}

type ChargeRequest struct {
	TaskID           string
	MaterialCosts    decimal.Decimal
	TravelFee        *decimal.Decimal // nil uses the configured default
	MaterialReceipts []string
	HandymanNotes    string
	CustomerApproved bool
	IdempotencyKey   string
}

type QuoteCheckoutRequest struct {
	QuoteToken       string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	CustomerAddress  string
	TimingPreference string
	PaymentMethodID  string
	ReturnOrigin     string
	IdempotencyKey   string
}

type IntentRequest struct {
	Amount          decimal.Decimal
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ServiceCategory string
	ServiceWindow   string
	EstimatedHours  string
}

type IntentResult struct {
	PaymentIntentID string
	ClientSecret    string
}

// ReconcileState summarizes what an operator should do for a task
type ReconcileState string

const (
	StateCapturable       ReconcileState = "capturable"
	StateCaptured         ReconcileState = "captured"
	StateBookkeepingStale ReconcileState = "bookkeeping_stale" // gateway captured, store still pending
	StateNoCapturableHold ReconcileState = "no_capturable_hold"
	StateNoPayment        ReconcileState = "no_payment_record"
)

type ReconcileReport struct {
	Task            *taskDomain.Task
	OpenPayment     *taskDomain.Payment
	CapturedPayment *taskDomain.Payment
	Hold            *domain.Hold
	Source          domain.HoldSource
	Candidates      int
	State           ReconcileState
	CheckedAt       time.Time
}
