package usecase

import (
	"context"
	"errors"
	"time"

	paymentDomain "sendahandyman-backend/internal/payment/domain"
	"sendahandyman-backend/internal/task/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTask  = errors.New("invalid task")
	ErrTaskNotFound = errors.New("task not found")
)

// TaskUsecase defines the booking contract. Normal bookings and quote
// checkouts both create tasks through it so capture sees one shape.
type TaskUsecase interface {
	// CreateTask inserts a pending, authorized task. A task number is
	// generated when input.TaskNumber is empty.
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)

	// RecordAuthorization creates the task's single open hold payment
	RecordAuthorization(ctx context.Context, taskID string, auth Authorization) (*domain.Payment, error)

	// Book creates the task and its booking payment and sends the confirmation
	Book(ctx context.Context, input BookingInput) (*BookingResult, error)

	GetTaskWithPayments(ctx context.Context, id string) (*TaskDetails, error)
}

// CreateTaskInput represents the customer-facing booking fields
type CreateTaskInput struct {
	TaskNumber        string
	CustomerName      string
	CustomerPhone     string
	CustomerEmail     string
	CustomerAddress   string
	Category          string
	Description       string
	TimeWindow        string
	EstimatedHours    *float64
	TotalAmount       decimal.Decimal
	ScheduledDate     *time.Time
	AccessDetails     string
	PetsAndSpecial    string
	AdditionalDetails string
}

// Authorization links a gateway hold to a task
type Authorization struct {
	Amount          decimal.Decimal
	PaymentIntentID string // empty when the client did not report it
	Type            domain.PaymentType
	QuoteID         string
	HoldReason      string
	HoldUntil       *time.Time
}

type BookingInput struct {
	CreateTaskInput
	PaymentIntentID string
}

type BookingResult struct {
	Task     *domain.Task
	Payment  *domain.Payment
	Warnings paymentDomain.Warnings
}

type TaskDetails struct {
	Task     *domain.Task      `json:"task"`
	Payments []*domain.Payment `json:"payments"`
}
