package repository

import (
	"context"
	"errors"

	"sendahandyman-backend/internal/task/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a task or payment row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTaskID is returned when the human-facing task_id is already taken
	ErrDuplicateTaskID = errors.New("duplicate task_id")
	// ErrOpenHoldExists is returned when a task already has a pending booking/quote payment
	ErrOpenHoldExists = errors.New("task already has an open payment hold")
)

// TaskRepository is the task and payment store. Every method is a single
// atomic statement; there are no multi-row transactions.
type TaskRepository interface {
	// CreateTask inserts a task, assigning the internal id. Fails with ErrDuplicateTaskID.
	CreateTask(ctx context.Context, task *domain.Task) error

	// GetTask finds a task by its internal id
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// UpdateTask applies a partial update, last write wins
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) error

	// ApplyAdditionalCharge increments total_amount and additional_materials_cost
	// by delta in one UPDATE and records the latest additional payment intent.
	ApplyAdditionalCharge(ctx context.Context, id string, delta decimal.Decimal, intentID string) error

	// CreatePayment inserts a payment row. Fails with ErrOpenHoldExists when
	// a second open hold is created for the same task.
	CreatePayment(ctx context.Context, payment *domain.Payment) error

	// GetOpenPayment returns the pending booking/quote payment for a task
	GetOpenPayment(ctx context.Context, taskID string) (*domain.Payment, error)

	// GetCapturedPayment returns the completed booking/quote payment for a task
	GetCapturedPayment(ctx context.Context, taskID string) (*domain.Payment, error)

	// ListPayments returns every payment for a task, oldest first
	ListPayments(ctx context.Context, taskID string) ([]*domain.Payment, error)

	// UpdatePayment applies a partial update, last write wins
	UpdatePayment(ctx context.Context, id string, patch domain.PaymentPatch) error
}
