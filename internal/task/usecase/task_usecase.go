package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sendahandyman-backend/internal/notification"
	paymentDomain "sendahandyman-backend/internal/payment/domain"
	"sendahandyman-backend/internal/task/domain"
	"sendahandyman-backend/internal/task/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// bookingHoldWindow is how long a booking hold is expected to stay capturable
	bookingHoldWindow = 48 * time.Hour
	bookingHoldReason = "Authorization hold - awaiting service completion"

	taskNumberAttempts = 3
)

type taskUsecase struct {
	taskRepo   repository.TaskRepository
	dispatcher notification.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository, dispatcher notification.Dispatcher, logger *zap.Logger) TaskUsecase {
	return &taskUsecase{
		taskRepo:   taskRepo,
		dispatcher: dispatcher,
		logger:     logger.Named("task"),
		now:        time.Now,
	}
}

func (u *taskUsecase) CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return nil, fmt.Errorf("%w: customer phone is required", ErrInvalidTask)
	}
	if !input.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidTask)
	}

	scheduled := input.ScheduledDate
	if scheduled == nil {
		today := u.now().Truncate(24 * time.Hour)
		scheduled = &today
	}

	generated := input.TaskNumber == ""
	for attempt := 1; ; attempt++ {
		task := &domain.Task{
			TaskID:          input.TaskNumber,
			CustomerName:    input.CustomerName,
			CustomerPhone:   input.CustomerPhone,
			CustomerEmail:   input.CustomerEmail,
			CustomerAddress: input.CustomerAddress,
			TaskCategory:    input.Category,
			TaskDescription: input.Description,
			ScheduledDate:   scheduled,
			TimeWindow:      input.TimeWindow,
			EstimatedHours:  input.EstimatedHours,
			TotalAmount:     input.TotalAmount.Round(2),
			Notes:           bookingNotes(input),
			Status:          domain.TaskStatusPending,
			PaymentStatus:   domain.PaymentStatusAuthorized,
		}
		if generated {
			task.TaskID = u.newTaskNumber()
		}

		err := u.taskRepo.CreateTask(ctx, task)
		if err == nil {
			u.logger.Info("Task created",
				zap.String("task_id", task.ID),
				zap.String("task_number", task.TaskID),
				zap.String("category", task.TaskCategory),
				zap.String("total_amount", task.TotalAmount.StringFixed(2)),
			)
			return task, nil
		}
		if !generated || !errors.Is(err, repository.ErrDuplicateTaskID) || attempt == taskNumberAttempts {
			return nil, err
		}
		u.logger.Warn("Generated task number collided, retrying", zap.String("task_number", task.TaskID))
	}
}

func (u *taskUsecase) RecordAuthorization(ctx context.Context, taskID string, auth Authorization) (*domain.Payment, error) {
	if !auth.Type.IsHold() {
		return nil, fmt.Errorf("%w: payment type %q is not an authorization", ErrInvalidTask, auth.Type)
	}

	payment := &domain.Payment{
		TaskID:      taskID,
		Amount:      auth.Amount.Round(2),
		Status:      domain.PaymentRecordPending,
		PaymentType: auth.Type,
		HoldReason:  auth.HoldReason,
		HoldUntil:   auth.HoldUntil,
	}
	if auth.PaymentIntentID != "" {
		id := auth.PaymentIntentID
		payment.PaymentIntentID = &id
	}
	if auth.QuoteID != "" {
		id := auth.QuoteID
		payment.QuoteID = &id
	}

	if err := u.taskRepo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (u *taskUsecase) Book(ctx context.Context, input BookingInput) (*BookingResult, error) {
	task, err := u.CreateTask(ctx, input.CreateTaskInput)
	if err != nil {
		return nil, err
	}

	result := &BookingResult{Task: task}

	holdUntil := u.now().Add(bookingHoldWindow)
	payment, err := u.RecordAuthorization(ctx, task.ID, Authorization{
		Amount:          task.TotalAmount,
		PaymentIntentID: input.PaymentIntentID,
		Type:            domain.PaymentTypeBooking,
		HoldReason:      bookingHoldReason,
		HoldUntil:       &holdUntil,
	})
	if err != nil {
		// The task exists and capture can still resolve the hold heuristically
		u.logger.Error("Payment record creation failed", zap.String("task_id", task.ID), zap.Error(err))
		result.Warnings.Add(paymentDomain.StepRecordPayment, err)
	} else {
		result.Payment = payment
	}

	errs := notification.DispatchAll(ctx, u.dispatcher,
		notification.Message{
			Channel: notification.ChannelSMS,
			Kind:    notification.SMSBookingConfirmation,
			Payload: notification.Payload{
				"customer_phone": task.CustomerPhone,
				"customer_name":  task.CustomerName,
				"service_name":   task.TaskCategory,
				"amount":         task.TotalAmount.StringFixed(2),
				"task_id":        task.TaskID,
			},
		},
		notification.Message{
			Channel: notification.ChannelEmail,
			Kind:    notification.EmailBookingConfirmation,
			Payload: notification.Payload{
				"customer": map[string]string{
					"name":  task.CustomerName,
					"email": task.CustomerEmail,
					"phone": task.CustomerPhone,
				},
				"task": map[string]string{
					"id":       task.TaskID,
					"category": task.TaskCategory,
					"window":   task.TimeWindow,
					"amount":   task.TotalAmount.StringFixed(2),
				},
			},
		},
	)
	u.collectNotifyWarnings(&result.Warnings, task.ID, errs)

	return result, nil
}

func (u *taskUsecase) GetTaskWithPayments(ctx context.Context, id string) (*TaskDetails, error) {
	task, err := u.taskRepo.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	payments, err := u.taskRepo.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TaskDetails{Task: task, Payments: payments}, nil
}

func (u *taskUsecase) collectNotifyWarnings(w *paymentDomain.Warnings, taskID string, errs []error) {
	steps := []string{paymentDomain.StepNotifySMS, paymentDomain.StepNotifyEmail}
	for i, err := range errs {
		if err == nil {
			continue
		}
		u.logger.Warn("Booking notification failed", zap.String("task_id", taskID), zap.String("step", steps[i]), zap.Error(err))
		w.Add(steps[i], err)
	}
}

// newTaskNumber returns a human-facing booking number like TASK-1718000000000-3f2a9c1e
func (u *taskUsecase) newTaskNumber() string {
	return fmt.Sprintf("TASK-%d-%s", u.now().UnixMilli(), uuid.NewString()[:8])
}

func bookingNotes(input CreateTaskInput) string {
	return fmt.Sprintf("Access: %s | Pets: %s | Additional: %s",
		orNA(input.AccessDetails), orNA(input.PetsAndSpecial), orNA(input.AdditionalDetails))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
