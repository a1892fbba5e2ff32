package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sendahandyman-backend/internal/task/domain"
	"sendahandyman-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// openHoldIndexSQL enforces at most one pending booking/quote payment per task.
const openHoldIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_open_hold
	ON payments (task_id)
	WHERE status = 'pending' AND payment_type IN ('booking', 'quote_payment')`

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

// Migrate creates the tasks and payments tables and the open-hold index
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Task{}, &domain.Payment{}); err != nil {
		return fmt.Errorf("auto-migrate tasks/payments: %w", err)
	}
	if err := db.Exec(openHoldIndexSQL).Error; err != nil {
		return fmt.Errorf("create open hold index: %w", err)
	}
	return nil
}

func (r *gormTaskRepository) CreateTask(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.PaymentStatus == "" {
		task.PaymentStatus = domain.PaymentStatusAuthorized
	}

	err := r.db.WithContext(ctx).Create(task).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateTaskID, task.TaskID)
	}
	return err
}

func (r *gormTaskRepository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil
	}
	cols["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTaskRepository) ApplyAdditionalCharge(ctx context.Context, id string, delta decimal.Decimal, intentID string) error {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_amount":                 gorm.Expr("total_amount + ?", delta),
			"additional_materials_cost":    gorm.Expr("additional_materials_cost + ?", delta),
			"additional_payment_intent_id": intentID,
			"updated_at":                   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTaskRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = domain.PaymentRecordPending
	}
	if payment.PaymentType == "" {
		payment.PaymentType = domain.PaymentTypeBooking
	}

	err := r.db.WithContext(ctx).Create(payment).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: task %s", ErrOpenHoldExists, payment.TaskID)
	}
	return err
}

func (r *gormTaskRepository) GetOpenPayment(ctx context.Context, taskID string) (*domain.Payment, error) {
	return r.findHold(ctx, taskID, domain.PaymentRecordPending)
}

func (r *gormTaskRepository) GetCapturedPayment(ctx context.Context, taskID string) (*domain.Payment, error) {
	return r.findHold(ctx, taskID, domain.PaymentRecordCompleted)
}

func (r *gormTaskRepository) findHold(ctx context.Context, taskID string, status domain.PaymentRecordStatus) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND status = ? AND payment_type IN ?", taskID, status, domain.HoldPaymentTypes).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *gormTaskRepository) ListPayments(ctx context.Context, taskID string) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&payments).Error
	return payments, err
}

func (r *gormTaskRepository) UpdatePayment(ctx context.Context, id string, patch domain.PaymentPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil
	}
	cols["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
