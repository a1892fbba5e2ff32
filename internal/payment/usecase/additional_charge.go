package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"sendahandyman-backend/internal/notification"
	"sendahandyman-backend/internal/payment/domain"
	taskDomain "sendahandyman-backend/internal/task/domain"
	taskRepository "sendahandyman-backend/internal/task/repository"
	"sendahandyman-backend/pkg/config"
	"sendahandyman-backend/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type additionalChargeUsecase struct {
	taskRepo taskRepository.TaskRepository
	gateway  domain.Gateway
	notifier notifier
	config   *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewAdditionalChargeUsecase(taskRepo taskRepository.TaskRepository, gateway domain.Gateway, n notification.Notifier, cfg *config.Config, logger *zap.Logger) AdditionalChargeUsecase {
	logger = logger.Named("additional_charge")
	return &additionalChargeUsecase{
		taskRepo: taskRepo,
		gateway:  gateway,
		notifier: notifier{Notifier: n, logger: logger},
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *additionalChargeUsecase) ChargeAdditional(ctx context.Context, req ChargeRequest) (*domain.ChargeResult, error) {
	if strings.TrimSpace(req.TaskID) == "" || !req.MaterialCosts.IsPositive() {
		return nil, domain.ErrInvalidRequest.WithDetail("Task ID and material costs are required")
	}
	travelFee := u.config.DefaultTravelFee
	if req.TravelFee != nil {
		travelFee = *req.TravelFee
	}
	if travelFee.IsNegative() {
		return nil, domain.ErrInvalidRequest.WithDetail("travel fee must not be negative")
	}

	task, err := u.taskRepo.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, storeFailure(domain.ErrTaskNotFound, err)
	}

	original, err := u.taskRepo.GetCapturedPayment(ctx, task.ID)
	if err != nil {
		return nil, storeFailure(domain.ErrOriginalPaymentNotFound, err)
	}
	if original.IntentID() == "" {
		return nil, domain.ErrOriginalPaymentNotFound.WithDetail("original payment %s has no payment intent", original.ID)
	}

	materialCosts := req.MaterialCosts.Round(2)
	travelFee = travelFee.Round(2)
	total := materialCosts.Add(travelFee)
	if err := u.checkCap(task, original, total); err != nil {
		return nil, err
	}

	originalHold, err := u.gateway.Get(ctx, original.IntentID())
	if err != nil {
		return nil, gatewayFailure(domain.ErrChargeFailed, err)
	}
	if !originalHold.HasSavedInstrument() {
		return nil, domain.ErrNoSavedInstrument.WithDetail("payment intent %s has no customer or payment method", originalHold.ID)
	}

	charge, err := u.gateway.ChargeNow(ctx, domain.ChargeParams{
		Amount:        money.ToMinor(total),
		Currency:      u.config.PaymentCurrency,
		CustomerID:    originalHold.CustomerID,
		PaymentMethod: originalHold.PaymentMethodID,
		Description:   "Additional materials for task " + task.TaskID,
		Metadata: map[string]string{
			"original_task_id":        task.ID,
			"original_payment_intent": originalHold.ID,
			"charge_type":             string(taskDomain.PaymentTypeAdditionalMaterials),
			"travel_fee":              travelFee.StringFixed(2),
			"material_costs":          materialCosts.StringFixed(2),
			"handyman_notes":          req.HandymanNotes,
			"customer_approved":       strconv.FormatBool(req.CustomerApproved),
		},
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		u.logger.Error("Additional charge failed", zap.String("task_id", task.ID), zap.Error(err))
		return nil, gatewayFailure(domain.ErrChargeFailed, err)
	}

	u.logger.Info("Additional materials charged",
		zap.String("task_id", task.ID),
		zap.String("payment_intent_id", charge.ID),
		zap.String("amount", total.StringFixed(2)),
	)

	result := &domain.ChargeResult{
		TaskID:           task.ID,
		PaymentIntentID:  charge.ID,
		AdditionalAmount: total,
		MaterialCosts:    materialCosts,
		TravelFee:        travelFee,
		NewTotal:         task.TotalAmount.Add(total),
	}

	u.record(ctx, task, charge, req, materialCosts, travelFee, total, result)

	u.notifier.alertOnBookkeeping(ctx, &result.Warnings, "Additional charge needs attention", map[string]string{
		"task_id":           task.ID,
		"task_number":       task.TaskID,
		"payment_intent_id": charge.ID,
	})

	u.notifier.send(ctx, &result.Warnings,
		notification.Message{
			Kind: notification.SMSAdditionalCharge,
			Payload: notification.Payload{
				"customer_phone":    task.CustomerPhone,
				"task_id":           task.TaskID,
				"additional_amount": total.StringFixed(2),
				"travel_fee":        travelFee.StringFixed(2),
				"material_costs":    materialCosts.StringFixed(2),
				"service_name":      task.TaskCategory,
				"customer_name":     task.CustomerName,
			},
		},
		notification.Message{
			Kind: notification.EmailAdditionalCharge,
			Payload: notification.Payload{
				"customer": map[string]string{
					"name":    task.CustomerName,
					"email":   task.CustomerEmail,
					"phone":   task.CustomerPhone,
					"address": task.CustomerAddress,
				},
				"task": map[string]string{
					"id":          task.TaskID,
					"category":    task.TaskCategory,
					"description": task.TaskDescription,
				},
				"additional_charge": map[string]interface{}{
					"total_amount":   total.StringFixed(2),
					"travel_fee":     travelFee.StringFixed(2),
					"material_costs": materialCosts.StringFixed(2),
					"receipts":       nonNil(req.MaterialReceipts),
				},
			},
		},
	)

	return result, nil
}

// record inserts the additional payment row and increments the task total.
// Each write is independent; failures become warnings.
func (u *additionalChargeUsecase) record(ctx context.Context, task *taskDomain.Task, charge *domain.Hold, req ChargeRequest, materialCosts, travelFee, total decimal.Decimal, result *domain.ChargeResult) {
	at := u.now()
	intentID := charge.ID
	payment := &taskDomain.Payment{
		TaskID:           task.ID,
		Amount:           total,
		PaymentIntentID:  &intentID,
		Status:           taskDomain.PaymentRecordCompleted,
		PaymentType:      taskDomain.PaymentTypeAdditionalMaterials,
		CapturedAt:       &at,
		TravelFee:        decimal.NewNullDecimal(travelFee),
		MaterialCosts:    decimal.NewNullDecimal(materialCosts),
		MaterialReceipts: datatypes.NewJSONSlice(nonNil(req.MaterialReceipts)),
		HandymanNotes:    req.HandymanNotes,
		CustomerApproved: req.CustomerApproved,
	}
	if err := u.taskRepo.CreatePayment(ctx, payment); err != nil {
		u.logger.Error("Failed to record additional payment",
			zap.String("task_id", task.ID),
			zap.String("payment_intent_id", charge.ID),
			zap.Error(err),
		)
		result.Warnings.Add(domain.StepRecordPayment, err)
	}

	if err := u.taskRepo.ApplyAdditionalCharge(ctx, task.ID, total, charge.ID); err != nil {
		u.logger.Error("Failed to update task with additional costs",
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		result.Warnings.Add(domain.StepIncrementTotal, err)
		return
	}

	// Concurrent charges may have landed too; report the stored total
	if updated, err := u.taskRepo.GetTask(ctx, task.ID); err == nil {
		result.NewTotal = updated.TotalAmount
	}
}

// checkCap enforces the optional ceiling on cumulative additional charges
// relative to the originally authorized amount.
func (u *additionalChargeUsecase) checkCap(task *taskDomain.Task, original *taskDomain.Payment, delta decimal.Decimal) error {
	ratio := u.config.AdditionalChargeCapRatio
	if !ratio.IsPositive() {
		return nil
	}
	limit := original.Amount.Mul(ratio).Round(2)
	already := task.TotalAmount.Sub(original.Amount)
	if already.IsNegative() {
		already = decimal.Zero
	}
	if already.Add(delta).GreaterThan(limit) {
		return domain.ErrChargeExceedsCap.WithDetail("additional charges of %s would exceed limit %s",
			already.Add(delta).StringFixed(2), limit.StringFixed(2))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
