package delivery

import (
	"errors"
	"net/http"

	"sendahandyman-backend/internal/payment/domain"
	"sendahandyman-backend/internal/payment/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles the payment lifecycle endpoints
type PaymentHandler struct {
	intentUsecase   usecase.IntentUsecase
	captureUsecase  usecase.CaptureUsecase
	chargeUsecase   usecase.AdditionalChargeUsecase
	checkoutUsecase usecase.QuoteCheckoutUsecase
}

func NewPaymentHandler(intentUc usecase.IntentUsecase, captureUc usecase.CaptureUsecase, chargeUc usecase.AdditionalChargeUsecase, checkoutUc usecase.QuoteCheckoutUsecase) *PaymentHandler {
	return &PaymentHandler{
		intentUsecase:   intentUc,
		captureUsecase:  captureUc,
		chargeUsecase:   chargeUc,
		checkoutUsecase: checkoutUc,
	}
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type JobDetails struct {
	Category string `json:"category"`
	Window   string `json:"window"`
	Hours    string `json:"hours"`
}

type CreateIntentRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	CustomerInfo CustomerInfo    `json:"customer_info"`
	JobDetails   JobDetails      `json:"job_details"`
}

type CaptureRequest struct {
	TaskID           string   `json:"task_id" binding:"required"`
	CompletionPhotos []string `json:"completion_photos"`
	CompletionNotes  string   `json:"completion_notes"`
}

type AdditionalChargeRequest struct {
	TaskID           string           `json:"task_id" binding:"required"`
	MaterialCosts    decimal.Decimal  `json:"material_costs"`
	TravelFee        *decimal.Decimal `json:"travel_fee"`
	MaterialReceipts []string         `json:"material_receipts"`
	HandymanNotes    string           `json:"handyman_notes"`
	CustomerApproved bool             `json:"customer_approved"`
}

type QuoteCheckoutRequest struct {
	QuoteToken       string `json:"quote_token" binding:"required"`
	PaymentMethodID  string `json:"payment_method_id" binding:"required"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	CustomerEmail    string `json:"customer_email"`
	CustomerAddress  string `json:"customer_address"`
	TimingPreference string `json:"timing_preference"`
}

// CreateIntent starts a booking authorization
// POST /api/payments/intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidRequest.WithDetail("%s", err.Error()))
		return
	}

	result, err := h.intentUsecase.CreateBookingIntent(c.Request.Context(), usecase.IntentRequest{
		Amount:          req.Amount,
		CustomerName:    req.CustomerInfo.Name,
		CustomerEmail:   req.CustomerInfo.Email,
		CustomerPhone:   req.CustomerInfo.Phone,
		ServiceCategory: req.JobDetails.Category,
		ServiceWindow:   req.JobDetails.Window,
		EstimatedHours:  req.JobDetails.Hours,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret":     result.ClientSecret,
		"payment_intent_id": result.PaymentIntentID,
	})
}

// Capture settles a completed task's authorization hold
// POST /api/payments/capture
func (h *PaymentHandler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidRequest.WithDetail("Task ID is required"))
		return
	}

	result, err := h.captureUsecase.Capture(c.Request.Context(), usecase.CaptureRequest{
		TaskID:           req.TaskID,
		CompletionPhotos: req.CompletionPhotos,
		CompletionNotes:  req.CompletionNotes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	message := "Payment captured successfully"
	if result.Outcome == domain.OutcomeAlreadyProcessed {
		message = "Payment was already captured"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"outcome":           result.Outcome,
		"payment_intent_id": result.PaymentIntentID,
		"amount_captured":   result.AmountCaptured.StringFixed(2),
		"source":            result.Source,
		"task_id":           result.TaskID,
		"task_number":       result.TaskNumber,
		"warnings":          warnings(result.Warnings),
		"message":           message,
	})
}

// AdditionalCharge charges the saved card for materials and travel
// POST /api/payments/additional-charge
func (h *PaymentHandler) AdditionalCharge(c *gin.Context) {
	var req AdditionalChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidRequest.WithDetail("Task ID and material costs are required"))
		return
	}

	result, err := h.chargeUsecase.ChargeAdditional(c.Request.Context(), usecase.ChargeRequest{
		TaskID:           req.TaskID,
		MaterialCosts:    req.MaterialCosts,
		TravelFee:        req.TravelFee,
		MaterialReceipts: req.MaterialReceipts,
		HandymanNotes:    req.HandymanNotes,
		CustomerApproved: req.CustomerApproved,
		IdempotencyKey:   c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"payment_intent_id": result.PaymentIntentID,
		"additional_amount": result.AdditionalAmount.StringFixed(2),
		"travel_fee":        result.TravelFee.StringFixed(2),
		"material_costs":    result.MaterialCosts.StringFixed(2),
		"new_total":         result.NewTotal.StringFixed(2),
		"task_id":           result.TaskID,
		"warnings":          warnings(result.Warnings),
		"message":           "Additional materials charged successfully",
	})
}

// Reconcile reports the hold state of a task without moving money
// GET /api/payments/:task_id/reconcile
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	report, err := h.captureUsecase.Reconcile(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"task_id":          report.Task.ID,
		"task_number":      report.Task.TaskID,
		"state":            report.State,
		"task_status":      report.Task.Status,
		"payment_status":   report.Task.PaymentStatus,
		"open_payment":     report.OpenPayment,
		"captured_payment": report.CapturedPayment,
		"checked_at":       report.CheckedAt,
	}
	if report.Hold != nil {
		resp["hold"] = gin.H{
			"id":              report.Hold.ID,
			"status":          report.Hold.Status,
			"amount":          report.Hold.Amount,
			"amount_received": report.Hold.AmountReceived,
			"source":          report.Source,
			"candidates":      report.Candidates,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// QuoteCheckout authorizes a quote and books the task
// POST /api/quotes/checkout
func (h *PaymentHandler) QuoteCheckout(c *gin.Context) {
	var req QuoteCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidRequest.WithDetail("Quote token and payment method are required"))
		return
	}

	result, err := h.checkoutUsecase.PayQuote(c.Request.Context(), usecase.QuoteCheckoutRequest{
		QuoteToken:       req.QuoteToken,
		PaymentMethodID:  req.PaymentMethodID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		CustomerAddress:  req.CustomerAddress,
		TimingPreference: req.TimingPreference,
		ReturnOrigin:     c.GetHeader("Origin"),
		IdempotencyKey:   c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if result.RequiresAction {
		c.JSON(http.StatusOK, gin.H{
			"requires_action": true,
			"payment_intent": gin.H{
				"id":            result.PaymentIntentID,
				"client_secret": result.ClientSecret,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"payment_intent_id": result.PaymentIntentID,
		"task_id":           result.TaskNumber,
		"task_uuid":         result.TaskID,
		"amount":            result.Amount.StringFixed(2),
		"service":           result.Service,
		"warnings":          warnings(result.Warnings),
		"message":           "Payment authorized! Funds are held on your card and your handyman service has been booked.",
	})
}

// writeError maps domain errors to HTTP responses. Every error body carries
// error, detail and code.
func writeError(c *gin.Context, err error) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		dErr = domain.ErrStoreUnavailable.Wrap(err)
		dErr.Message = "Internal error"
	}

	c.JSON(statusFor(dErr), gin.H{
		"error":  dErr.Message,
		"detail": dErr.Detail,
		"code":   dErr.Code,
	})
}

func statusFor(e *domain.Error) int {
	switch e.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindGateway:
		var gwErr *domain.GatewayError
		if errors.As(e, &gwErr) && gwErr.StatusCode >= 500 {
			return http.StatusBadGateway
		}
		if errors.As(e, &gwErr) && gwErr.Code == "card_declined" {
			return http.StatusPaymentRequired
		}
		if e.Code == domain.ErrCaptureFailed.Code || e.Code == domain.ErrChargeFailed.Code {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func warnings(w domain.Warnings) domain.Warnings {
	if w == nil {
		return domain.Warnings{}
	}
	return w
}
