package delivery

import (
	"errors"
	"net/http"
	"time"

	"sendahandyman-backend/internal/task/repository"
	"sendahandyman-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// CreateTaskRequest represents the booking form submitted after the card is authorized
type CreateTaskRequest struct {
	TaskID            string          `json:"task_id"`
	Name              string          `json:"name"`
	Phone             string          `json:"phone" binding:"required"`
	Email             string          `json:"email"`
	Address           string          `json:"address"`
	PropertyAddress   string          `json:"property_address"`
	Category          string          `json:"category" binding:"required"`
	Description       string          `json:"description"`
	Window            string          `json:"window"`
	EstimatedHours    *float64        `json:"estimated_hours"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ScheduledDate     *string         `json:"scheduled_date"`
	AccessDetails     string          `json:"access_details"`
	PetsAndSpecial    string          `json:"pets_and_special"`
	AdditionalDetails string          `json:"additional_details"`
	PaymentIntentID   string          `json:"payment_intent_id"`
}

// CreateTask books a task and records its authorization hold
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task data", "detail": err.Error()})
		return
	}

	address := req.Address
	if address == "" {
		address = req.PropertyAddress
	}

	input := usecase.BookingInput{
		CreateTaskInput: usecase.CreateTaskInput{
			TaskNumber:        req.TaskID,
			CustomerName:      req.Name,
			CustomerPhone:     req.Phone,
			CustomerEmail:     req.Email,
			CustomerAddress:   address,
			Category:          req.Category,
			Description:       req.Description,
			TimeWindow:        req.Window,
			EstimatedHours:    req.EstimatedHours,
			TotalAmount:       req.TotalAmount,
			AccessDetails:     req.AccessDetails,
			PetsAndSpecial:    req.PetsAndSpecial,
			AdditionalDetails: req.AdditionalDetails,
		},
		PaymentIntentID: req.PaymentIntentID,
	}
	if req.ScheduledDate != nil && *req.ScheduledDate != "" {
		if t, err := time.Parse("2006-01-02", *req.ScheduledDate); err == nil {
			input.ScheduledDate = &t
		}
	}

	result, err := h.taskUsecase.Book(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidTask):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task data", "detail": err.Error()})
		case errors.Is(err, repository.ErrDuplicateTaskID):
			c.JSON(http.StatusConflict, gin.H{"error": "Task already exists", "detail": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Task creation failed", "detail": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"task_id":     result.Task.ID,
		"task_number": result.Task.TaskID,
		"warnings":    result.Warnings,
		"message":     "Task created successfully",
	})
}

// GetTaskByID returns a task with its payments
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	details, err := h.taskUsecase.GetTaskWithPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, details)
}
