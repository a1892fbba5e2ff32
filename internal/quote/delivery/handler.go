package delivery

import (
	"errors"
	"net/http"

	authDelivery "sendahandyman-backend/internal/auth/delivery"
	"sendahandyman-backend/internal/quote/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// QuoteHandler handles quote creation and lookup
type QuoteHandler struct {
	quoteUsecase usecase.QuoteUsecase
}

func NewQuoteHandler(quoteUsecase usecase.QuoteUsecase) *QuoteHandler {
	return &QuoteHandler{quoteUsecase: quoteUsecase}
}

type CreateQuoteRequest struct {
	CustomerName   string          `json:"customer_name" binding:"required"`
	CustomerPhone  string          `json:"customer_phone" binding:"required"`
	CustomerEmail  string          `json:"customer_email"`
	ServiceType    string          `json:"service_type" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	EstimatedHours *float64        `json:"estimated_hours"`
	ExpiryDays     int             `json:"expiry_days"`
}

// CreateQuote mints a quote link for a customer
// POST /api/quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": usecase.ErrInvalidRequest.Error(), "detail": err.Error()})
		return
	}

	createdBy := "admin"
	if admin := authDelivery.CurrentAdmin(c); admin != nil {
		createdBy = admin.Email
	}

	created, err := h.quoteUsecase.CreateQuote(c.Request.Context(), usecase.CreateQuoteInput{
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		ServiceType:    req.ServiceType,
		Amount:         req.Amount,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		ExpiryDays:     req.ExpiryDays,
		CreatedBy:      createdBy,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quote", "detail": err.Error()})
		return
	}

	q := created.Quote
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"quote_id":      q.QuoteID,
		"quote_token":   created.Token,
		"quote_url":     created.URL,
		"expires_at":    q.ExpiresAt,
		"customer_name": q.CustomerName,
		"service_type":  q.ServiceType,
		"amount":        q.CustomAmount,
		"message":       "Quote created successfully",
	})
}

// GetQuote returns a redeemable quote to the customer
// GET /api/quotes/:token
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	view, err := h.quoteUsecase.GetQuote(c.Request.Context(), c.Param("token"))
	if err != nil {
		var expired *usecase.ExpiredError
		switch {
		case errors.Is(err, usecase.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote token"})
		case errors.Is(err, usecase.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		case errors.As(err, &expired):
			c.JSON(http.StatusGone, gin.H{"error": "Quote has expired", "expired": true, "expires_at": expired.ExpiresAt})
		case errors.Is(err, usecase.ErrAlreadyUsed):
			c.JSON(http.StatusGone, gin.H{"error": "Quote has already been used", "already_paid": true})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve quote", "detail": err.Error()})
		}
		return
	}

	q := view.Quote
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"quote": gin.H{
			"quote_id":          q.QuoteID,
			"customer_name":     q.CustomerName,
			"customer_phone":    q.CustomerPhone,
			"customer_email":    q.CustomerEmail,
			"service_type":      q.ServiceType,
			"amount":            q.CustomAmount,
			"description":       q.Description,
			"expires_at":        q.ExpiresAt,
			"created_at":        q.CreatedAt,
			"days_until_expiry": view.DaysUntilExpiry,
		},
	})
}
