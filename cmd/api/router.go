package api

import (
	"net/http"

	authDelivery "sendahandyman-backend/internal/auth/delivery"
	authUsecase "sendahandyman-backend/internal/auth/usecase"
	paymentDelivery "sendahandyman-backend/internal/payment/delivery"
	quoteDelivery "sendahandyman-backend/internal/quote/delivery"
	taskDelivery "sendahandyman-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUsecase authUsecase.AuthUsecase,
	taskHandler *taskDelivery.TaskHandler,
	paymentHandler *paymentDelivery.PaymentHandler,
	quoteHandler *quoteDelivery.QuoteHandler,
	deviceHandler *authDelivery.DeviceHandler,
) {
	admin := authDelivery.AdminMiddleware(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Booking routes (public booking form, admin lookup)
		tasks := api.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", admin, taskHandler.GetTaskByID)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/intent", paymentHandler.CreateIntent)
			payments.POST("/capture", admin, paymentHandler.Capture)
			payments.POST("/additional-charge", admin, paymentHandler.AdditionalCharge)
			payments.GET("/:task_id/reconcile", admin, paymentHandler.Reconcile)
		}

		quotes := api.Group("/quotes")
		{
			quotes.POST("", admin, quoteHandler.CreateQuote)
			quotes.POST("/checkout", paymentHandler.QuoteCheckout)
			quotes.GET("/:token", quoteHandler.GetQuote)
		}

		// Admin alert devices (protected)
		devices := api.Group("/admin/devices")
		devices.Use(admin)
		{
			devices.POST("", deviceHandler.RegisterDevice)
			devices.DELETE("/:token", deviceHandler.UnregisterDevice)
		}
	}
}
