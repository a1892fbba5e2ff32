package api

import (
	"net/http"
	"time"

	authDelivery "sendahandyman-backend/internal/auth/delivery"
	authUsecase "sendahandyman-backend/internal/auth/usecase"
	paymentDelivery "sendahandyman-backend/internal/payment/delivery"
	quoteDelivery "sendahandyman-backend/internal/quote/delivery"
	taskDelivery "sendahandyman-backend/internal/task/delivery"
	"sendahandyman-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	config         *config.Config
	logger         *zap.Logger
	taskHandler    *taskDelivery.TaskHandler
	paymentHandler *paymentDelivery.PaymentHandler
	quoteHandler   *quoteDelivery.QuoteHandler
	deviceHandler  *authDelivery.DeviceHandler
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	taskHandler *taskDelivery.TaskHandler,
	paymentHandler *paymentDelivery.PaymentHandler,
	quoteHandler *quoteDelivery.QuoteHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authUsecase:    authUc,
		config:         cfg,
		logger:         logger,
		taskHandler:    taskHandler,
		paymentHandler: paymentHandler,
		quoteHandler:   quoteHandler,
		deviceHandler:  authDelivery.NewDeviceHandler(authUc),
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	if h.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(requestLogger(h.logger), gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.taskHandler, h.paymentHandler, h.quoteHandler, h.deviceHandler)
	return r
}

// Server returns the HTTP server for addr. Write timeout leaves room for a
// gateway call bounded by the payment timeout.
func (h *Handler) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3*h.config.PaymentTimeout + 10*time.Second,
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
