package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "sendahandyman-backend/cmd/api"
	"sendahandyman-backend/internal/app"
	paymentDelivery "sendahandyman-backend/internal/payment/delivery"
	quoteDelivery "sendahandyman-backend/internal/quote/delivery"
	quoteScheduler "sendahandyman-backend/internal/quote/scheduler"
	taskDelivery "sendahandyman-backend/internal/task/delivery"
	"sendahandyman-backend/pkg/config"
	"sendahandyman-backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StripeSecretKey == "" {
		zl.Fatal("STRIPE_SECRET_KEY is required")
	}

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer a.Close()

	// Auto-migrate database schemas
	if err := app.Migrate(a.DB); err != nil {
		zl.Fatal("Failed to migrate database", zap.Error(err))
	}

	sweeper := quoteScheduler.NewQuoteExpiryScheduler(a.Quotes, cfg.QuoteSweepInterval, zl)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(
		a.Auth,
		taskDelivery.NewTaskHandler(a.Tasks),
		paymentDelivery.NewPaymentHandler(a.Intents, a.Capture, a.Charges, a.Checkout),
		quoteDelivery.NewQuoteHandler(a.Quotes),
		cfg,
		zl,
	)

	srv := handler.Server(":" + cfg.Port)
	go func() {
		zl.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server shutdown failed", zap.Error(err))
	}
}
