// Package app wires repositories, gateway clients and usecases. The API
// server and the operator CLI share it.
package app

import (
	"context"
	"fmt"

	authRepo "sendahandyman-backend/internal/auth/repository"
	authUsecase "sendahandyman-backend/internal/auth/usecase"
	"sendahandyman-backend/internal/notification"
	paymentDomain "sendahandyman-backend/internal/payment/domain"
	paymentUsecase "sendahandyman-backend/internal/payment/usecase"
	quoteRepo "sendahandyman-backend/internal/quote/repository"
	quoteUsecase "sendahandyman-backend/internal/quote/usecase"
	taskRepo "sendahandyman-backend/internal/task/repository"
	taskUsecase "sendahandyman-backend/internal/task/usecase"
	"sendahandyman-backend/pkg/config"
	"sendahandyman-backend/pkg/database"
	"sendahandyman-backend/pkg/fcm"
	"sendahandyman-backend/pkg/stripeclient"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *zap.Logger

	Auth     authUsecase.AuthUsecase
	Tasks    taskUsecase.TaskUsecase
	Quotes   quoteUsecase.QuoteUsecase
	Intents  paymentUsecase.IntentUsecase
	Capture  paymentUsecase.CaptureUsecase
	Charges  paymentUsecase.AdditionalChargeUsecase
	Checkout paymentUsecase.QuoteCheckoutUsecase

	publisher *notification.PubSubPublisher
}

// Migrate creates every table and index the service uses
func Migrate(db *gorm.DB) error {
	if err := authRepo.Migrate(db); err != nil {
		return fmt.Errorf("migrate auth: %w", err)
	}
	if err := taskRepo.Migrate(db); err != nil {
		return fmt.Errorf("migrate tasks: %w", err)
	}
	if err := quoteRepo.Migrate(db); err != nil {
		return fmt.Errorf("migrate quotes: %w", err)
	}
	return nil
}

// New connects to Postgres and builds the usecases. Pub/Sub and FCM are
// optional; without them notifications and alerts are only logged.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithDB(ctx, db, cfg, logger)
}

func NewWithDB(ctx context.Context, db *gorm.DB, cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize repositories (dependency injection)
	adminRepository := authRepo.NewAdminRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	quoteRepository := quoteRepo.NewGormQuoteRepository(db)

	a := &App{DB: db, Config: cfg, Logger: logger}

	var publisher notification.Publisher
	if cfg.GoogleProjectID != "" {
		p, err := notification.NewPubSubPublisher(ctx, cfg.GoogleProjectID, cfg.GoogleCredentials, logger)
		if err != nil {
			logger.Warn("Failed to initialize Pub/Sub (notifications disabled)", zap.Error(err))
		} else {
			if err := p.EnsureTopics(ctx, cfg.SMSTopic, cfg.EmailTopic); err != nil {
				logger.Warn("Failed to verify notification topics", zap.Error(err))
			}
			a.publisher = p
			publisher = p
		}
	} else {
		logger.Warn("GoogleProjectID not configured, notifications disabled")
	}

	// FCM is optional, admin alerts fall back to logs
	var push notification.PushSender
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, logger)
		if err != nil {
			logger.Warn("Failed to initialize FCM client (admin alerts disabled)", zap.Error(err))
		} else {
			push = fcmClient
		}
	} else {
		logger.Debug("No Firebase credentials configured, FCM disabled")
	}

	notifier := notification.NewService(publisher, cfg.SMSTopic, cfg.EmailTopic, fcmTokenRepo, push, logger)

	var gateway paymentDomain.Gateway = stripeclient.NewClient(cfg.StripeSecretKey, cfg.PaymentTimeout, logger)
	resolver := paymentUsecase.NewReconciler(gateway, paymentUsecase.ReconcilerOptions{
		ListLimit:      cfg.HoldSearchLimit,
		AllowHeuristic: cfg.HeuristicHoldMatching,
	}, logger)

	// Initialize use cases
	a.Auth = authUsecase.NewAuthUsecase(adminRepository, fcmTokenRepo, cfg)
	a.Tasks = taskUsecase.NewTaskUsecase(taskRepository, notifier, logger)
	a.Quotes = quoteUsecase.NewQuoteUsecase(quoteRepository, cfg, logger)
	a.Intents = paymentUsecase.NewIntentUsecase(gateway, cfg, logger)
	a.Capture = paymentUsecase.NewCaptureUsecase(taskRepository, gateway, resolver, notifier, logger)
	a.Charges = paymentUsecase.NewAdditionalChargeUsecase(taskRepository, gateway, notifier, cfg, logger)
	a.Checkout = paymentUsecase.NewQuoteCheckoutUsecase(quoteRepository, a.Tasks, gateway, notifier, cfg, logger)

	return a, nil
}

// Close flushes pending notifications and closes the database
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Logger.Warn("Failed to close Pub/Sub publisher", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
