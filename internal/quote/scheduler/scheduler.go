package scheduler

import (
	"context"
	"sync"
	"time"

	"sendahandyman-backend/internal/quote/usecase"

	"go.uber.org/zap"
)

// QuoteExpiryScheduler periodically expires pending quotes past their expiry
type QuoteExpiryScheduler struct {
	quoteUsecase usecase.QuoteUsecase
	interval     time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
	stopOnce     sync.Once
	done         chan struct{}
}

// NewQuoteExpiryScheduler creates a new scheduler
func NewQuoteExpiryScheduler(quoteUsecase usecase.QuoteUsecase, interval time.Duration, logger *zap.Logger) *QuoteExpiryScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &QuoteExpiryScheduler{
		quoteUsecase: quoteUsecase,
		interval:     interval,
		logger:       logger.Named("quote_scheduler"),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *QuoteExpiryScheduler) Start() {
	s.logger.Info("Starting quote expiry scheduler", zap.Duration("interval", s.interval))

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				s.logger.Info("Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler and waits for a running sweep
func (s *QuoteExpiryScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

func (s *QuoteExpiryScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if _, err := s.quoteUsecase.ExpireStale(ctx); err != nil {
		s.logger.Error("Error expiring stale quotes", zap.Error(err))
	}
}
