package usecase

import (
	"context"
	"errors"

	"sendahandyman-backend/internal/payment/domain"
	taskDomain "sendahandyman-backend/internal/task/domain"
	"sendahandyman-backend/pkg/money"

	"go.uber.org/zap"
)

// ReconcilerOptions tunes hold resolution
type ReconcilerOptions struct {
	// ListLimit is how many recent holds the heuristic scans
	ListLimit int
	// AllowHeuristic enables matching by amount and customer when the
	// payment has no stored hold reference
	AllowHeuristic bool
}

// Resolution is a located hold. Hold is either capturable, or succeeded when
// the stored reference was already captured by an earlier attempt.
type Resolution struct {
	Hold       *domain.Hold
	Source     domain.HoldSource
	Candidates int // heuristic matches seen; more than one means the pick was ambiguous
}

// AlreadyCaptured reports whether the gateway already settled the hold
func (r *Resolution) AlreadyCaptured() bool {
	return r.Hold.Status == domain.HoldSucceeded
}

// Reconciler resolves holds from the stored reference first and falls back
// to scanning recent holds.
type Reconciler struct {
	gateway domain.Gateway
	opts    ReconcilerOptions
	logger  *zap.Logger
}

func NewReconciler(gateway domain.Gateway, opts ReconcilerOptions, logger *zap.Logger) *Reconciler {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 100
	}
	return &Reconciler{
		gateway: gateway,
		opts:    opts,
		logger:  logger.Named("reconciler"),
	}
}

func (r *Reconciler) Resolve(ctx context.Context, task *taskDomain.Task, payment *taskDomain.Payment) (*Resolution, error) {
	if payment != nil && payment.IntentID() != "" {
		res, err := r.resolveStored(ctx, payment.IntentID())
		if err != nil || res != nil {
			return res, err
		}
	}
	// The task update of an earlier capture may have landed while the
	// payment update did not
	if ref := task.CapturedIntentID(); ref != "" && ref != intentIDOf(payment) {
		res, err := r.resolveStored(ctx, ref)
		if err != nil || res != nil {
			return res, err
		}
	}

	if !r.opts.AllowHeuristic {
		return nil, domain.ErrNoCapturableHold.WithDetail("no capturable hold for stored reference %q", intentIDOf(payment))
	}
	return r.resolveHeuristic(ctx, task)
}

// resolveStored returns nil, nil when the stored hold cannot be used and the
// heuristic should run.
func (r *Reconciler) resolveStored(ctx context.Context, holdID string) (*Resolution, error) {
	hold, err := r.gateway.Get(ctx, holdID)
	if err != nil {
		if domain.IsGatewayTimeout(err) {
			return nil, domain.ErrGatewayTimeout.Wrap(err)
		}
		r.logger.Warn("Failed to retrieve stored hold", zap.String("payment_intent_id", holdID), zap.Error(err))
		return nil, nil
	}

	switch hold.Status {
	case domain.HoldRequiresCapture, domain.HoldSucceeded:
		return &Resolution{Hold: hold, Source: domain.SourceStoredReference, Candidates: 1}, nil
	default:
		r.logger.Info("Stored hold not capturable",
			zap.String("payment_intent_id", holdID),
			zap.String("status", string(hold.Status)),
		)
		return nil, nil
	}
}

func (r *Reconciler) resolveHeuristic(ctx context.Context, task *taskDomain.Task) (*Resolution, error) {
	holds, err := r.gateway.ListRecent(ctx, r.opts.ListLimit)
	if err != nil {
		if domain.IsGatewayTimeout(err) {
			return nil, domain.ErrGatewayTimeout.Wrap(err)
		}
		return nil, domain.ErrCaptureFailed.Wrap(err)
	}

	target := money.ToMinor(task.TotalAmount)
	var picked *domain.Hold
	candidates := 0
	for _, h := range holds {
		if !matchesTask(h, task, target) {
			continue
		}
		candidates++
		if picked == nil {
			picked = h
		}
	}

	if picked == nil {
		r.logger.Info("No capturable hold matched",
			zap.String("task_id", task.ID),
			zap.Int64("target_amount", target),
			zap.Int("scanned", len(holds)),
		)
		return nil, domain.ErrNoCapturableHold.WithDetail("no recent hold of %d matched task %s", target, task.TaskID)
	}
	if candidates > 1 {
		r.logger.Warn("Ambiguous hold match, using most recent",
			zap.String("task_id", task.ID),
			zap.String("payment_intent_id", picked.ID),
			zap.Int("candidates", candidates),
		)
	}
	return &Resolution{Hold: picked, Source: domain.SourceHeuristicMatch, Candidates: candidates}, nil
}

// matchesTask requires the exact amount, a capturable state and a customer
// name or email match. Amount alone never matches.
func matchesTask(h *domain.Hold, task *taskDomain.Task, target int64) bool {
	if h.Amount != target || !h.Capturable() {
		return false
	}
	nameMatches := task.CustomerName != "" && h.CustomerName() == task.CustomerName
	emailMatches := task.CustomerEmail != "" && h.CustomerEmail() == task.CustomerEmail
	return nameMatches || emailMatches
}

func intentIDOf(p *taskDomain.Payment) string {
	if p == nil {
		return ""
	}
	return p.IntentID()
}

// isNoCapturableHold reports whether err is the terminal "nothing to capture" outcome
func isNoCapturableHold(err error) bool {
	return errors.Is(err, domain.ErrNoCapturableHold)
}
