package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/metrics"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/repository"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/logger"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// CounterReconcileWorkerConfig holds configuration for the counter
// reconcile worker
type CounterReconcileWorkerConfig struct {
	// Interval is the time between reconcile runs (default: 5 minutes)
	Interval time.Duration
}

// DefaultCounterReconcileWorkerConfig returns default configuration
func DefaultCounterReconcileWorkerConfig() *CounterReconcileWorkerConfig {
	return &CounterReconcileWorkerConfig{
		Interval: 5 * time.Minute,
	}
}

// CounterReconcileWorker periodically repairs attendee counters that have
// drifted from the registration rows. The ledger transaction keeps the
// counters consistent under normal operation; this catches anything that
// slipped through (manual data edits, crash between statements).
type CounterReconcileWorker struct {
	config           *CounterReconcileWorkerConfig
	registrationRepo repository.RegistrationRepository
	cacheInvalidator repository.EventCacheInvalidator

	mu              sync.Mutex
	totalRepairs    int64
	lastRunTime     time.Time
	lastRepairCount int
}

// NewCounterReconcileWorker creates a new counter reconcile worker
func NewCounterReconcileWorker(
	cfg *CounterReconcileWorkerConfig,
	registrationRepo repository.RegistrationRepository,
	cacheInvalidator repository.EventCacheInvalidator,
) *CounterReconcileWorker {
	if cfg == nil {
		cfg = DefaultCounterReconcileWorkerConfig()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}

	return &CounterReconcileWorker{
		config:           cfg,
		registrationRepo: registrationRepo,
		cacheInvalidator: cacheInvalidator,
	}
}

// Start begins the periodic reconcile loop. Blocks until ctx is cancelled.
func (w *CounterReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	logger.Info("Counter reconcile worker started",
		zap.Duration("interval", w.config.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Counter reconcile worker stopping...")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconcile pass
func (w *CounterReconcileWorker) RunOnce(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "worker.counter_reconcile.run")
	defer span.End()

	repairs, err := w.registrationRepo.ReconcileCounters(ctx)
	if err != nil {
		span.RecordError(err)
		logger.Error("Counter reconcile run failed", zap.Error(err))
		return
	}

	for _, repair := range repairs {
		logger.Warn("Repaired attendee counter",
			zap.String("event_id", repair.EventID),
			zap.Int("old_count", repair.OldCount),
			zap.Int("new_count", repair.NewCount),
		)
		if w.cacheInvalidator != nil {
			w.cacheInvalidator.InvalidateEvent(ctx, repair.EventID)
		}
	}

	if len(repairs) > 0 {
		metrics.RecordCounterRepair(ctx, int64(len(repairs)))
	}

	w.mu.Lock()
	w.totalRepairs += int64(len(repairs))
	w.lastRunTime = time.Now()
	w.lastRepairCount = len(repairs)
	w.mu.Unlock()
}

// Stats returns worker statistics
func (w *CounterReconcileWorker) Stats() (totalRepairs int64, lastRun time.Time, lastCount int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalRepairs, w.lastRunTime, w.lastRepairCount
}
