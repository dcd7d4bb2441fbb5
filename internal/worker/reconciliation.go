package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler settles stale PENDING billings against the gateway.
type Reconciler interface {
	Reconcile(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type ReconciliationWorker struct {
	reconciler Reconciler
	interval   time.Duration
	olderThan  time.Duration
	batchSize  int
	log        zerolog.Logger
}

func NewReconciliationWorker(
	reconciler Reconciler,
	interval time.Duration,
	olderThan time.Duration,
	batchSize int,
	log zerolog.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		reconciler: reconciler,
		interval:   interval,
		olderThan:  olderThan,
		batchSize:  batchSize,
		log:        log.With().Str("component", "reconciliation").Logger(),
	}
}

// Run blocks until ctx is cancelled, reconciling once per interval.
func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.log.Info().Dur("interval", rw.interval).Msg("reconciliation worker started")

	for {
		select {
		case <-ctx.Done():
			rw.log.Info().Msg("reconciliation worker stopped")
			return
		case <-ticker.C:
			rw.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass and returns how many
// billings changed. Failures are logged, never returned.
func (rw *ReconciliationWorker) RunOnce(ctx context.Context) int {
	changed, err := rw.reconciler.Reconcile(ctx, rw.olderThan, rw.batchSize)
	if err != nil {
		rw.log.Error().Err(err).Msg("reconciliation failed")
	}
	if changed > 0 {
		rw.log.Info().Int("changed", changed).Msg("reconciliation pass finished")
	}
	return changed
}
