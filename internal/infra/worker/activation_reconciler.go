package worker

import (
	"context"
	"time"

	"github.com/xavierca1/clientpulse/internal/infra/http/middleware"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const DefaultReconcileInterval = time.Minute

// ActivationExpirer fails activations the CRM worker never answered and
// returns how many it touched.
type ActivationExpirer interface {
	Execute(ctx context.Context) (int, error)
}

type ActivationReconciler struct {
	expirer      ActivationExpirer
	tickInterval time.Duration
	logger       logging.Logger
}

func NewActivationReconciler(expirer ActivationExpirer, tickInterval time.Duration, logger logging.Logger) *ActivationReconciler {
	if tickInterval <= 0 {
		tickInterval = DefaultReconcileInterval
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &ActivationReconciler{
		expirer:      expirer,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// Start runs one pass immediately, then one per tick until ctx is done.
func (w *ActivationReconciler) Start(ctx context.Context) {
	w.logger.Info("activation reconciler started", "interval", w.tickInterval.String())

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("activation reconciler stopped")
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *ActivationReconciler) reconcile(ctx context.Context) {
	expired, err := w.expirer.Execute(ctx)
	if err != nil {
		w.logger.Error("failed to expire stale activations", "error", err)
		return
	}
	if expired > 0 {
		middleware.RecordCRMActivations("timeout", expired)
		w.logger.Info("stale activations marked as failed", "count", expired)
	}
}
