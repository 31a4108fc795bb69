package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/skygen/skydesk/internal/overlay"
)

// Reconcilable repairs drift between recorded and actual state.
type Reconcilable interface {
	Reconcile() overlay.ReconcileResult
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks for state drift and corrects it.
type Reconciler struct {
	interval time.Duration
	target   Reconcilable
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target Reconcilable) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconciler{
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() (res overlay.ReconcileResult) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	res = r.target.Reconcile()
	if res.PanelLost {
		r.logger.Info("reconciler: overlay panel closed externally, marked hidden")
	}
	if res.StrayPanelClosed {
		r.logger.Info("reconciler: closed stray overlay panel")
	}
	if res.HelperReaped {
		r.logger.Warn("reconciler: outline helper exited unexpectedly, session released")
	}
	return res
}
