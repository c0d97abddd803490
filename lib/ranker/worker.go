package ranker

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultInterval is how often ranks are recomputed. Per-write rank
	// maintenance would re-rank the whole table on every submission;
	// batching amortizes that to a fixed interval at the cost of rank
	// staleness bounded by this period.
	DefaultInterval = 5 * time.Minute

	// DefaultRunTimeout bounds a single recompute pass.
	DefaultRunTimeout = time.Minute
)

// Recalculator is the slice of the engine the worker needs.
type Recalculator interface {
	RecalculateRanks(ctx context.Context) (int64, error)
}

// Worker recomputes dense ranks on a fixed period, independent of any
// request.
type Worker struct {
	engine     Recalculator
	interval   time.Duration
	runTimeout time.Duration
}

// Config configures the rank worker.
type Config struct {
	Engine     Recalculator
	Interval   time.Duration
	RunTimeout time.Duration
}

// NewWorker creates a rank worker with the given configuration.
func NewWorker(cfg Config) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	return &Worker{
		engine:     cfg.Engine,
		interval:   cfg.Interval,
		runTimeout: cfg.RunTimeout,
	}
}

// Start begins the worker loop. Blocks until context is cancelled. A
// failed pass is logged and retried on the next tick; the recompute is
// idempotent so skipped or repeated passes are harmless.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("rank worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("rank worker shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	start := time.Now()
	changed, err := w.engine.RecalculateRanks(runCtx)
	if err != nil {
		slog.Error("rank recompute failed", "error", err)
		return
	}

	slog.Info("rank recompute finished",
		"rows_changed", changed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
