package core

// scheduler.go prunes old import run history on a fixed interval.
//
// The job runs once at startup and then every interval until ctx is
// cancelled. A failed prune is logged and retried on the next tick; it never
// stops the scheduler.

import (
	"context"
	"log/slog"
	"time"
)

// RunPruner deletes import runs that started before a cutoff.
type RunPruner interface {
	PruneImportRuns(ctx context.Context, before time.Time) (int64, error)
}

// HistoryConfig controls import history retention.
type HistoryConfig struct {
	RetentionDays int           // Days of history to keep (default: 180)
	Interval      time.Duration // How often to prune (default: 24h)
}

func (c HistoryConfig) withDefaults() HistoryConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 180
	}
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	return c
}

// StartHistoryPruner blocks, pruning import history until ctx is cancelled.
func StartHistoryPruner(ctx context.Context, pruner RunPruner, cfg HistoryConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history pruner started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval,
	)

	pruneHistory(ctx, pruner, cfg.RetentionDays, time.Now)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			pruneHistory(ctx, pruner, cfg.RetentionDays, time.Now)
		}
	}
}

// pruneHistory performs one prune cycle and returns the number of runs removed.
func pruneHistory(ctx context.Context, pruner RunPruner, retentionDays int, now func() time.Time) int64 {
	start := now()
	cutoff := start.AddDate(0, 0, -retentionDays)

	deleted, err := pruner.PruneImportRuns(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned import history",
		"runs_deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted
}
