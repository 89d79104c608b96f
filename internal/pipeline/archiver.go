package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/outcomefi/marketd/internal/domain"
)

// Archiver periodically exports settled markets to cold storage.
type Archiver struct {
	archiver domain.SettlementArchiver
	interval time.Duration
	logger   *slog.Logger

	// since is the low-water mark for the next run. The first run scans
	// everything; later runs overlap one interval so a market finalized
	// mid-run is never skipped. Re-uploads are prevented by the archive
	// itself, which checks for existing objects.
	since time.Time
}

// NewArchiver creates an Archiver that runs every interval.
func NewArchiver(archiver domain.SettlementArchiver, interval time.Duration, logger *slog.Logger) *Archiver {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Archiver{
		archiver: archiver,
		interval: interval,
		logger:   logger,
	}
}

// RunOnce executes a single archive pass.
func (a *Archiver) RunOnce(ctx context.Context) error {
	start := time.Now().UTC()

	count, err := a.archiver.ArchiveSettled(ctx, a.since)
	if err != nil {
		return fmt.Errorf("pipeline: archive settled since %v: %w", a.since, err)
	}
	a.since = start.Add(-a.interval)

	a.logger.InfoContext(ctx, "pipeline: archive pass complete",
		slog.Int64("archived", count),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// Run executes archive passes on the configured interval until the context
// is cancelled. A failed pass is logged and retried on the next tick.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.Info("pipeline: archiver started",
		slog.Duration("interval", a.interval),
	)

	if err := a.RunOnce(ctx); err != nil {
		a.logger.Error("pipeline: archive pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("pipeline: archiver stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				a.logger.Error("pipeline: archive pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
