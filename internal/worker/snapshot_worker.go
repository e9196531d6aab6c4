// Package worker recomputes stale pivot snapshots so reads stay cheap after
// ledger mutations.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/services"
)

// SnapshotWorker refreshes persisted pivot snapshots. It reacts to AMQP
// change notifications and also sweeps periodically, which catches windows
// whose notification was lost.
type SnapshotWorker struct {
	reports   *services.ReportService
	batchSize int
}

func NewSnapshotWorker(reports *services.ReportService, batchSize int) *SnapshotWorker {
	return &SnapshotWorker{
		reports:   reports,
		batchSize: batchSize,
	}
}

// HandleLedgerChanged processes a single change notification. The mutation
// path already marked affected snapshots stale, so the worker only has to
// recompute whatever is stale now.
func (w *SnapshotWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger changed message",
		"months", msg.Months,
		"reason", msg.Reason)

	refreshed, err := w.reports.RecomputeStale(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("recompute stale windows: %w", err)
	}

	slog.InfoContext(ctx, "Refreshed pivot snapshots", "count", refreshed)
	return nil
}

// ProcessStaleWindows recomputes stale snapshots outside the message path.
// This is the backup mechanism in case AMQP messages are lost.
func (w *SnapshotWorker) ProcessStaleWindows(ctx context.Context) error {
	refreshed, err := w.reports.RecomputeStale(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("recompute stale windows: %w", err)
	}

	if refreshed > 0 {
		slog.InfoContext(ctx, "Periodic sweep refreshed pivot snapshots", "count", refreshed)
	}
	return nil
}
