// Package worker consumes entity-change events and maintains the activity log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"proyeksi/internal/amqp"
)

// ActivityRecorder is the slice of the storage layer the worker writes to.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, entityKind, entityID, action string, occurredAt int64) error
	PruneActivityBefore(ctx context.Context, cutoff int64) (int64, error)
}

// ActivityWorker turns published entity events into activity-log rows and
// prunes rows past the retention window.
type ActivityWorker struct {
	recorder  ActivityRecorder
	retention time.Duration
}

const defaultRetention = 90 * 24 * time.Hour

func NewActivityWorker(recorder ActivityRecorder, retention time.Duration) *ActivityWorker {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &ActivityWorker{recorder: recorder, retention: retention}
}

// HandleEntityEvent records one event. The event's own timestamp is stored so
// replayed or delayed deliveries keep their original ordering.
func (w *ActivityWorker) HandleEntityEvent(ctx context.Context, ev *amqp.EntityEvent) error {
	if ev.Kind == "" || ev.ID == "" || ev.Action == "" {
		return fmt.Errorf("incomplete event: kind=%q id=%q action=%q", ev.Kind, ev.ID, ev.Action)
	}

	occurredAt := ev.Timestamp.UnixMilli()
	if ev.Timestamp.IsZero() {
		occurredAt = time.Now().UnixMilli()
	}

	if err := w.recorder.RecordActivity(ctx, ev.Kind, ev.ID, ev.Action, occurredAt); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	slog.InfoContext(ctx, "Recorded activity",
		"kind", ev.Kind,
		"id", ev.ID,
		"action", ev.Action)
	return nil
}

// PruneOldEntries removes activity rows older than the retention window.
func (w *ActivityWorker) PruneOldEntries(ctx context.Context) error {
	cutoff := time.Now().Add(-w.retention).UnixMilli()
	removed, err := w.recorder.PruneActivityBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune activity: %w", err)
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Pruned activity log", "removed", removed)
	}
	return nil
}

// RunPruneLoop prunes on a ticker until ctx is cancelled. One sweep runs
// immediately so a long-stopped worker catches up on startup.
func (w *ActivityWorker) RunPruneLoop(ctx context.Context, interval time.Duration) {
	if err := w.PruneOldEntries(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup prune failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.PruneOldEntries(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic prune failed", "error", err)
			}
		}
	}
}
