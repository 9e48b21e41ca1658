package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"proyeksi/internal/amqp"
)

type fakeRecorder struct {
	mu      sync.Mutex
	rows    []recordedRow
	pruned  []int64
	fail    bool
	removed int64
}

type recordedRow struct {
	kind, id, action string
	occurredAt       int64
}

func (f *fakeRecorder) RecordActivity(_ context.Context, kind, id, action string, occurredAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.rows = append(f.rows, recordedRow{kind, id, action, occurredAt})
	return nil
}

func (f *fakeRecorder) PruneActivityBefore(_ context.Context, cutoff int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("disk full")
	}
	f.pruned = append(f.pruned, cutoff)
	return f.removed, nil
}

func TestHandleEntityEvent(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewActivityWorker(rec, 0)

	ev := amqp.NewEntityEvent("project", "project-1", amqp.ActionCreated)
	if err := w.HandleEntityEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(rec.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rec.rows))
	}
	row := rec.rows[0]
	if row.kind != "project" || row.id != "project-1" || row.action != amqp.ActionCreated {
		t.Fatalf("row = %+v", row)
	}
	if row.occurredAt != ev.Timestamp.UnixMilli() {
		t.Fatalf("occurredAt = %d, want event timestamp %d", row.occurredAt, ev.Timestamp.UnixMilli())
	}
}

func TestHandleEntityEventZeroTimestamp(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewActivityWorker(rec, 0)

	before := time.Now().UnixMilli()
	ev := &amqp.EntityEvent{Kind: "task", ID: "task-1", Action: amqp.ActionDeleted}
	if err := w.HandleEntityEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := rec.rows[0].occurredAt; got < before {
		t.Fatalf("occurredAt = %d, want >= %d", got, before)
	}
}

func TestHandleEntityEventRejectsIncomplete(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewActivityWorker(rec, 0)

	ev := &amqp.EntityEvent{Kind: "project", Action: amqp.ActionUpdated}
	if err := w.HandleEntityEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error for event without an ID")
	}
	if len(rec.rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rec.rows))
	}
}

func TestHandleEntityEventPropagatesStoreError(t *testing.T) {
	rec := &fakeRecorder{fail: true}
	w := NewActivityWorker(rec, 0)

	ev := amqp.NewEntityEvent("expense", "expense-1", amqp.ActionCreated)
	if err := w.HandleEntityEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error when the recorder fails")
	}
}

func TestPruneOldEntries(t *testing.T) {
	rec := &fakeRecorder{removed: 3}
	w := NewActivityWorker(rec, 30*24*time.Hour)

	if err := w.PruneOldEntries(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(rec.pruned) != 1 {
		t.Fatalf("prune calls = %d, want 1", len(rec.pruned))
	}

	wantCutoff := time.Now().Add(-30 * 24 * time.Hour).UnixMilli()
	got := rec.pruned[0]
	if got < wantCutoff-int64(time.Minute/time.Millisecond) || got > wantCutoff+int64(time.Minute/time.Millisecond) {
		t.Fatalf("cutoff = %d, want about %d", got, wantCutoff)
	}
}
