package services

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestEngineEnqueueRequiresRunning(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "4")
	e := NewEngine(nil)

	if e.IsRunning() {
		t.Error("fresh engine should not be running")
	}
	if err := e.Enqueue(TaskActivitySweep); err == nil {
		t.Error("expected an error while the engine is stopped")
	}
}

func TestEngineEnqueueBackpressure(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "4")
	e := NewEngine(nil)
	// Mark running without Start: no workers exist, so nothing drains the
	// queue and the overflow path is deterministic.
	e.running = true

	for i := 0; i < cap(e.queue); i++ {
		if err := e.Enqueue(TaskActivitySweep); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	err := e.Enqueue(TaskActivitySweep)
	if err == nil {
		t.Fatal("expected a full-queue error")
	}
	if !strings.Contains(err.Error(), "queue is full") {
		t.Errorf("unexpected error: %v", err)
	}

	stats := e.GetStats()
	if stats.QueueSize != cap(e.queue) {
		t.Errorf("QueueSize = %d, want %d", stats.QueueSize, cap(e.queue))
	}
	if stats.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", stats.WorkerCount)
	}
	if !stats.IsRunning {
		t.Error("stats should report the engine as running")
	}
}

func TestEngineStatsOnFreshEngine(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "2")
	e := NewEngine(nil)
	e.RegisterHandler(TaskActivitySweep, func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	stats := e.GetStats()
	if stats.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", stats.WorkerCount)
	}
	if stats.QueueSize != 0 || stats.ScheduledTasks != 0 {
		t.Errorf("fresh engine stats = %+v", stats)
	}
	if stats.IsRunning {
		t.Error("fresh engine should report stopped")
	}
}

func TestEngineStopWithoutStart(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "2")
	e := NewEngine(nil)

	e.Stop()

	if e.IsRunning() {
		t.Error("engine should stay stopped")
	}
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)

	next := nextRunTime("@every 1m", from)
	if next == nil {
		t.Fatal("expected a next run for @every")
	}
	if want := from.Add(time.Minute); !next.Equal(want) {
		t.Errorf("@every next = %v, want %v", next, want)
	}

	next = nextRunTime("0 */5 * * * *", from)
	if next == nil {
		t.Fatal("expected a next run for a six-field expression")
	}
	if want := from.Add(5 * time.Minute); !next.Equal(want) {
		t.Errorf("cron next = %v, want %v", next, want)
	}

	if next := nextRunTime("not a schedule", from); next != nil {
		t.Errorf("invalid schedule produced %v", next)
	}
	if next := nextRunTime("*/5 * * * *", from); next != nil {
		t.Errorf("five-field schedule produced %v", next)
	}
}
