package timectrl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefreshControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	rc := NewRefreshController(start, time.Minute, RealTime)

	newNow := start.Add(42 * time.Second)
	rc.SetTime(newNow)

	if got := rc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestRefreshControllerAcceleratedTicks(t *testing.T) {
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	rc := NewRefreshController(start, time.Minute, Accelerated)

	var ticks atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	rc.AddListener(func(now time.Time) {
		if ticks.Add(1) >= 5 {
			cancel()
		}
	})

	done := rc.Start(ctx)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("accelerated loop did not finish in time")
	}

	if got := ticks.Load(); got < 5 {
		t.Fatalf("ticks = %d, want >= 5", got)
	}
	if got := rc.Now(); !got.After(start) {
		t.Fatalf("Now() = %v, want advanced past %v", got, start)
	}
}

func TestRefreshControllerRealTimeStopsOnCancel(t *testing.T) {
	rc := NewRefreshController(time.Now().UTC(), 5*time.Millisecond, RealTime)

	var ticks atomic.Int64
	rc.AddListener(func(time.Time) { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := rc.Start(ctx)

	time.Sleep(40 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	if ticks.Load() == 0 {
		t.Fatal("expected at least one tick before cancel")
	}
}
