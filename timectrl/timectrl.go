package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the monitor's view of refresh time. Components that need "the
// time of the current refresh cycle" depend on this rather than on a
// concrete controller, which keeps them testable.
type Clock interface {
	// Now returns the time of the most recent refresh tick.
	Now() time.Time
}

// Mode describes how the RefreshController advances between ticks.
type Mode int

const (
	// RealTime waits a full refresh interval between ticks.
	RealTime Mode = iota
	// Accelerated ticks as fast as listeners can run, stepping the
	// reported time by the interval each tick. Used when replaying
	// recorded snapshots.
	Accelerated
)

// RefreshController drives the periodic analysis cycle and notifies
// registered listeners on every tick. It implements Clock.
type RefreshController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Interval  time.Duration
	Mode      Mode

	currentTime time.Time

	listeners []func(time.Time)
}

// NewRefreshController constructs a controller. Listeners must be added
// before Start.
func NewRefreshController(start time.Time, interval time.Duration, mode Mode) *RefreshController {
	return &RefreshController{
		StartTime:   start,
		Interval:    interval,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the time of the most recent tick. Implements Clock.
func (rc *RefreshController) Now() time.Time {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.currentTime
}

// SetTime overrides the controller's current time. Intended for replay
// setups and tests.
func (rc *RefreshController) SetTime(t time.Time) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.currentTime = t
}

// AddListener registers a callback invoked on every refresh tick.
func (rc *RefreshController) AddListener(fn func(time.Time)) {
	rc.listeners = append(rc.listeners, fn)
}

// Start runs the refresh loop in a separate goroutine until ctx is
// cancelled. It returns a channel that is closed when the loop exits.
// In RealTime mode ticks follow wall-clock intervals; in Accelerated mode
// the loop spins through ticks back to back, advancing the reported time
// by one interval per tick.
func (rc *RefreshController) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		rc.mu.Lock()
		current := rc.StartTime
		rc.currentTime = current
		rc.mu.Unlock()

		var ticker *time.Ticker
		if rc.Mode == RealTime {
			ticker = time.NewTicker(rc.Interval)
			defer ticker.Stop()
		}

		for {
			if rc.Mode == RealTime {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				current = time.Now().UTC()
			} else {
				select {
				case <-ctx.Done():
					return
				default:
				}
				current = current.Add(rc.Interval)
			}

			rc.mu.Lock()
			rc.currentTime = current
			rc.mu.Unlock()

			for _, fn := range rc.listeners {
				fn(current)
			}
		}
	}()
	return done
}
