// Package clock provides the timer substrate for playback and presentation timers.
package clock

import (
	"context"
	"time"
)

// Timer is a handle to an armed timer.
type Timer interface {
	// Stop disarms the timer. Stopping an already fired or stopped timer is a no-op.
	Stop()
}

// Clock schedules callbacks. Callbacks run on a goroutine owned by the clock.
type Clock interface {
	// AfterFunc calls fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every calls fn every d until the returned timer is stopped.
	Every(d time.Duration, fn func()) Timer
}

// DefaultResolution is the polling interval of the wall clock.
const DefaultResolution = 100 * time.Millisecond

// cancelTimer adapts a context cancel func to Timer.
type cancelTimer context.CancelFunc

func (c cancelTimer) Stop() { c() }

// Wall is a Clock that measures elapsed time on the wall clock.
// Deadlines are checked every Resolution, so callbacks fire up to one
// resolution late but never drift with the monotonic clock.
type Wall struct {
	Resolution time.Duration
}

// NewWall creates a wall clock with the default resolution.
func NewWall() *Wall {
	return &Wall{Resolution: DefaultResolution}
}

// AfterFunc implements Clock.
func (w *Wall) AfterFunc(d time.Duration, fn func()) Timer {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		endTime := toWallTime(time.Now()).Add(d)
		ticker := time.NewTicker(w.resolution())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !toWallTime(time.Now()).Before(endTime) {
					if ctx.Err() == nil {
						fn()
					}
					return
				}
			}
		}
	}()

	return cancelTimer(cancel)
}

// Every implements Clock.
func (w *Wall) Every(d time.Duration, fn func()) Timer {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		next := toWallTime(time.Now()).Add(d)
		ticker := time.NewTicker(w.resolution())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := toWallTime(time.Now())
				if now.Before(next) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				fn()
				next = next.Add(d)
				// Skip missed periods instead of firing a burst.
				if next.Before(now) {
					next = now.Add(d)
				}
			}
		}
	}()

	return cancelTimer(cancel)
}

func (w *Wall) resolution() time.Duration {
	if w.Resolution <= 0 {
		return DefaultResolution
	}
	return w.Resolution
}

// toWallTime returns the time with monotonic clock stripped.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
