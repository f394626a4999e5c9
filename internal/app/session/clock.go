package session

import (
	"sync"
	"time"

	"github.com/osa030/urlshow/internal/infra/clock"
)

// lockedClock runs every timer callback with mu held, so callbacks are
// serialized with session operations.
type lockedClock struct {
	clock clock.Clock
	mu    sync.Locker
}

func (c lockedClock) AfterFunc(d time.Duration, fn func()) clock.Timer {
	return c.clock.AfterFunc(d, c.wrap(fn))
}

func (c lockedClock) Every(d time.Duration, fn func()) clock.Timer {
	return c.clock.Every(d, c.wrap(fn))
}

func (c lockedClock) wrap(fn func()) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		fn()
	}
}
