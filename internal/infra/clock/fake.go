package clock

import (
	"sync"
	"time"
)

// minPeriod bounds repeating fake timers so Advance always terminates.
const minPeriod = time.Millisecond

// Fake is a manually advanced Clock for tests.
// Callbacks run synchronously inside Advance, in deadline order.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	fake   *Fake
	id     uint64
	when   time.Time
	period time.Duration
	fn     func()
}

// NewFake creates a fake clock starting at the Unix epoch.
func NewFake() *Fake {
	return &Fake{now: time.Unix(0, 0)}
}

// AfterFunc implements Clock.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.add(d, 0, fn)
}

// Every implements Clock.
func (f *Fake) Every(d time.Duration, fn func()) Timer {
	if d < minPeriod {
		d = minPeriod
	}
	return f.add(d, d, fn)
}

func (f *Fake) add(d, period time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{
		fake:   f,
		id:     f.seq,
		when:   f.now.Add(d),
		period: period,
		fn:     fn,
	}
	f.timers = append(f.timers, t)
	return t
}

// Stop implements Timer.
func (t *fakeTimer) Stop() {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()
	t.fake.removeLocked(t)
}

func (f *Fake) removeLocked(t *fakeTimer) {
	for i, ft := range f.timers {
		if ft == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var next *fakeTimer
		for _, t := range f.timers {
			if t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) || (t.when.Equal(next.when) && t.id < next.id) {
				next = t
			}
		}
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}

		f.now = next.when
		if next.period > 0 {
			next.when = next.when.Add(next.period)
		} else {
			f.removeLocked(next)
		}
		fn := next.fn
		f.mu.Unlock()

		fn()
	}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Pending returns the number of armed timers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}
