package playback

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/urlshow/internal/domain/show"
	"github.com/osa030/urlshow/internal/infra/clock"
)

// Errors
var (
	ErrEmptyPlaylist = errors.New("playlist is empty")
	ErrNotPaused     = errors.New("not paused by activity")
)

// DefaultActivityResumeDelay is the quiet period after which activity-paused playback resumes.
const DefaultActivityResumeDelay = 10 * time.Second

// Playlist is the read side of the URL list the engine cycles through.
type Playlist interface {
	Len() int
	At(index int) (string, bool)
}

// Config holds engine configuration.
type Config struct {
	DisplayTimeSec      int           // Advance interval in seconds (coerced to the default when <= 0)
	Looping             bool          // Wrap to the first element after the last one
	ActivityResumeDelay time.Duration // Quiet period before activity-paused playback resumes
}

// Engine is the playback state machine. It owns the current index and the
// playing/looping state; the playlist itself is owned by the caller.
type Engine struct {
	mu sync.Mutex

	playlist Playlist
	clock    clock.Clock

	state          State
	currentIndex   int
	displayTimeSec int
	looping        bool
	resumeDelay    time.Duration

	// Timers. Generations are bumped on every arm/disarm so that a callback
	// racing a cancel sees a stale generation and does nothing.
	advanceTimer clock.Timer
	advanceGen   uint64
	resumeTimer  clock.Timer
	resumeGen    uint64

	listeners []Listener
	closed    bool
}

// NewEngine creates a stopped engine over playlist.
func NewEngine(playlist Playlist, clk clock.Clock, config Config) *Engine {
	resumeDelay := config.ActivityResumeDelay
	if resumeDelay <= 0 {
		resumeDelay = DefaultActivityResumeDelay
	}
	return &Engine{
		playlist:       playlist,
		clock:          clk,
		state:          StateStopped,
		displayTimeSec: show.CoerceDisplayTime(config.DisplayTimeSec),
		looping:        config.Looping,
		resumeDelay:    resumeDelay,
	}
}

// Subscribe registers a listener for engine events.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Start starts playback from the current index.
// It fails with ErrEmptyPlaylist and leaves the state unchanged when the
// playlist is empty. Starting while already playing is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return nil
	}

	n := e.playlist.Len()
	if n == 0 {
		e.mu.Unlock()
		return ErrEmptyPlaylist
	}

	if e.state != StateStopped {
		e.mu.Unlock()
		return nil
	}

	if e.currentIndex >= n || e.currentIndex < 0 {
		e.currentIndex = 0
	}
	e.state = StatePlaying
	e.armAdvanceLocked()

	zlog.Debug().Msgf("playback: started: index=%d length=%d display_time=%ds looping=%v",
		e.currentIndex, n, e.displayTimeSec, e.looping)

	events := []Event{
		e.eventLocked(EventShown),
		e.eventLocked(EventStarted),
	}
	e.unlockAndDispatch(events)
	return nil
}

// Stop stops playback. Every timer is disarmed and the current index is kept,
// so a later Start resumes from the same element.
func (e *Engine) Stop() {
	e.mu.Lock()
	events := e.stopLocked()
	e.unlockAndDispatch(events)
}

// Resume immediately resumes playback paused by activity.
func (e *Engine) Resume() error {
	e.mu.Lock()

	if e.state != StatePausedByActivity {
		e.mu.Unlock()
		return ErrNotPaused
	}

	events := e.resumeLocked()
	e.unlockAndDispatch(events)
	return nil
}

// SignalActivity reports pointer activity. While playing, the advance tick is
// suspended and the resume window is armed; while already paused the window is
// restarted. Activity while stopped is ignored.
func (e *Engine) SignalActivity() {
	e.mu.Lock()

	var events []Event
	switch e.state {
	case StatePlaying:
		e.disarmAdvanceLocked()
		e.state = StatePausedByActivity
		e.armResumeLocked()
		zlog.Debug().Msgf("playback: paused by activity: index=%d resume_after=%v", e.currentIndex, e.resumeDelay)
		events = append(events, e.eventLocked(EventPaused))
	case StatePausedByActivity:
		e.armResumeLocked()
	}

	e.unlockAndDispatch(events)
}

// ShowAt displays the element at index. Out of range requests are ignored.
func (e *Engine) ShowAt(index int) {
	e.mu.Lock()

	n := e.playlist.Len()
	if n == 0 || index < 0 || index >= n {
		e.mu.Unlock()
		return
	}

	e.currentIndex = index
	events := []Event{e.eventLocked(EventShown)}
	e.unlockAndDispatch(events)
}

// ItemRemoved adjusts the current index after the caller removed the element
// at index from the playlist. The engine follows the displayed element; when
// the displayed element itself was removed the index is clamped into range.
// An empty playlist stops playback.
func (e *Engine) ItemRemoved(index int) {
	e.mu.Lock()

	n := e.playlist.Len()
	if n == 0 {
		e.currentIndex = 0
		events := e.stopLocked()
		events = append(events, e.eventLocked(EventIndexChanged))
		e.unlockAndDispatch(events)
		return
	}

	displayedRemoved := index == e.currentIndex
	switch {
	case index < e.currentIndex:
		e.currentIndex--
	case e.currentIndex >= n:
		e.currentIndex = n - 1
	}
	if e.currentIndex < 0 {
		e.currentIndex = 0
	}

	var events []Event
	if displayedRemoved && e.state.IsPlaying() {
		events = append(events, e.eventLocked(EventShown))
	} else {
		events = append(events, e.eventLocked(EventIndexChanged))
	}
	e.unlockAndDispatch(events)
}

// ItemsSwapped relocates the current index after the caller swapped the
// elements at i and j, so the displayed element keeps being tracked.
func (e *Engine) ItemsSwapped(i, j int) {
	e.mu.Lock()

	switch e.currentIndex {
	case i:
		e.currentIndex = j
	case j:
		e.currentIndex = i
	}

	events := []Event{e.eventLocked(EventIndexChanged)}
	e.unlockAndDispatch(events)
}

// Reset stops playback and rewinds to the first element.
func (e *Engine) Reset() {
	e.mu.Lock()
	events := e.stopLocked()
	e.currentIndex = 0
	events = append(events, e.eventLocked(EventIndexChanged))
	e.unlockAndDispatch(events)
}

// SetDisplayTime sets the advance interval. Non-positive values fall back to
// the default. The new interval applies the next time the advance tick is armed.
func (e *Engine) SetDisplayTime(sec int) {
	e.mu.Lock()
	e.displayTimeSec = show.CoerceDisplayTime(sec)
	events := []Event{e.eventLocked(EventSettingsChanged)}
	e.unlockAndDispatch(events)
}

// SetLooping sets the loop flag.
func (e *Engine) SetLooping(looping bool) {
	e.mu.Lock()
	e.looping = looping
	events := []Event{e.eventLocked(EventSettingsChanged)}
	e.unlockAndDispatch(events)
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// IsPlaying reports whether playback is active.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsPlaying()
}

// DisplayTime returns the display time in seconds.
func (e *Engine) DisplayTime() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.displayTimeSec
}

// Looping returns the loop flag.
func (e *Engine) Looping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.looping
}

// Close stops playback and drops all listeners.
func (e *Engine) Close() {
	e.mu.Lock()
	e.disarmAdvanceLocked()
	e.disarmResumeLocked()
	e.state = StateStopped
	e.closed = true
	e.listeners = nil
	e.mu.Unlock()
}

// stopLocked transitions to stopped and disarms every timer.
// Must be called with lock held.
func (e *Engine) stopLocked() []Event {
	e.disarmAdvanceLocked()
	e.disarmResumeLocked()

	if e.state == StateStopped {
		return nil
	}

	e.state = StateStopped
	zlog.Debug().Msgf("playback: stopped: index=%d", e.currentIndex)
	return []Event{e.eventLocked(EventStopped)}
}

// resumeLocked leaves the activity pause and re-arms the advance tick.
// Must be called with lock held.
func (e *Engine) resumeLocked() []Event {
	e.disarmResumeLocked()
	e.state = StatePlaying
	e.armAdvanceLocked()
	zlog.Debug().Msgf("playback: resumed: index=%d", e.currentIndex)
	return []Event{e.eventLocked(EventResumed)}
}

// advanceLocked moves to the next element, wrapping or stopping at the end.
// Must be called with lock held.
func (e *Engine) advanceLocked() []Event {
	n := e.playlist.Len()
	if n == 0 {
		return e.stopLocked()
	}

	next := e.currentIndex + 1
	if next >= n {
		if !e.looping {
			e.currentIndex = n - 1
			events := []Event{e.eventLocked(EventFinished)}
			return append(events, e.stopLocked()...)
		}
		next = 0
	}

	e.currentIndex = next
	return []Event{e.eventLocked(EventShown)}
}

func (e *Engine) onTick(gen uint64) {
	e.mu.Lock()
	if gen != e.advanceGen || e.state != StatePlaying {
		e.mu.Unlock()
		return
	}
	events := e.advanceLocked()
	e.unlockAndDispatch(events)
}

func (e *Engine) onInactivity(gen uint64) {
	e.mu.Lock()
	if gen != e.resumeGen || e.state != StatePausedByActivity {
		e.mu.Unlock()
		return
	}
	e.resumeTimer = nil
	events := e.resumeLocked()
	e.unlockAndDispatch(events)
}

func (e *Engine) armAdvanceLocked() {
	e.disarmAdvanceLocked()
	gen := e.advanceGen
	interval := time.Duration(e.displayTimeSec) * time.Second
	e.advanceTimer = e.clock.Every(interval, func() {
		e.onTick(gen)
	})
}

func (e *Engine) disarmAdvanceLocked() {
	if e.advanceTimer != nil {
		e.advanceTimer.Stop()
		e.advanceTimer = nil
	}
	e.advanceGen++
}

// armResumeLocked (re)starts the inactivity window.
func (e *Engine) armResumeLocked() {
	e.disarmResumeLocked()
	gen := e.resumeGen
	e.resumeTimer = e.clock.AfterFunc(e.resumeDelay, func() {
		e.onInactivity(gen)
	})
}

func (e *Engine) disarmResumeLocked() {
	if e.resumeTimer != nil {
		e.resumeTimer.Stop()
		e.resumeTimer = nil
	}
	e.resumeGen++
}

func (e *Engine) snapshotLocked() Snapshot {
	n := e.playlist.Len()
	current, _ := e.playlist.At(e.currentIndex)
	return Snapshot{
		State:        e.state,
		CurrentIndex: e.currentIndex,
		CurrentURL:   current,
		Length:       n,
		Looping:      e.looping,
		DisplayTime:  e.displayTimeSec,
	}
}

func (e *Engine) eventLocked(t EventType) Event {
	return Event{Type: t, Snapshot: e.snapshotLocked()}
}

// unlockAndDispatch releases the lock and delivers events in order.
// Must be called with lock held.
func (e *Engine) unlockAndDispatch(events []Event) {
	listeners := e.listeners
	e.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}
