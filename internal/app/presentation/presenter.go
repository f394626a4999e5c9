// Package presentation provides the fullscreen mode and the overlay
// auto-hide timer of the slideshow.
package presentation

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/urlshow/internal/app/playback"
	"github.com/osa030/urlshow/internal/infra/clock"
)

// DefaultHideDelay is how long overlay controls stay visible without activity.
const DefaultHideDelay = 5 * time.Second

// Playback is the part of the playback engine the presenter drives.
type Playback interface {
	IsPlaying() bool
	Start() error
	Stop()
}

// View is the presentation state reported to listeners.
type View struct {
	Fullscreen      bool
	ControlsVisible bool
}

// Config holds presenter configuration.
type Config struct {
	HideDelay time.Duration // Overlay auto-hide delay (default 5s)
}

// Presenter tracks fullscreen mode and hides overlay controls after a
// period without pointer activity while fullscreen playback runs.
type Presenter struct {
	mu sync.Mutex

	playback Playback
	clock    clock.Clock

	hideDelay       time.Duration
	fullscreen      bool
	playing         bool
	controlsVisible bool

	hideTimer clock.Timer
	hideGen   uint64

	listeners []func(View)
}

// NewPresenter creates a presenter in windowed mode with controls visible.
func NewPresenter(pb Playback, clk clock.Clock, config Config) *Presenter {
	hideDelay := config.HideDelay
	if hideDelay <= 0 {
		hideDelay = DefaultHideDelay
	}
	return &Presenter{
		playback:        pb,
		clock:           clk,
		hideDelay:       hideDelay,
		playing:         pb.IsPlaying(),
		controlsVisible: true,
	}
}

// Subscribe registers a listener for presentation changes.
func (p *Presenter) Subscribe(l func(View)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// EnterFullscreen switches to fullscreen. A non-empty list that is not yet
// playing starts playing; when playback already runs the hide timer is armed.
func (p *Presenter) EnterFullscreen() error {
	p.mu.Lock()
	if p.fullscreen {
		p.mu.Unlock()
		return nil
	}
	p.fullscreen = true
	p.controlsVisible = true
	zlog.Debug().Msg("presentation: entered fullscreen")
	p.unlockAndNotify()

	// Playback is started outside the lock; the engine reports back through
	// PlaybackChanged, which arms the hide timer.
	if !p.playback.IsPlaying() {
		if err := p.playback.Start(); err != nil && !errors.Is(err, playback.ErrEmptyPlaylist) {
			return err
		}
		return nil
	}

	p.mu.Lock()
	p.playing = true
	p.armHideLocked()
	p.mu.Unlock()
	return nil
}

// ExitFullscreen stops playback, cancels the hide timer and forces the
// controls visible.
func (p *Presenter) ExitFullscreen() {
	p.mu.Lock()
	if !p.fullscreen {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	// Leaving fullscreen always stops playback.
	p.playback.Stop()

	p.mu.Lock()
	p.disarmHideLocked()
	p.fullscreen = false
	p.controlsVisible = true
	zlog.Debug().Msg("presentation: exited fullscreen")
	p.unlockAndNotify()
}

// Toggle enters or exits fullscreen.
func (p *Presenter) Toggle() error {
	if p.IsFullscreen() {
		p.ExitFullscreen()
		return nil
	}
	return p.EnterFullscreen()
}

// PointerActivity shows the controls and restarts the hide countdown.
// It is ignored outside fullscreen.
func (p *Presenter) PointerActivity() {
	p.mu.Lock()
	if !p.fullscreen {
		p.mu.Unlock()
		return
	}

	changed := !p.controlsVisible
	p.controlsVisible = true
	p.armHideLocked()

	if changed {
		p.unlockAndNotify()
		return
	}
	p.mu.Unlock()
}

// PlaybackChanged informs the presenter of playback starting or stopping.
func (p *Presenter) PlaybackChanged(playing bool) {
	p.mu.Lock()
	if p.playing == playing {
		p.mu.Unlock()
		return
	}
	p.playing = playing

	if playing {
		p.armHideLocked()
		p.mu.Unlock()
		return
	}

	p.disarmHideLocked()
	changed := !p.controlsVisible
	p.controlsVisible = true
	if changed {
		p.unlockAndNotify()
		return
	}
	p.mu.Unlock()
}

// IsFullscreen reports whether fullscreen mode is active.
func (p *Presenter) IsFullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen
}

// ControlsVisible reports whether the overlay controls are shown.
func (p *Presenter) ControlsVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controlsVisible
}

// View returns the current presentation state.
func (p *Presenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// Close cancels the hide timer and drops listeners.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disarmHideLocked()
	p.listeners = nil
}

// armHideLocked (re)starts the hide countdown. The timer only runs while
// fullscreen playback is active.
func (p *Presenter) armHideLocked() {
	p.disarmHideLocked()
	if !p.fullscreen || !p.playing {
		return
	}

	gen := p.hideGen
	p.hideTimer = p.clock.AfterFunc(p.hideDelay, func() {
		p.onHide(gen)
	})
}

func (p *Presenter) disarmHideLocked() {
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
	p.hideGen++
}

func (p *Presenter) onHide(gen uint64) {
	p.mu.Lock()
	if gen != p.hideGen || !p.fullscreen || !p.playing {
		p.mu.Unlock()
		return
	}
	p.hideTimer = nil
	p.controlsVisible = false
	zlog.Debug().Msg("presentation: controls hidden")
	p.unlockAndNotify()
}

func (p *Presenter) viewLocked() View {
	return View{
		Fullscreen:      p.fullscreen,
		ControlsVisible: p.controlsVisible,
	}
}

// unlockAndNotify releases the lock and notifies listeners.
// Must be called with lock held.
func (p *Presenter) unlockAndNotify() {
	v := p.viewLocked()
	listeners := p.listeners
	p.mu.Unlock()

	for _, l := range listeners {
		l(v)
	}
}
