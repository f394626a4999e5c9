// Package session provides the session manager, the host that wires the
// playlist, playback engine, presenter and persistence together.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/urlshow/internal/app/filter"
	"github.com/osa030/urlshow/internal/app/notification"
	"github.com/osa030/urlshow/internal/app/persistence"
	"github.com/osa030/urlshow/internal/app/playback"
	"github.com/osa030/urlshow/internal/app/presentation"
	"github.com/osa030/urlshow/internal/app/session/state"
	"github.com/osa030/urlshow/internal/domain/playlist"
	"github.com/osa030/urlshow/internal/domain/show"
	"github.com/osa030/urlshow/internal/domain/slide"
	"github.com/osa030/urlshow/internal/infra/clock"
	"github.com/osa030/urlshow/internal/infra/config"
)

var (
	ErrSessionClosed       = errors.New("session is closed")
	ErrAlreadyBootstrapped = errors.New("session is already bootstrapped")
	ErrNotConfirmed        = errors.New("operation not confirmed")
	ErrNothingToShare      = errors.New("nothing to share")
	ErrNoValidURLs         = errors.New("no valid urls")
)

// Renderer receives the slideshow status after every change.
// Renderers are called with the session lock held and must not call back
// into the Manager.
type Renderer interface {
	StateChanged(status show.Status)
}

// Deps holds the collaborators of a Manager.
type Deps struct {
	Store     persistence.Store
	Clock     clock.Clock      // Defaults to the wall clock
	Confirmer Confirmer        // Defaults to AlwaysConfirm
	Now       func() time.Time // Defaults to time.Now
}

// Rejection describes a URL refused by the filter chain.
type Rejection struct {
	URL     string
	Code    string
	Message string
}

// AddResult is the outcome of AddURLs.
type AddResult struct {
	Added    int
	Rejected []Rejection
}

// Manager manages the slideshow session.
type Manager struct {
	// mu serializes operations and timer callbacks.
	mu sync.Mutex
	// inOp is set while an operation runs; component events are rendered
	// once at the end of the operation instead of one by one.
	inOp bool

	// Configuration
	config *config.Config

	// Components
	stateMgr     *state.Manager
	playlist     *playlist.Store
	engine       *playback.Engine
	presenter    *presentation.Presenter
	persist      *persistence.Adapter
	filterChain  *filter.Chain
	notification *notification.Manager
	confirmer    Confirmer
	now          func() time.Time

	renderers []Renderer

	done chan struct{}
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("settings store is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewWall()
	}
	if deps.Confirmer == nil {
		deps.Confirmer = AlwaysConfirm
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	m := &Manager{
		config:       cfg,
		stateMgr:     state.New(uuid.New().String()),
		playlist:     playlist.New(),
		persist:      persistence.NewAdapter(deps.Store),
		filterChain:  filter.NewChain(),
		notification: notification.NewManager(),
		confirmer:    deps.Confirmer,
		now:          deps.Now,
		done:         make(chan struct{}),
	}

	clk := lockedClock{clock: deps.Clock, mu: &m.mu}
	m.engine = playback.NewEngine(m.playlist, clk, playback.Config{
		DisplayTimeSec:      cfg.Playback.DefaultDisplayTimeSec,
		Looping:             cfg.Looping(),
		ActivityResumeDelay: cfg.ActivityResumeDelay(),
	})
	m.presenter = presentation.NewPresenter(m.engine, clk, presentation.Config{
		HideDelay: cfg.UIHideDelay(),
	})
	m.renderers = []Renderer{m.notification}

	m.engine.Subscribe(m.onPlaybackEvent)
	m.presenter.Subscribe(m.onViewChanged)

	if err := m.setupFilters(); err != nil {
		return nil, err
	}

	return m, nil
}

// setupFilters initializes the filter chain.
func (m *Manager) setupFilters() error {
	cfg := m.config

	// HostPatternFilter
	if cfg.IsFilterEnabled("host_pattern_filter") {
		f := filter.NewHostPatternFilter()
		if err := f.ValidateConfig(cfg.GetFilterSettings("host_pattern_filter")); err != nil {
			return errors.Wrap(err, "failed to validate host pattern filter config")
		}
		m.filterChain.Add(f)
	}

	// DuplicateURLFilter
	if cfg.IsFilterEnabled("duplicate_url_filter") {
		m.filterChain.Add(filter.NewDuplicateURLFilter(m.playlist))
	}

	for _, f := range m.filterChain.Filters() {
		zlog.Info().Msgf("registered URL filter: name=%s", f.Name())
	}
	return nil
}

// AddRenderer registers an additional render sink.
func (m *Manager) AddRenderer(r Renderer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderers = append(m.renderers, r)
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Subscribe passes the current status to initial and then registers stream
// for every later notification. Broadcasts run with the session locked, so
// none can reach stream before initial returns and none is missed.
// On a closed session only initial runs and the returned ID is empty.
func (m *Manager) Subscribe(stream notification.Stream, initial func(show.Status) error) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := initial(m.statusLocked()); err != nil {
		return "", err
	}
	if m.stateMgr.IsClosed() {
		return "", nil
	}
	return m.notification.Subscribe(stream), nil
}

// Unsubscribe removes a subscription made with Subscribe.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.notification.Unsubscribe(subscriptionID)
}

// Done returns a channel that is closed when the session closes.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Info returns the session lifecycle state.
func (m *Manager) Info() state.Info {
	return m.stateMgr.Info()
}

// Message returns the configured user-facing message for code.
func (m *Manager) Message(code string) string {
	return m.config.GetMessage(code)
}

// Bootstrap restores persisted settings, applies share link overrides from
// query and starts fullscreen or playback as the link requests.
func (m *Manager) Bootstrap(ctx context.Context, query string) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	if !m.stateMgr.Activate(m.now()) {
		return ErrAlreadyBootstrapped
	}

	settings := m.defaultSettings()
	if p, ok := m.persist.Load(ctx); ok {
		settings = p.Apply(settings)
		restored := slide.NormalizeAll(settings.URLs)
		if dropped := len(settings.URLs) - len(restored); dropped > 0 {
			zlog.Warn().Msgf("dropped empty stored urls: count=%d", dropped)
		}
		settings.URLs = restored
		zlog.Info().Msgf("restored settings: urls=%d display_time=%ds looping=%v",
			len(settings.URLs), settings.DisplayTime, settings.IsLooping)
	}
	m.playlist.Replace(settings.URLs)
	m.engine.SetDisplayTime(settings.DisplayTime)
	m.engine.SetLooping(settings.IsLooping)
	m.engine.Reset()

	link := persistence.DecodeShareLink(query)
	changed := false

	if link.URLs != nil {
		if urls := m.admitLocked(ctx, link.URLs, filter.SourceShareLink); len(urls) > 0 {
			m.playlist.Replace(urls)
			m.engine.Reset()
			changed = true
		}
	}
	if link.DisplayTime != nil {
		m.engine.SetDisplayTime(*link.DisplayTime)
		changed = true
	}
	if link.Looping != nil {
		m.engine.SetLooping(*link.Looping)
		changed = true
	}
	if changed {
		m.saveLocked(ctx)
	}

	fullscreen := link.Fullscreen != nil && *link.Fullscreen
	playing := link.Playing != nil && *link.Playing && m.playlist.Len() > 0

	switch {
	case fullscreen && playing:
		if err := m.presenter.EnterFullscreen(); err != nil {
			return errors.Wrap(err, "failed to enter fullscreen")
		}
		if err := m.engine.Start(); err != nil {
			return errors.Wrap(err, "failed to start playback")
		}
	case fullscreen:
		if err := m.presenter.EnterFullscreen(); err != nil {
			return errors.Wrap(err, "failed to enter fullscreen")
		}
	case playing:
		if err := m.engine.Start(); err != nil {
			return errors.Wrap(err, "failed to start playback")
		}
	}

	zlog.Info().Msgf("session bootstrapped: session_id=%s urls=%d fullscreen=%v playing=%v",
		m.stateMgr.GetSessionID(), m.playlist.Len(), m.presenter.IsFullscreen(), m.engine.IsPlaying())
	return nil
}

// AddURLs adds every non-empty line of text to the playlist. Lines refused
// by the filter chain are reported in the result and not counted. Text
// without any usable line fails with ErrNoValidURLs.
func (m *Manager) AddURLs(ctx context.Context, text string) (AddResult, error) {
	if err := m.begin(); err != nil {
		return AddResult{}, err
	}
	defer m.end()

	var result AddResult
	for _, line := range slide.SplitLines(text) {
		u, ok := slide.Normalize(line)
		if !ok {
			continue
		}
		check := m.filterChain.Execute(ctx, filter.Request{URL: u, Source: filter.SourceUser})
		if !check.Accepted {
			zlog.Info().Msgf("url rejected: url=%s code=%s", u, check.Code)
			result.Rejected = append(result.Rejected, Rejection{
				URL:     u,
				Code:    check.Code,
				Message: m.config.GetMessage(check.Code),
			})
			continue
		}
		if m.playlist.Add(u) {
			result.Added++
		}
	}

	zlog.Debug().Msgf("session: urls added: added=%d rejected=%d total=%d", result.Added, len(result.Rejected), m.playlist.Len())
	if result.Added == 0 {
		if len(result.Rejected) == 0 {
			return result, ErrNoValidURLs
		}
		return result, nil
	}
	m.saveLocked(ctx)
	return result, nil
}

// RemoveURL removes the element at index after confirmation.
// It reports false when index is out of range.
func (m *Manager) RemoveURL(ctx context.Context, index int) (bool, error) {
	if !m.confirmer.ConfirmDestructive(ctx, "remove_url") {
		return false, ErrNotConfirmed
	}
	if err := m.begin(); err != nil {
		return false, err
	}
	defer m.end()

	if !m.playlist.Remove(index) {
		return false, nil
	}
	m.engine.ItemRemoved(index)
	m.saveLocked(ctx)
	return true, nil
}

// MoveURL swaps the element at index with its neighbour in direction (-1 or +1).
// It returns the new index of the element and false when the move is out of range.
func (m *Manager) MoveURL(ctx context.Context, index, direction int) (int, bool, error) {
	if err := m.begin(); err != nil {
		return 0, false, err
	}
	defer m.end()

	to, ok := m.playlist.Move(index, direction)
	if !ok {
		return index, false, nil
	}
	m.engine.ItemsSwapped(index, to)
	m.saveLocked(ctx)
	return to, true, nil
}

// SetDisplayTime parses raw and sets the display time. Invalid input falls
// back to the default. It returns the applied value in seconds.
func (m *Manager) SetDisplayTime(ctx context.Context, raw string) (int, error) {
	if err := m.begin(); err != nil {
		return 0, err
	}
	defer m.end()

	sec := show.ParseDisplayTime(raw)
	m.engine.SetDisplayTime(sec)
	m.saveLocked(ctx)
	return sec, nil
}

// SetLooping sets the loop flag.
func (m *Manager) SetLooping(ctx context.Context, looping bool) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	m.engine.SetLooping(looping)
	m.saveLocked(ctx)
	return nil
}

// Start starts playback. It fails with playback.ErrEmptyPlaylist when there
// is nothing to show.
func (m *Manager) Start() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	return m.engine.Start()
}

// Stop stops playback.
func (m *Manager) Stop() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	m.engine.Stop()
	return nil
}

// TogglePlayback starts playback when stopped and stops it otherwise.
func (m *Manager) TogglePlayback() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	if m.engine.IsPlaying() {
		m.engine.Stop()
		return nil
	}
	return m.engine.Start()
}

// ShowAt displays the element at index. Out of range requests are ignored.
func (m *Manager) ShowAt(index int) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	m.engine.ShowAt(index)
	return nil
}

// PointerActivity reports pointer movement. It pauses playback until the
// pointer rests and reveals fullscreen controls.
func (m *Manager) PointerActivity() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	m.engine.SignalActivity()
	m.presenter.PointerActivity()
	return nil
}

// ResumeNow resumes playback paused by activity without waiting.
func (m *Manager) ResumeNow() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	return m.engine.Resume()
}

// EnterFullscreen enters fullscreen, starting playback when possible.
func (m *Manager) EnterFullscreen() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	return m.presenter.EnterFullscreen()
}

// ExitFullscreen leaves fullscreen and stops playback.
func (m *Manager) ExitFullscreen() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	m.presenter.ExitFullscreen()
	return nil
}

// ToggleFullscreen enters or leaves fullscreen.
func (m *Manager) ToggleFullscreen() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	return m.presenter.Toggle()
}

// Escape leaves fullscreen when active. It reports whether it did anything.
func (m *Manager) Escape() (bool, error) {
	if err := m.begin(); err != nil {
		return false, err
	}
	defer m.end()

	if !m.presenter.IsFullscreen() {
		return false, nil
	}
	m.presenter.ExitFullscreen()
	return true, nil
}

// ShareLink returns a link that reopens the current slideshow fullscreen.
func (m *Manager) ShareLink() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := persistence.ShareURL(m.config.Share.BaseURL, m.settingsLocked())
	if !ok {
		return "", ErrNothingToShare
	}
	return link, nil
}

// Export returns the settings document and its suggested file name.
func (m *Manager) Export() ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := persistence.Export(m.settingsLocked())
	if err != nil {
		return nil, "", err
	}
	return data, persistence.ExportFileName(m.now()), nil
}

// Import replaces the playlist and settings with an exported document,
// stops playback and rewinds. On failure nothing changes.
func (m *Manager) Import(ctx context.Context, data []byte) error {
	p, err := persistence.Import(data)
	if err != nil {
		code := "import_failed"
		if errors.Is(err, persistence.ErrInvalidFormat) {
			code = "invalid_import"
		}
		m.mu.Lock()
		m.notification.Notify(m.config.GetMessage(code))
		m.mu.Unlock()
		return err
	}

	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	m.playlist.Replace(m.admitLocked(ctx, p.URLs, filter.SourceImport))
	if p.DisplayTime != nil {
		m.engine.SetDisplayTime(*p.DisplayTime)
	}
	if p.Looping != nil {
		m.engine.SetLooping(*p.Looping)
	}
	m.engine.Reset()
	m.saveLocked(ctx)

	zlog.Info().Msgf("settings imported: urls=%d", m.playlist.Len())
	m.notification.Notify(m.config.GetMessage("import_done"))
	return nil
}

// ClearSettings stops playback, leaves fullscreen, restores the default
// settings and deletes the persisted snapshot, after confirmation.
func (m *Manager) ClearSettings(ctx context.Context) error {
	if !m.confirmer.ConfirmDestructive(ctx, "clear_settings") {
		return ErrNotConfirmed
	}
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	m.engine.Stop()
	m.presenter.ExitFullscreen()

	defaults := m.defaultSettings()
	m.playlist.Clear()
	m.engine.Reset()
	m.engine.SetDisplayTime(defaults.DisplayTime)
	m.engine.SetLooping(defaults.IsLooping)

	if err := m.persist.Clear(ctx); err != nil {
		zlog.Warn().Msgf("failed to clear persisted settings: %v", err)
	}
	zlog.Info().Msg("settings cleared")
	return nil
}

// Status returns the current slideshow status.
func (m *Manager) Status() show.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Close stops every timer and drops all subscribers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stateMgr.Close() {
		return
	}
	m.presenter.Close()
	m.engine.Close()
	m.notification.Close()
	close(m.done)
	zlog.Info().Msgf("session closed: session_id=%s", m.stateMgr.GetSessionID())
}

// begin locks the session for an operation.
func (m *Manager) begin() error {
	m.mu.Lock()
	if m.stateMgr.IsClosed() {
		m.mu.Unlock()
		return ErrSessionClosed
	}
	m.inOp = true
	return nil
}

// end renders the resulting status and unlocks.
func (m *Manager) end() {
	m.inOp = false
	m.renderLocked()
	m.mu.Unlock()
}

// onPlaybackEvent runs with mu held, either inside an operation or from a
// timer callback.
func (m *Manager) onPlaybackEvent(ev playback.Event) {
	zlog.Debug().Msgf("session: playback event: type=%s index=%d state=%s",
		ev.Type, ev.Snapshot.CurrentIndex, ev.Snapshot.State)

	m.presenter.PlaybackChanged(ev.Snapshot.Playing())

	if ev.Type == playback.EventFinished {
		zlog.Info().Msgf("slideshow finished: index=%d length=%d", ev.Snapshot.CurrentIndex, ev.Snapshot.Length)
	}
	if !m.inOp {
		m.renderLocked()
	}
}

// onViewChanged runs with mu held.
func (m *Manager) onViewChanged(view presentation.View) {
	if !m.inOp {
		m.renderLocked()
	}
}

func (m *Manager) renderLocked() {
	status := m.statusLocked()
	for _, r := range m.renderers {
		r.StateChanged(status)
	}
}

func (m *Manager) statusLocked() show.Status {
	snap := m.engine.Snapshot()
	view := m.presenter.View()
	return show.Status{
		URLs:             m.playlist.URLs(),
		CurrentIndex:     snap.CurrentIndex,
		CurrentURL:       snap.CurrentURL,
		State:            snap.State.String(),
		Playing:          snap.Playing(),
		PausedByActivity: snap.State == playback.StatePausedByActivity,
		Looping:          snap.Looping,
		DisplayTime:      snap.DisplayTime,
		Fullscreen:       view.Fullscreen,
		ControlsVisible:  view.ControlsVisible,
	}
}

func (m *Manager) settingsLocked() persistence.Settings {
	return persistence.Settings{
		URLs:        m.playlist.URLs(),
		DisplayTime: m.engine.DisplayTime(),
		IsLooping:   m.engine.Looping(),
	}
}

func (m *Manager) defaultSettings() persistence.Settings {
	return persistence.Settings{
		URLs:        []string{},
		DisplayTime: m.config.Playback.DefaultDisplayTimeSec,
		IsLooping:   m.config.Looping(),
	}
}

// saveLocked persists the current settings. Failures are logged only.
func (m *Manager) saveLocked(ctx context.Context) {
	err := m.persist.Save(ctx, m.settingsLocked())
	m.stateMgr.RecordSave(m.now(), err)
	if err != nil {
		zlog.Warn().Msgf("failed to save settings: %v", err)
	}
}

// admitLocked normalizes urls and drops the ones refused by the filter chain.
func (m *Manager) admitLocked(ctx context.Context, urls []string, source filter.Source) []string {
	admitted := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, ok := slide.Normalize(raw)
		if !ok {
			continue
		}
		if check := m.filterChain.Execute(ctx, filter.Request{URL: u, Source: source}); !check.Accepted {
			zlog.Info().Msgf("url rejected: url=%s source=%s code=%s", u, source, check.Code)
			continue
		}
		admitted = append(admitted, u)
	}
	return admitted
}
