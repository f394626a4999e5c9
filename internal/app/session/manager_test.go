package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/urlshow/internal/app/notification"
	"github.com/osa030/urlshow/internal/app/persistence"
	"github.com/osa030/urlshow/internal/app/playback"
	"github.com/osa030/urlshow/internal/app/session/state"
	"github.com/osa030/urlshow/internal/domain/show"
	"github.com/osa030/urlshow/internal/infra/clock"
	"github.com/osa030/urlshow/internal/infra/config"
	"github.com/osa030/urlshow/internal/infra/kvstore"
)

type recorder struct {
	statuses []show.Status
}

func (r *recorder) StateChanged(s show.Status) {
	r.statuses = append(r.statuses, s)
}

func (r *recorder) last() show.Status {
	return r.statuses[len(r.statuses)-1]
}

type messageStream struct {
	mu       sync.Mutex
	messages []string
}

func (s *messageStream) Send(n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Kind == notification.KindMessage {
		s.messages = append(s.messages, n.Message)
	}
	return nil
}

type fixture struct {
	m     *Manager
	clk   *clock.Fake
	store *kvstore.Memory
	rec   *recorder
}

func newFixture(t *testing.T, mutate func(cfg *config.Config, deps *Deps)) *fixture {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	f := &fixture{
		clk:   clock.NewFake(),
		store: kvstore.NewMemory(),
		rec:   &recorder{},
	}
	deps := Deps{
		Store: f.store,
		Clock: f.clk,
		Now:   func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(cfg, &deps)
	}

	f.m, err = NewManager(cfg, deps)
	require.NoError(t, err)
	f.m.AddRenderer(f.rec)
	t.Cleanup(f.m.Close)
	return f
}

func (f *fixture) stored(t *testing.T) string {
	t.Helper()
	raw, ok, err := f.store.Get(context.Background(), persistence.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	return raw
}

func TestManager_AddURLs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.m.AddURLs(ctx, "a.com\n\n  http://b.com  \r\n")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Empty(t, result.Rejected)

	assert.Equal(t, []string{"https://a.com", "http://b.com"}, f.m.Status().URLs)
	assert.JSONEq(t, `{"urls":["https://a.com","http://b.com"],"displayTime":5,"isLooping":true}`, f.stored(t))
	assert.Equal(t, []string{"https://a.com", "http://b.com"}, f.rec.last().URLs)

	// duplicates are allowed without the duplicate filter
	result, err = f.m.AddURLs(ctx, "a.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	_, err = f.m.AddURLs(ctx, "  \n \n")
	assert.True(t, errors.Is(err, ErrNoValidURLs))
	assert.Equal(t, "no_valid_urls", MessageCode(err))
}

func TestManager_Filters(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, _ *Deps) {
		cfg.Filters = map[string]config.FilterConfig{
			"host_pattern_filter": {
				Enabled:  true,
				Settings: map[string]any{"patterns": []string{"*.example.com"}},
			},
			"duplicate_url_filter": {Enabled: true},
		}
	})

	result, err := f.m.AddURLs(context.Background(), "www.example.com\nevil.com\nwww.example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	require.Len(t, result.Rejected, 2)
	assert.Equal(t, Rejection{URL: "https://evil.com", Code: "host_not_allowed", Message: "The host is not allowed."}, result.Rejected[0])
	assert.Equal(t, "duplicate_url", result.Rejected[1].Code)

	// every line rejected is not an input error
	result, err = f.m.AddURLs(context.Background(), "evil.com")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
}

func TestManager_InvalidFilterConfig(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Filters = map[string]config.FilterConfig{
		"host_pattern_filter": {Enabled: true},
	}

	_, err = NewManager(cfg, Deps{Store: kvstore.NewMemory(), Clock: clock.NewFake()})
	assert.Error(t, err)

	_, err = NewManager(cfg, Deps{})
	assert.Error(t, err, "a store is required")
}

func TestManager_StartEmpty(t *testing.T) {
	f := newFixture(t, nil)

	err := f.m.Start()
	assert.True(t, errors.Is(err, playback.ErrEmptyPlaylist))
	assert.Equal(t, "empty_playlist", MessageCode(err))
	assert.Equal(t, "Please add some URLs first!", f.m.Message(MessageCode(err)))
	assert.False(t, f.m.Status().Playing)
}

func TestManager_PlaybackRendersOnTick(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com\nb.com")
	require.NoError(t, err)
	_, err = f.m.SetDisplayTime(ctx, "2")
	require.NoError(t, err)

	require.NoError(t, f.m.Start())
	rendered := len(f.rec.statuses)
	assert.Equal(t, "playing", f.rec.last().State)
	assert.Equal(t, "https://a.com", f.rec.last().CurrentURL)

	f.clk.Advance(2 * time.Second)
	assert.Equal(t, rendered+1, len(f.rec.statuses), "a tick renders once")
	assert.Equal(t, 1, f.rec.last().CurrentIndex)
	assert.Equal(t, 2, f.rec.last().Position())

	f.clk.Advance(2 * time.Second)
	assert.Equal(t, 0, f.rec.last().CurrentIndex, "looping wraps")

	require.NoError(t, f.m.TogglePlayback())
	assert.False(t, f.m.Status().Playing)
	assert.Equal(t, 0, f.clk.Pending())

	require.NoError(t, f.m.TogglePlayback())
	assert.True(t, f.m.Status().Playing)
	require.NoError(t, f.m.Stop())
	assert.Equal(t, 0, f.clk.Pending())
}

func TestManager_SetDisplayTimeAndLooping(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	sec, err := f.m.SetDisplayTime(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 5, sec)

	sec, err = f.m.SetDisplayTime(ctx, "12s")
	require.NoError(t, err)
	assert.Equal(t, 12, sec)

	require.NoError(t, f.m.SetLooping(ctx, false))

	status := f.m.Status()
	assert.Equal(t, 12, status.DisplayTime)
	assert.False(t, status.Looping)
	assert.JSONEq(t, `{"urls":[],"displayTime":12,"isLooping":false}`, f.stored(t))
}

func TestManager_RemoveURL(t *testing.T) {
	f := newFixture(t, func(_ *config.Config, deps *Deps) {
		deps.Confirmer = ContextConfirmer
	})
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com\nb.com\nc.com")
	require.NoError(t, err)
	require.NoError(t, f.m.ShowAt(2))

	ok, err := f.m.RemoveURL(ctx, 0)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrNotConfirmed))
	assert.Len(t, f.m.Status().URLs, 3)

	confirmed := WithConfirmation(ctx, true)
	ok, err = f.m.RemoveURL(confirmed, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	status := f.m.Status()
	assert.Equal(t, []string{"https://b.com", "https://c.com"}, status.URLs)
	assert.Equal(t, 1, status.CurrentIndex, "index follows the displayed element")
	assert.Equal(t, "https://c.com", status.CurrentURL)
	assert.JSONEq(t, `{"urls":["https://b.com","https://c.com"],"displayTime":5,"isLooping":true}`, f.stored(t))

	ok, err = f.m.RemoveURL(confirmed, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_RemoveLastStopsPlayback(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com")
	require.NoError(t, err)
	require.NoError(t, f.m.Start())

	ok, err := f.m.RemoveURL(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	status := f.m.Status()
	assert.False(t, status.Playing)
	assert.Empty(t, status.URLs)
	assert.Equal(t, 0, f.clk.Pending())
}

func TestManager_MoveURL(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com\nb.com\nc.com")
	require.NoError(t, err)

	to, ok, err := f.m.MoveURL(ctx, 0, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, to)

	status := f.m.Status()
	assert.Equal(t, []string{"https://b.com", "https://a.com", "https://c.com"}, status.URLs)
	assert.Equal(t, 1, status.CurrentIndex, "index follows the displayed element")

	_, ok, err = f.m.MoveURL(ctx, 0, -1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_ActivityPauseAndResume(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com\nb.com")
	require.NoError(t, err)
	require.NoError(t, f.m.Start())

	require.NoError(t, f.m.PointerActivity())
	status := f.m.Status()
	assert.True(t, status.PausedByActivity)
	assert.True(t, status.Playing)
	assert.Equal(t, "paused_by_activity", status.State)

	f.clk.Advance(10 * time.Second)
	status = f.m.Status()
	assert.False(t, status.PausedByActivity)
	assert.Equal(t, 0, status.CurrentIndex, "no advance while paused")
	assert.Equal(t, "playing", f.rec.last().State, "timer-driven resume is rendered")

	require.NoError(t, f.m.PointerActivity())
	require.NoError(t, f.m.ResumeNow())
	assert.False(t, f.m.Status().PausedByActivity)

	err = f.m.ResumeNow()
	assert.True(t, errors.Is(err, playback.ErrNotPaused))
	assert.Equal(t, "not_paused", MessageCode(err))
}

func TestManager_Fullscreen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	handled, err := f.m.Escape()
	require.NoError(t, err)
	assert.False(t, handled)

	_, err = f.m.AddURLs(ctx, "a.com\nb.com")
	require.NoError(t, err)

	require.NoError(t, f.m.EnterFullscreen())
	status := f.m.Status()
	assert.True(t, status.Fullscreen)
	assert.True(t, status.Playing, "entering fullscreen starts playback")
	assert.True(t, status.ControlsVisible)

	f.clk.Advance(5 * time.Second)
	assert.False(t, f.rec.last().ControlsVisible, "hide timer is rendered")

	require.NoError(t, f.m.PointerActivity())
	assert.True(t, f.m.Status().ControlsVisible)

	handled, err = f.m.Escape()
	require.NoError(t, err)
	assert.True(t, handled)

	status = f.m.Status()
	assert.False(t, status.Fullscreen)
	assert.False(t, status.Playing, "leaving fullscreen stops playback")
	assert.True(t, status.ControlsVisible)
	assert.Equal(t, 0, f.clk.Pending())

	require.NoError(t, f.m.ToggleFullscreen())
	assert.True(t, f.m.Status().Fullscreen)
	require.NoError(t, f.m.ExitFullscreen())
	assert.False(t, f.m.Status().Fullscreen)
}

func TestManager_ShareLink(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.ShareLink()
	assert.True(t, errors.Is(err, ErrNothingToShare))
	assert.Equal(t, "nothing_to_share", MessageCode(err))

	_, err = f.m.AddURLs(ctx, "a.com")
	require.NoError(t, err)
	require.NoError(t, f.m.SetLooping(ctx, false))

	link, err := f.m.ShareLink()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/?urls=https%253A%252F%252Fa.com&loop=false&fullscreen=true&playing=true", link)
}

type totalStream struct {
	mu     sync.Mutex
	totals []int
}

func (s *totalStream) record(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = append(s.totals, total)
}

func (s *totalStream) Send(n *notification.Notification) error {
	if n.Kind == notification.KindStatus {
		s.record(len(n.Status.URLs))
	}
	return nil
}

func TestManager_SubscribeInitialStateFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	const adds = 20

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < adds; i++ {
			_, err := f.m.AddURLs(ctx, "a.com")
			assert.NoError(t, err)
		}
	}()

	stream := &totalStream{}
	var initial int
	id, err := f.m.Subscribe(stream, func(s show.Status) error {
		initial = len(s.URLs)
		stream.record(-1)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	wg.Wait()

	stream.mu.Lock()
	defer stream.mu.Unlock()
	require.NotEmpty(t, stream.totals)
	assert.Equal(t, -1, stream.totals[0], "initial state comes first")

	// every later change arrives exactly once, in order
	want := []int{-1}
	for total := initial + 1; total <= adds; total++ {
		want = append(want, total)
	}
	assert.Equal(t, want, stream.totals)

	f.m.Unsubscribe(id)
	assert.Equal(t, 0, f.m.GetNotificationManager().SubscriberCount())
}

func TestManager_SubscribeClosed(t *testing.T) {
	f := newFixture(t, nil)
	f.m.Close()

	calls := 0
	id, err := f.m.Subscribe(&totalStream{}, func(show.Status) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, f.m.GetNotificationManager().SubscriberCount())
}

func TestManager_ExportImport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	stream := &messageStream{}
	f.m.GetNotificationManager().Subscribe(stream)

	_, err := f.m.AddURLs(ctx, "a.com\nb.com")
	require.NoError(t, err)

	data, name, err := f.m.Export()
	require.NoError(t, err)
	assert.Equal(t, "url-slideshow-2024-05-06.json", name)
	assert.JSONEq(t, `{"urls":["https://a.com","https://b.com"],"displayTime":5,"isLooping":true}`, string(data))

	require.NoError(t, f.m.ShowAt(1))
	require.NoError(t, f.m.Start())

	err = f.m.Import(ctx, []byte(`{"urls":["x.com","  "],"displayTime":9,"isLooping":false}`))
	require.NoError(t, err)

	status := f.m.Status()
	assert.Equal(t, []string{"https://x.com"}, status.URLs)
	assert.Equal(t, 9, status.DisplayTime)
	assert.False(t, status.Looping)
	assert.False(t, status.Playing, "import stops playback")
	assert.Equal(t, 0, status.CurrentIndex)
	assert.JSONEq(t, `{"urls":["https://x.com"],"displayTime":9,"isLooping":false}`, f.stored(t))
	assert.Equal(t, []string{"Settings imported successfully!"}, stream.messages)
}

func TestManager_ImportFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	stream := &messageStream{}
	f.m.GetNotificationManager().Subscribe(stream)

	_, err := f.m.AddURLs(ctx, "a.com")
	require.NoError(t, err)
	before := f.m.Status()
	storedBefore := f.stored(t)

	err = f.m.Import(ctx, []byte(`{"displayTime":3}`))
	assert.True(t, errors.Is(err, persistence.ErrInvalidFormat))
	assert.Equal(t, "invalid_import", MessageCode(err))

	err = f.m.Import(ctx, []byte(`not json`))
	assert.Error(t, err)
	assert.Equal(t, "default_error", MessageCode(err))

	assert.Equal(t, before, f.m.Status())
	assert.Equal(t, storedBefore, f.stored(t))
	assert.Equal(t, []string{
		"Invalid file format.",
		"Error reading file. Please make sure it's a valid JSON file.",
	}, stream.messages)
}

func TestManager_ClearSettings(t *testing.T) {
	f := newFixture(t, func(_ *config.Config, deps *Deps) {
		deps.Confirmer = ContextConfirmer
	})
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com\nb.com")
	require.NoError(t, err)
	_, err = f.m.SetDisplayTime(ctx, "9")
	require.NoError(t, err)
	require.NoError(t, f.m.SetLooping(ctx, false))
	require.NoError(t, f.m.EnterFullscreen())

	err = f.m.ClearSettings(ctx)
	assert.True(t, errors.Is(err, ErrNotConfirmed))
	assert.True(t, f.m.Status().Playing)

	require.NoError(t, f.m.ClearSettings(WithConfirmation(ctx, true)))

	status := f.m.Status()
	assert.Empty(t, status.URLs)
	assert.False(t, status.Playing)
	assert.False(t, status.Fullscreen)
	assert.Equal(t, 5, status.DisplayTime)
	assert.True(t, status.Looping)
	assert.Equal(t, 0, f.clk.Pending())

	_, ok, err := f.store.Get(ctx, persistence.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_Bootstrap(t *testing.T) {
	shareQuery := func(urls ...string) string {
		q, ok := persistence.EncodeShareLink(persistence.Settings{URLs: urls, DisplayTime: 5, IsLooping: true})
		require.True(t, ok)
		return q
	}

	tests := []struct {
		name           string
		persisted      string
		query          string
		wantURLs       []string
		wantDisplay    int
		wantLooping    bool
		wantFullscreen bool
		wantPlaying    bool
		wantStored     string
	}{
		{
			name:        "nothing persisted",
			wantURLs:    []string{},
			wantDisplay: 5,
			wantLooping: true,
		},
		{
			name:        "persisted settings restored",
			persisted:   `{"urls":["https://a.com"],"displayTime":7,"isLooping":false}`,
			wantURLs:    []string{"https://a.com"},
			wantDisplay: 7,
			wantLooping: false,
		},
		{
			name:        "corrupt persisted settings ignored",
			persisted:   `{oops`,
			wantURLs:    []string{},
			wantDisplay: 5,
			wantLooping: true,
		},
		{
			name:           "share link overrides urls and starts fullscreen",
			persisted:      `{"urls":["https://a.com"],"displayTime":7,"isLooping":false}`,
			query:          shareQuery("https://b.com", "https://c.com"),
			wantURLs:       []string{"https://b.com", "https://c.com"},
			wantDisplay:    7,
			wantLooping:    false,
			wantFullscreen: true,
			wantPlaying:    true,
			wantStored:     `{"urls":["https://b.com","https://c.com"],"displayTime":7,"isLooping":false}`,
		},
		{
			name:        "share link settings persisted",
			query:       "?displayTime=3&loop=false",
			wantURLs:    []string{},
			wantDisplay: 3,
			wantLooping: false,
			wantStored:  `{"urls":[],"displayTime":3,"isLooping":false}`,
		},
		{
			name:           "fullscreen only with empty list",
			query:          "fullscreen=true",
			wantURLs:       []string{},
			wantDisplay:    5,
			wantLooping:    true,
			wantFullscreen: true,
		},
		{
			name:           "fullscreen only auto-starts a non-empty list",
			persisted:      `{"urls":["https://a.com"]}`,
			query:          "fullscreen=1",
			wantURLs:       []string{"https://a.com"},
			wantDisplay:    5,
			wantLooping:    true,
			wantFullscreen: true,
			wantPlaying:    true,
		},
		{
			name:        "playing only",
			persisted:   `{"urls":["https://a.com"]}`,
			query:       "playing=true",
			wantURLs:    []string{"https://a.com"},
			wantDisplay: 5,
			wantLooping: true,
			wantPlaying: true,
		},
		{
			name:        "malformed stored urls normalized",
			persisted:   `{"urls":[""," example.com ","ftp.example.org"]}`,
			wantURLs:    []string{"https://example.com", "https://ftp.example.org"},
			wantDisplay: 5,
			wantLooping: true,
		},
		{
			name:        "share link with invalid utf-8",
			query:       "urls=%FF.com,%25FF.com,b.com",
			wantURLs:    []string{"https://\uFFFD.com", "https://%FF.com", "https://b.com"},
			wantDisplay: 5,
			wantLooping: true,
			wantStored:  `{"urls":["https://\uFFFD.com","https://%FF.com","https://b.com"],"displayTime":5,"isLooping":true}`,
		},
		{
			name:        "huge share link display time saturates",
			query:       "displayTime=10000000000",
			wantURLs:    []string{},
			wantDisplay: show.MaxDisplayTimeSec,
			wantLooping: true,
			wantStored:  `{"urls":[],"displayTime":2147483647,"isLooping":true}`,
		},
		{
			name:        "playing ignored for empty list",
			query:       "state=playing",
			wantURLs:    []string{},
			wantDisplay: 5,
			wantLooping: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			if tt.persisted != "" {
				require.NoError(t, f.store.Set(ctx, persistence.StorageKey, tt.persisted))
			}

			require.NoError(t, f.m.Bootstrap(ctx, tt.query))

			status := f.m.Status()
			assert.Equal(t, tt.wantURLs, status.URLs)
			assert.Equal(t, tt.wantDisplay, status.DisplayTime)
			assert.Equal(t, tt.wantLooping, status.Looping)
			assert.Equal(t, tt.wantFullscreen, status.Fullscreen)
			assert.Equal(t, tt.wantPlaying, status.Playing)
			assert.Equal(t, 0, status.CurrentIndex)
			if tt.wantStored != "" {
				assert.JSONEq(t, tt.wantStored, f.stored(t))
			}
			assert.Equal(t, state.PhaseActive, f.m.Info().Phase)
		})
	}
}

func TestManager_BootstrapMalformedStoredList(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, persistence.StorageKey, `{"urls":["","  example.com ","ftp.example.org"]}`))

	require.NoError(t, f.m.Bootstrap(ctx, ""))
	require.NoError(t, f.m.Start())

	status := f.m.Status()
	assert.Equal(t, "https://example.com", status.CurrentURL)
	assert.Len(t, status.URLs, 2)
	for _, u := range status.URLs {
		assert.NotEmpty(t, u)
	}
}

func TestManager_BootstrapOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.m.Bootstrap(ctx, ""))
	err := f.m.Bootstrap(ctx, "")
	assert.True(t, errors.Is(err, ErrAlreadyBootstrapped))

	info := f.m.Info()
	assert.NotEmpty(t, info.SessionID)
	require.NotNil(t, info.StartedAt)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), *info.StartedAt)
}

func TestManager_Close(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.AddURLs(ctx, "a.com")
	require.NoError(t, err)
	require.NoError(t, f.m.EnterFullscreen())
	assert.Equal(t, 2, f.clk.Pending())

	f.m.Close()
	assert.Equal(t, 0, f.clk.Pending())
	assert.Equal(t, state.PhaseClosed, f.m.Info().Phase)

	assert.True(t, errors.Is(f.m.Start(), ErrSessionClosed))
	_, err = f.m.AddURLs(ctx, "b.com")
	assert.True(t, errors.Is(err, ErrSessionClosed))
	_, err = f.m.RemoveURL(ctx, 0)
	assert.True(t, errors.Is(err, ErrSessionClosed))

	// closing twice is fine
	f.m.Close()
}

func TestManager_SaveFailureIsNotFatal(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	m, err := NewManager(cfg, Deps{Store: brokenStore{}, Clock: clock.NewFake()})
	require.NoError(t, err)
	defer m.Close()

	result, err := m.AddURLs(context.Background(), "a.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, m.Info().SaveFailures)
	assert.Nil(t, m.Info().LastSavedAt)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("unavailable")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("unavailable") }
func (brokenStore) Delete(context.Context, string) error      { return errors.New("unavailable") }
