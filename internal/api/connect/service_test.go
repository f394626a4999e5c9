package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/urlshow/internal/app/session"
	"github.com/osa030/urlshow/internal/infra/clock"
	"github.com/osa030/urlshow/internal/infra/config"
	"github.com/osa030/urlshow/internal/infra/kvstore"
)

const testToken = "secret"

func newTestServer(t *testing.T) (*session.Manager, string) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Control.Token = testToken

	mgr, err := session.NewManager(cfg, session.Deps{
		Store:     kvstore.NewMemory(),
		Clock:     clock.NewFake(),
		Confirmer: session.ContextConfirmer,
		Now:       func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Bootstrap(context.Background(), ""))

	mux := http.NewServeMux()
	path, handler := NewSlideshowServiceHandler(
		NewSlideshowService(mgr, cfg),
		connect.WithInterceptors(NewControlAuthInterceptor(cfg)),
	)
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		mgr.Close()
		server.Close()
	})
	return mgr, server.URL
}

func TestSlideshowService_Auth(t *testing.T) {
	_, url := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		call  func(c *Client) error
		code  connect.Code
		ok    bool
	}{
		{
			name: "mutation without token",
			call: func(c *Client) error { _, err := c.Start(ctx); return err },
			code: connect.CodeUnauthenticated,
		},
		{
			name:  "mutation with wrong token",
			token: "nope",
			call:  func(c *Client) error { _, err := c.AddURLs(ctx, "a.com"); return err },
			code:  connect.CodeUnauthenticated,
		},
		{
			name:  "mutation with token",
			token: testToken,
			call:  func(c *Client) error { _, err := c.Stop(ctx); return err },
			ok:    true,
		},
		{
			name: "read-only without token",
			call: func(c *Client) error { _, err := c.GetStatus(ctx); return err },
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(NewClient(http.DefaultClient, url, tt.token))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestSlideshowService_Operations(t *testing.T) {
	_, url := newTestServer(t)
	ctx := context.Background()
	c := NewClient(http.DefaultClient, url, testToken)

	r, err := c.Start(ctx)
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Equal(t, "empty_playlist", r.Code)
	assert.Equal(t, "Please add some URLs first!", r.Message)

	r, err = c.GetShareLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nothing_to_share", r.Code)

	r, err = c.AddURLs(ctx, "a.com\nb.com\nc.com")
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, float64(3), r.Fields["added"])
	assert.Equal(t, float64(3), r.Status["total"])

	r, err = c.AddURLs(ctx, " \n ")
	require.NoError(t, err)
	assert.Equal(t, "no_valid_urls", r.Code)

	r, err = c.MoveURL(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, true, r.Fields["moved"])
	assert.Equal(t, []any{"https://b.com", "https://a.com", "https://c.com"}, r.Status["urls"])

	_, err = c.MoveURL(ctx, 0, 2)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	r, err = c.RemoveURL(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "not_confirmed", r.Code)

	r, err = c.RemoveURL(ctx, 2, true)
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, float64(2), r.Status["total"])

	r, err = c.SetDisplayTime(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, float64(8), r.Fields["displayTime"])

	r, err = c.SetLooping(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, false, r.Status["isLooping"])

	r, err = c.ShowAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com", r.Status["currentUrl"])

	r, err = c.EnterFullscreen(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, r.Status["fullscreen"])
	assert.Equal(t, true, r.Status["playing"])

	r, err = c.Activity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "paused_by_activity", r.Status["state"])

	r, err = c.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "playing", r.Status["state"])

	r, err = c.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "not_paused", r.Code)

	r, err = c.Escape(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, r.Fields["handled"])
	assert.Equal(t, false, r.Status["playing"])

	r, err = c.GetShareLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/?urls=https%253A%252F%252Fb.com%2Chttps%253A%252F%252Fa.com&displayTime=8&loop=false&fullscreen=true&playing=true", r.Fields["link"])

	r, err = c.GetStatus(ctx)
	require.NoError(t, err)
	sessionInfo, ok := r.Fields["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "active", sessionInfo["phase"])
	assert.Equal(t, "2024-01-02T03:04:05Z", sessionInfo["startedAt"])
}

func TestSlideshowService_ExportImportClear(t *testing.T) {
	_, url := newTestServer(t)
	ctx := context.Background()
	c := NewClient(http.DefaultClient, url, testToken)

	_, err := c.AddURLs(ctx, "a.com")
	require.NoError(t, err)

	data, name, err := c.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "url-slideshow-2024-01-02.json", name)
	assert.JSONEq(t, `{"urls":["https://a.com"],"displayTime":5,"isLooping":true}`, string(data))

	r, err := c.Import(ctx, []byte(`{"urls":"a.com"}`))
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Equal(t, "invalid_import", r.Code)

	r, err = c.Import(ctx, []byte(`{`))
	require.NoError(t, err)
	assert.Equal(t, "import_failed", r.Code)

	r, err = c.Import(ctx, []byte(`{"urls":["x.com","y.com"],"displayTime":3}`))
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, "Settings imported successfully!", r.Message)
	assert.Equal(t, []any{"https://x.com", "https://y.com"}, r.Status["urls"])
	assert.Equal(t, float64(3), r.Status["displayTime"])

	r, err = c.ClearSettings(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "not_confirmed", r.Code)

	r, err = c.ClearSettings(ctx, true)
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, float64(0), r.Status["total"])
	assert.Equal(t, float64(5), r.Status["displayTime"])
}

func TestSlideshowService_Subscribe(t *testing.T) {
	_, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewClient(http.DefaultClient, url, testToken)

	var kinds []string
	err := c.Subscribe(ctx, func(n map[string]any) bool {
		kind, _ := n["kind"].(string)
		kinds = append(kinds, kind)

		if kind == KindInitialState {
			_, err := c.AddURLs(ctx, "a.com")
			require.NoError(t, err)
			return true
		}

		status, _ := n["status"].(map[string]any)
		return status["total"] != float64(1)
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(kinds), 2)
	assert.Equal(t, KindInitialState, kinds[0])
	assert.Equal(t, "status", kinds[len(kinds)-1])
}

func TestSlideshowService_Closed(t *testing.T) {
	mgr, url := newTestServer(t)
	ctx := context.Background()
	c := NewClient(http.DefaultClient, url, testToken)

	mgr.Close()

	_, err := c.Start(ctx)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))

	// a subscription to a closed session ends right after the initial state
	var count int
	err = c.Subscribe(ctx, func(map[string]any) bool {
		count++
		return true
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotificationStreamAdapter_Dropped(t *testing.T) {
	a := newNotificationStreamAdapter(nil)

	select {
	case <-a.dropped:
		t.Fatal("dropped before being told")
	default:
	}

	a.Dropped()
	a.Dropped()

	select {
	case <-a.dropped:
	default:
		t.Fatal("dropped channel not closed")
	}
}
