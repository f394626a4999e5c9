package connect

import (
	"context"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/urlshow/internal/app/notification"
	"github.com/osa030/urlshow/internal/app/persistence"
	"github.com/osa030/urlshow/internal/app/session"
	"github.com/osa030/urlshow/internal/domain/show"
	"github.com/osa030/urlshow/internal/infra/config"
)

// KindInitialState is the kind of the first notification of a subscription.
const KindInitialState = "initial_state"

// SlideshowService implements the SlideshowService RPC.
type SlideshowService struct {
	session *session.Manager
	config  *config.Config
}

// NewSlideshowService creates a new SlideshowService.
func NewSlideshowService(session *session.Manager, cfg *config.Config) *SlideshowService {
	return &SlideshowService{
		session: session,
		config:  cfg,
	}
}

// GetStatus returns the slideshow status and session information.
func (s *SlideshowService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	info := s.session.Info()
	sessionInfo := map[string]any{
		"sessionId":    info.SessionID,
		"phase":        info.Phase.String(),
		"saveFailures": info.SaveFailures,
		"subscribers":  s.session.GetNotificationManager().SubscriberCount(),
	}
	if info.StartedAt != nil {
		sessionInfo["startedAt"] = info.StartedAt.Format(time.RFC3339)
	}
	if info.LastSavedAt != nil {
		sessionInfo["lastSavedAt"] = info.LastSavedAt.Format(time.RFC3339)
	}

	return s.reply("success", true, map[string]any{"session": sessionInfo})
}

// Start starts playback.
func (s *SlideshowService) Start(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.Start(), nil)
}

// Stop stops playback.
func (s *SlideshowService) Stop(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.Stop(), nil)
}

// TogglePlayback starts or stops playback.
func (s *SlideshowService) TogglePlayback(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.TogglePlayback(), nil)
}

// Resume resumes playback paused by activity.
func (s *SlideshowService) Resume(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.ResumeNow(), nil)
}

// Activity reports pointer activity on the viewer.
func (s *SlideshowService) Activity(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.PointerActivity(), nil)
}

// EnterFullscreen enters fullscreen.
func (s *SlideshowService) EnterFullscreen(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.EnterFullscreen(), nil)
}

// ExitFullscreen leaves fullscreen.
func (s *SlideshowService) ExitFullscreen(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.ExitFullscreen(), nil)
}

// ToggleFullscreen enters or leaves fullscreen.
func (s *SlideshowService) ToggleFullscreen(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.ToggleFullscreen(), nil)
}

// Escape leaves fullscreen when active.
func (s *SlideshowService) Escape(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	handled, err := s.session.Escape()
	return s.result(err, map[string]any{"handled": handled})
}

// AddURLs adds every line of the request text to the playlist.
func (s *SlideshowService) AddURLs(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	result, err := s.session.AddURLs(ctx, req.Msg.GetValue())

	rejected := make([]any, len(result.Rejected))
	for i, r := range result.Rejected {
		rejected[i] = map[string]any{
			"url":     r.URL,
			"code":    r.Code,
			"message": r.Message,
		}
	}
	return s.result(err, map[string]any{
		"added":    result.Added,
		"rejected": rejected,
	})
}

// RemoveURL removes the element at "index". Destructive; "confirm" must be
// set when confirmation is required.
func (s *SlideshowService) RemoveURL(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	index, err := intField(req.Msg, "index")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	ctx = session.WithConfirmation(ctx, boolField(req.Msg, "confirm"))
	removed, err := s.session.RemoveURL(ctx, index)
	return s.result(err, map[string]any{"removed": removed})
}

// MoveURL moves the element at "index" one step in "direction" (-1 or 1).
func (s *SlideshowService) MoveURL(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	index, err := intField(req.Msg, "index")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	direction, err := intField(req.Msg, "direction")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if direction != -1 && direction != 1 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.Newf("direction must be -1 or 1: got=%d", direction))
	}

	to, moved, err := s.session.MoveURL(ctx, index, direction)
	return s.result(err, map[string]any{"moved": moved, "index": to})
}

// SetDisplayTime sets the display time from user input.
func (s *SlideshowService) SetDisplayTime(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	sec, err := s.session.SetDisplayTime(ctx, req.Msg.GetValue())
	return s.result(err, map[string]any{"displayTime": sec})
}

// SetLooping sets the loop flag.
func (s *SlideshowService) SetLooping(
	ctx context.Context,
	req *connect.Request[wrapperspb.BoolValue],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.SetLooping(ctx, req.Msg.GetValue()), nil)
}

// ShowAt displays the element at the given index.
func (s *SlideshowService) ShowAt(
	ctx context.Context,
	req *connect.Request[wrapperspb.Int32Value],
) (*connect.Response[structpb.Struct], error) {
	return s.result(s.session.ShowAt(int(req.Msg.GetValue())), nil)
}

// GetShareLink returns the share link of the current slideshow.
func (s *SlideshowService) GetShareLink(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	link, err := s.session.ShareLink()
	return s.result(err, map[string]any{"link": link})
}

// Export returns the settings document.
func (s *SlideshowService) Export(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	data, name, err := s.session.Export()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return s.reply("success", true, map[string]any{
		"fileName": name,
		"data":     string(data),
	})
}

// Import replaces the slideshow with an exported settings document.
func (s *SlideshowService) Import(
	ctx context.Context,
	req *connect.Request[wrapperspb.BytesValue],
) (*connect.Response[structpb.Struct], error) {
	err := s.session.Import(ctx, req.Msg.GetValue())
	switch {
	case err == nil:
		return s.reply("import_done", true, nil)
	case errors.Is(err, session.ErrSessionClosed):
		return nil, connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, persistence.ErrInvalidFormat):
		return s.reply("invalid_import", false, nil)
	default:
		zlog.Info().Msgf("import failed: %v", err)
		return s.reply("import_failed", false, nil)
	}
}

// ClearSettings restores the defaults and deletes the persisted settings.
func (s *SlideshowService) ClearSettings(
	ctx context.Context,
	req *connect.Request[wrapperspb.BoolValue],
) (*connect.Response[structpb.Struct], error) {
	ctx = session.WithConfirmation(ctx, req.Msg.GetValue())
	return s.result(s.session.ClearSettings(ctx), nil)
}

// Subscribe streams status changes and messages until the client goes away
// or the session closes.
func (s *SlideshowService) Subscribe(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	adapter := newNotificationStreamAdapter(stream)

	subscriptionID, err := s.session.Subscribe(adapter, func(status show.Status) error {
		initial, err := structpb.NewStruct(map[string]any{
			"kind":   KindInitialState,
			"status": status.ToMap(),
		})
		if err != nil {
			return connect.NewError(connect.CodeInternal, err)
		}
		return adapter.send(initial)
	})
	if err != nil {
		return err
	}
	if subscriptionID != "" {
		defer s.session.Unsubscribe(subscriptionID)
	}

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	case <-adapter.dropped:
		return connect.NewError(connect.CodeResourceExhausted, errors.New("subscriber dropped: notifications not consumed in time"))
	}
	return nil
}

// result builds the response of an operation. Errors with a user-facing
// message are reported in the body; anything else becomes an RPC error.
func (s *SlideshowService) result(err error, extra map[string]any) (*connect.Response[structpb.Struct], error) {
	if errors.Is(err, session.ErrSessionClosed) {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	code := session.MessageCode(err)
	if err != nil && code == "default_error" {
		zlog.Error().Msgf("rpc failed: %v", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return s.reply(code, err == nil, extra)
}

func (s *SlideshowService) reply(code string, success bool, extra map[string]any) (*connect.Response[structpb.Struct], error) {
	fields := map[string]any{
		"success": success,
		"code":    code,
		"message": s.config.GetMessage(code),
		"status":  s.session.Status().ToMap(),
	}
	for k, v := range extra {
		fields[k] = v
	}

	body, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(body), nil
}

func intField(st *structpb.Struct, name string) (int, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		return 0, errors.Newf("missing field: %s", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.Newf("field is not a number: %s", name)
	}
	if n.NumberValue != float64(int(n.NumberValue)) {
		return 0, errors.Newf("field is not an integer: %s", name)
	}
	return int(n.NumberValue), nil
}

func boolField(st *structpb.Struct, name string) bool {
	return st.GetFields()[name].GetBoolValue()
}

// notificationToStruct converts a notification for the wire.
func notificationToStruct(n *notification.Notification) (*structpb.Struct, error) {
	fields := map[string]any{
		"sequenceNo": n.SequenceNo,
		"kind":       n.Kind.String(),
	}
	switch n.Kind {
	case notification.KindStatus:
		fields["status"] = n.Status.ToMap()
	case notification.KindMessage:
		fields["message"] = n.Message
	}
	return structpb.NewStruct(fields)
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]

	dropOnce sync.Once
	dropped  chan struct{}
}

func newNotificationStreamAdapter(stream *connect.ServerStream[structpb.Struct]) *notificationStreamAdapter {
	return &notificationStreamAdapter{
		stream:  stream,
		dropped: make(chan struct{}),
	}
}

// Dropped implements notification.Dropper.
func (a *notificationStreamAdapter) Dropped() {
	a.dropOnce.Do(func() { close(a.dropped) })
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	msg, err := notificationToStruct(n)
	if err != nil {
		return err
	}
	return a.send(msg)
}

func (a *notificationStreamAdapter) send(msg *structpb.Struct) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(msg)
}
