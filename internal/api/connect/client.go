package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a typed client of SlideshowService.
type Client struct {
	getStatus        *connect.Client[emptypb.Empty, structpb.Struct]
	start            *connect.Client[emptypb.Empty, structpb.Struct]
	stop             *connect.Client[emptypb.Empty, structpb.Struct]
	togglePlayback   *connect.Client[emptypb.Empty, structpb.Struct]
	resume           *connect.Client[emptypb.Empty, structpb.Struct]
	activity         *connect.Client[emptypb.Empty, structpb.Struct]
	enterFullscreen  *connect.Client[emptypb.Empty, structpb.Struct]
	exitFullscreen   *connect.Client[emptypb.Empty, structpb.Struct]
	toggleFullscreen *connect.Client[emptypb.Empty, structpb.Struct]
	escape           *connect.Client[emptypb.Empty, structpb.Struct]
	addURLs          *connect.Client[wrapperspb.StringValue, structpb.Struct]
	removeURL        *connect.Client[structpb.Struct, structpb.Struct]
	moveURL          *connect.Client[structpb.Struct, structpb.Struct]
	setDisplayTime   *connect.Client[wrapperspb.StringValue, structpb.Struct]
	setLooping       *connect.Client[wrapperspb.BoolValue, structpb.Struct]
	showAt           *connect.Client[wrapperspb.Int32Value, structpb.Struct]
	getShareLink     *connect.Client[emptypb.Empty, structpb.Struct]
	export           *connect.Client[emptypb.Empty, structpb.Struct]
	importSettings   *connect.Client[wrapperspb.BytesValue, structpb.Struct]
	clearSettings    *connect.Client[wrapperspb.BoolValue, structpb.Struct]
	subscribe        *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient creates a client for the server at baseURL. A non-empty token is
// sent with every unary request.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithInterceptors(NewTokenInterceptor(token))}, opts...)

	return &Client{
		getStatus:        connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		start:            connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+StartProcedure, opts...),
		stop:             connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+StopProcedure, opts...),
		togglePlayback:   connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TogglePlaybackProcedure, opts...),
		resume:           connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ResumeProcedure, opts...),
		activity:         connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ActivityProcedure, opts...),
		enterFullscreen:  connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+EnterFullscreenProcedure, opts...),
		exitFullscreen:   connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ExitFullscreenProcedure, opts...),
		toggleFullscreen: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ToggleFullscreenProcedure, opts...),
		escape:           connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+EscapeProcedure, opts...),
		addURLs:          connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+AddURLsProcedure, opts...),
		removeURL:        connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RemoveURLProcedure, opts...),
		moveURL:          connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+MoveURLProcedure, opts...),
		setDisplayTime:   connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+SetDisplayTimeProcedure, opts...),
		setLooping:       connect.NewClient[wrapperspb.BoolValue, structpb.Struct](httpClient, baseURL+SetLoopingProcedure, opts...),
		showAt:           connect.NewClient[wrapperspb.Int32Value, structpb.Struct](httpClient, baseURL+ShowAtProcedure, opts...),
		getShareLink:     connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetShareLinkProcedure, opts...),
		export:           connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ExportProcedure, opts...),
		importSettings:   connect.NewClient[wrapperspb.BytesValue, structpb.Struct](httpClient, baseURL+ImportProcedure, opts...),
		clearSettings:    connect.NewClient[wrapperspb.BoolValue, structpb.Struct](httpClient, baseURL+ClearSettingsProcedure, opts...),
		subscribe:        connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SubscribeProcedure, opts...),
	}
}

// Result is the decoded body of an operation response.
type Result struct {
	Success bool
	Code    string
	Message string
	Status  map[string]any
	Fields  map[string]any // Every field of the response
}

func decodeResult(res *connect.Response[structpb.Struct], err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	fields := res.Msg.AsMap()
	r := &Result{Fields: fields}
	r.Success, _ = fields["success"].(bool)
	r.Code, _ = fields["code"].(string)
	r.Message, _ = fields["message"].(string)
	r.Status, _ = fields["status"].(map[string]any)
	return r, nil
}

func empty() *connect.Request[emptypb.Empty] {
	return connect.NewRequest(&emptypb.Empty{})
}

// GetStatus returns the status and session information.
func (c *Client) GetStatus(ctx context.Context) (*Result, error) {
	return decodeResult(c.getStatus.CallUnary(ctx, empty()))
}

// Start starts playback.
func (c *Client) Start(ctx context.Context) (*Result, error) {
	return decodeResult(c.start.CallUnary(ctx, empty()))
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) (*Result, error) {
	return decodeResult(c.stop.CallUnary(ctx, empty()))
}

// TogglePlayback starts or stops playback.
func (c *Client) TogglePlayback(ctx context.Context) (*Result, error) {
	return decodeResult(c.togglePlayback.CallUnary(ctx, empty()))
}

// Resume resumes playback paused by activity.
func (c *Client) Resume(ctx context.Context) (*Result, error) {
	return decodeResult(c.resume.CallUnary(ctx, empty()))
}

// Activity reports pointer activity.
func (c *Client) Activity(ctx context.Context) (*Result, error) {
	return decodeResult(c.activity.CallUnary(ctx, empty()))
}

// EnterFullscreen enters fullscreen.
func (c *Client) EnterFullscreen(ctx context.Context) (*Result, error) {
	return decodeResult(c.enterFullscreen.CallUnary(ctx, empty()))
}

// ExitFullscreen leaves fullscreen.
func (c *Client) ExitFullscreen(ctx context.Context) (*Result, error) {
	return decodeResult(c.exitFullscreen.CallUnary(ctx, empty()))
}

// ToggleFullscreen enters or leaves fullscreen.
func (c *Client) ToggleFullscreen(ctx context.Context) (*Result, error) {
	return decodeResult(c.toggleFullscreen.CallUnary(ctx, empty()))
}

// Escape leaves fullscreen when active.
func (c *Client) Escape(ctx context.Context) (*Result, error) {
	return decodeResult(c.escape.CallUnary(ctx, empty()))
}

// AddURLs adds every line of text.
func (c *Client) AddURLs(ctx context.Context, text string) (*Result, error) {
	return decodeResult(c.addURLs.CallUnary(ctx, connect.NewRequest(wrapperspb.String(text))))
}

// RemoveURL removes the element at index.
func (c *Client) RemoveURL(ctx context.Context, index int, confirm bool) (*Result, error) {
	msg, err := structpb.NewStruct(map[string]any{"index": index, "confirm": confirm})
	if err != nil {
		return nil, err
	}
	return decodeResult(c.removeURL.CallUnary(ctx, connect.NewRequest(msg)))
}

// MoveURL moves the element at index one step in direction (-1 or 1).
func (c *Client) MoveURL(ctx context.Context, index, direction int) (*Result, error) {
	msg, err := structpb.NewStruct(map[string]any{"index": index, "direction": direction})
	if err != nil {
		return nil, err
	}
	return decodeResult(c.moveURL.CallUnary(ctx, connect.NewRequest(msg)))
}

// SetDisplayTime sets the display time from user input.
func (c *Client) SetDisplayTime(ctx context.Context, raw string) (*Result, error) {
	return decodeResult(c.setDisplayTime.CallUnary(ctx, connect.NewRequest(wrapperspb.String(raw))))
}

// SetLooping sets the loop flag.
func (c *Client) SetLooping(ctx context.Context, looping bool) (*Result, error) {
	return decodeResult(c.setLooping.CallUnary(ctx, connect.NewRequest(wrapperspb.Bool(looping))))
}

// ShowAt displays the element at index.
func (c *Client) ShowAt(ctx context.Context, index int32) (*Result, error) {
	return decodeResult(c.showAt.CallUnary(ctx, connect.NewRequest(wrapperspb.Int32(index))))
}

// GetShareLink returns the share link.
func (c *Client) GetShareLink(ctx context.Context) (*Result, error) {
	return decodeResult(c.getShareLink.CallUnary(ctx, empty()))
}

// Export returns the settings document and its suggested file name.
func (c *Client) Export(ctx context.Context) ([]byte, string, error) {
	r, err := decodeResult(c.export.CallUnary(ctx, empty()))
	if err != nil {
		return nil, "", err
	}
	data, _ := r.Fields["data"].(string)
	name, _ := r.Fields["fileName"].(string)
	return []byte(data), name, nil
}

// Import replaces the slideshow with an exported settings document.
func (c *Client) Import(ctx context.Context, data []byte) (*Result, error) {
	return decodeResult(c.importSettings.CallUnary(ctx, connect.NewRequest(wrapperspb.Bytes(data))))
}

// ClearSettings restores the default settings.
func (c *Client) ClearSettings(ctx context.Context, confirm bool) (*Result, error) {
	return decodeResult(c.clearSettings.CallUnary(ctx, connect.NewRequest(wrapperspb.Bool(confirm))))
}

// Subscribe opens the notification stream. Every received notification is
// passed to fn until the stream ends or fn returns false.
func (c *Client) Subscribe(ctx context.Context, fn func(map[string]any) bool) error {
	stream, err := c.subscribe.CallServerStream(ctx, empty())
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		if !fn(stream.Msg().AsMap()) {
			return nil
		}
	}
	return stream.Err()
}
