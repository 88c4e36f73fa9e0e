// Package kioskclient talks to a running kiosk server over HTTP and
// websockets.
package kioskclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-kiosk/internal/httpc"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/web"
)

// ErrServer is returned for server-side failures.
var ErrServer = errors.New("kioskclient: server error")

// Client calls the kiosk API at a base URL such as http://localhost:3001.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.NewClient(30 * time.Second),
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	err := httpc.DoJSON(ctx, c.http, method, c.baseURL+path, nil, in, out)
	var se *httpc.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/api/kiosk/sessions/"):
			return fmt.Errorf("%w: %s", kiosk.ErrSessionNotFound, path)
		case se.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", ErrServer, err)
		}
	}
	return err
}

// Menu returns the server's menu.
func (c *Client) Menu(ctx context.Context) ([]catalog.MenuItem, error) {
	var resp struct {
		Menus []catalog.MenuItem `json:"menus"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/menu", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Menus, nil
}

// Search returns items whose name or keywords contain keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]catalog.MenuItem, error) {
	var resp struct {
		Menus []catalog.MenuItem `json:"menus"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/menu/search?keyword="+url.QueryEscape(keyword), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Menus, nil
}

var _ catalog.Catalog = (*Client)(nil)

// CreateSession starts a session, choosing orderType when it is set.
func (c *Client) CreateSession(ctx context.Context, orderType kiosk.OrderType) (web.SessionView, error) {
	var view web.SessionView
	err := c.do(ctx, http.MethodPost, "/api/kiosk/sessions", web.CreateSessionRequest{OrderType: orderType}, &view)
	return view, err
}

// Session fetches a session.
func (c *Client) Session(ctx context.Context, id string) (web.SessionView, error) {
	var view web.SessionView
	err := c.do(ctx, http.MethodGet, sessionPath(id), nil, &view)
	return view, err
}

// Say sends one transcript.
func (c *Client) Say(ctx context.Context, id, text string) (web.OutcomeView, error) {
	var view web.OutcomeView
	err := c.do(ctx, http.MethodPost, sessionPath(id)+"/utterances", web.UtteranceRequest{Text: text}, &view)
	return view, err
}

// Touch sends a button press.
func (c *Client) Touch(ctx context.Context, id string, in intent.Intent) (web.OutcomeView, error) {
	var view web.OutcomeView
	err := c.do(ctx, http.MethodPost, sessionPath(id)+"/touch", in, &view)
	return view, err
}

// Back returns to the previous screen.
func (c *Client) Back(ctx context.Context, id string) (web.SessionView, error) {
	var view web.SessionView
	err := c.do(ctx, http.MethodPost, sessionPath(id)+"/back", nil, &view)
	return view, err
}

func sessionPath(id string) string {
	return "/api/kiosk/sessions/" + url.PathEscape(id)
}

func (c *Client) wsURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// Stream is a websocket bound to one session.
type Stream struct {
	conn *websocket.Conn

	// Initial is the session as it was when the stream opened.
	Initial web.SessionView
}

// Dial opens the session websocket.
func (c *Client) Dial(ctx context.Context, id string) (*Stream, error) {
	u, err := c.wsURL("/ws/kiosk/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("kioskclient: dial %s: %w", u, err)
	}

	var first struct {
		web.SessionView
		Error string `json:"error"`
	}
	if err := conn.ReadJSON(&first); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kioskclient: read session: %w", err)
	}
	if first.Error != "" {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", kiosk.ErrSessionNotFound, id)
	}
	return &Stream{conn: conn, Initial: first.SessionView}, nil
}

// Say sends a transcript and waits for its outcome.
func (s *Stream) Say(text string) (web.OutcomeView, error) {
	return s.roundTrip(web.WSMessage{Type: "utterance", Text: text})
}

// Touch sends a button press and waits for its outcome.
func (s *Stream) Touch(in intent.Intent) (web.OutcomeView, error) {
	return s.roundTrip(web.WSMessage{Type: "touch", Kind: in.Kind, Ref: in.Ref, Arg: in.Arg})
}

// Back returns to the previous screen.
func (s *Stream) Back() (web.OutcomeView, error) {
	return s.roundTrip(web.WSMessage{Type: "back"})
}

func (s *Stream) roundTrip(msg web.WSMessage) (web.OutcomeView, error) {
	if err := s.conn.WriteJSON(msg); err != nil {
		return web.OutcomeView{}, fmt.Errorf("kioskclient: write: %w", err)
	}
	var resp struct {
		web.OutcomeView
		Error string `json:"error"`
	}
	if err := s.conn.ReadJSON(&resp); err != nil {
		return web.OutcomeView{}, fmt.Errorf("kioskclient: read: %w", err)
	}
	if resp.Error != "" {
		return web.OutcomeView{}, fmt.Errorf("kioskclient: %s", resp.Error)
	}
	return resp.OutcomeView, nil
}

// Close closes the websocket.
func (s *Stream) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}

// OrderFeed receives completed orders.
type OrderFeed struct {
	conn *websocket.Conn
}

// Orders subscribes to completed orders.
func (c *Client) Orders(ctx context.Context) (*OrderFeed, error) {
	u, err := c.wsURL("/ws/orders")
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("kioskclient: dial %s: %w", u, err)
	}
	return &OrderFeed{conn: conn}, nil
}

// Next blocks until the next completed order.
func (f *OrderFeed) Next() (events.OrderCompleted, error) {
	var env events.Envelope
	if err := f.conn.ReadJSON(&env); err != nil {
		return events.OrderCompleted{}, err
	}
	return env.Order, nil
}

// Close closes the feed.
func (f *OrderFeed) Close() error {
	return f.conn.Close()
}
