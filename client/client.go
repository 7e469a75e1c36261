// Package client talks to a `modsh serve` instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned for requests on a closed client or connection.
var ErrClosed = errors.New("client closed")

// Options configures a Client.
type Options struct {
	// BaseURL is the server URL, e.g. "http://localhost:8080".
	BaseURL string
	// Timeout bounds HTTP requests and each console.execute call.
	// Defaults to 30s.
	Timeout time.Duration
}

// Client is a connection to a modsh server. The websocket is opened on the
// first Execute.
type Client struct {
	opts       Options
	httpClient *http.Client

	wsMu sync.Mutex
	ws   *websocket.Conn

	requestID int64
	pendingMu sync.Mutex
	pending   map[int64]chan *jsonrpcResponse

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a client.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		pending:    make(map[int64]chan *jsonrpcResponse),
		done:       make(chan struct{}),
	}
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/api/v1/session/repl", scheme, u.Host), nil
}

func (c *Client) post(ctx context.Context, path string, body any, want int, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e errorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return errors.New(resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreateSession starts a remote console in unit (the server's entry unit
// when empty).
func (c *Client) CreateSession(ctx context.Context, unit string) (*CreateSessionResponse, error) {
	var res CreateSessionResponse
	if err := c.post(ctx, "/api/v1/session/create", CreateSessionRequest{Unit: unit}, http.StatusCreated, &res); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &res, nil
}

// ListSessions lists the live sessions.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	var res listSessionsResponse
	if err := c.post(ctx, "/api/v1/session/list", nil, http.StatusOK, &res); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return res.Sessions, nil
}

// RemoveSession ends a session.
func (c *Client) RemoveSession(ctx context.Context, sessionID string) error {
	if err := c.post(ctx, "/api/v1/session/remove", removeSessionRequest{SessionID: sessionID}, http.StatusOK, nil); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Connect opens the websocket if it is not open yet.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws != nil {
		return nil
	}

	wsURL, err := c.wsURL()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	c.ws = conn
	go c.readMessages(conn)
	return nil
}

// Execute sends one input line to a session.
func (c *Client) Execute(ctx context.Context, sessionID, line string) (*ExecuteResult, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	params, err := json.Marshal(ExecuteParams{SessionID: sessionID, Line: line})
	if err != nil {
		return nil, err
	}
	id := atomic.AddInt64(&c.requestID, 1)
	ch := make(chan *jsonrpcResponse, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.wsMu.Lock()
	if c.ws == nil {
		c.wsMu.Unlock()
		return nil, ErrClosed
	}
	err = c.ws.WriteJSON(jsonrpcRequest{JSONRPC: "2.0", Method: "console.execute", Params: params, ID: id})
	c.wsMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("connection lost: %w", ErrClosed)
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		var res ExecuteResult
		if err := json.Unmarshal(resp.Result, &res); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		return &res, nil
	case <-timer.C:
		return nil, errors.New("request timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

func (c *Client) readMessages(conn *websocket.Conn) {
	for {
		var resp jsonrpcResponse
		if err := conn.ReadJSON(&resp); err != nil {
			c.dropConnection(conn)
			return
		}
		c.pendingMu.Lock()
		if ch, ok := c.pending[resp.ID]; ok {
			ch <- &resp
			delete(c.pending, resp.ID)
		}
		c.pendingMu.Unlock()
	}
}

// dropConnection forgets conn and fails the requests waiting on it.
func (c *Client) dropConnection(conn *websocket.Conn) {
	c.wsMu.Lock()
	if c.ws == conn {
		c.ws = nil
	}
	c.wsMu.Unlock()
	conn.Close()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// Close closes the websocket. The client cannot be used afterwards.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.wsMu.Lock()
	conn := c.ws
	c.ws = nil
	c.wsMu.Unlock()
	if conn == nil {
		return nil
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
