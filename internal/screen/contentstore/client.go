// Package contentstore reads the screen's documents from the Lumen API.
//
// Live subscriptions are ETag polls: each watcher re-fetches its document on an interval and
// whenever it is nudged by a change notification, and delivers a snapshot only when the
// document changed.
package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/stream"
)

const (
	requestTimeout  = 15 * time.Second
	defaultInterval = 15 * time.Second
	maxBodySize     = 4 * 1024 * 1024
)

var (
	// ErrUnauthorized means the screen token was rejected.
	ErrUnauthorized = errors.New("screen session rejected")
	errNotFound     = errors.New("document not found")
	errDecode       = errors.New("malformed document")
)

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// Client is safe for concurrent use. Snapshots are delivered through exec.
type Client struct {
	baseURL  string
	http     *http.Client
	exec     loop.Executor
	interval time.Duration

	mu       sync.Mutex
	token    string
	watchers map[*watcher]struct{}
}

func New(baseURL string, httpClient *http.Client, exec loop.Executor, interval time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		exec:     exec,
		interval: interval,
		watchers: map[*watcher]struct{}{},
	}
}

// SetToken sets the screen session used by every later request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) GeneratePairingCode(ctx context.Context) (model.PairingCode, error) {
	var code model.PairingCode
	_, err := c.do(ctx, http.MethodPost, "/api/tv/pairing", nil, "", &code)
	return code, err
}

func (c *Client) ExchangeToken(ctx context.Context, token string) (model.ScreenSession, error) {
	var sess model.ScreenSession
	_, err := c.do(ctx, http.MethodPost, "/api/tv/session", map[string]string{"token": token}, "", &sess)
	return sess, err
}

func (c *Client) WatchScreen(h stream.Handler[model.Screen]) stream.Subscription {
	return watch(c, changeKey(kindScreen, ""), "/api/tv/screen", h)
}

func (c *Client) WatchSchedules(h stream.Handler[[]model.ScheduleEntry]) stream.Subscription {
	return watch(c, changeKey(kindSchedules, ""), "/api/tv/schedules", h)
}

func (c *Client) WatchSettings(h stream.Handler[model.Settings]) stream.Subscription {
	return watch(c, changeKey(kindSettings, ""), "/api/tv/settings", h)
}

func (c *Client) WatchPlaylist(id string, h stream.Handler[model.Playlist]) stream.Subscription {
	return watch(c, changeKey(kindPlaylist, id), "/api/tv/playlists/"+url.PathEscape(id), h)
}

// WatchPairing follows a pairing request. It needs no screen token.
func (c *Client) WatchPairing(sessionID string, h stream.Handler[model.PairingRequest]) stream.Subscription {
	return watch(c, "", "/api/tv/pairing/"+url.PathEscape(sessionID), h)
}

// Nudge re-polls every watcher of the changed document now. Unknown kinds re-poll everything.
func (c *Client) Nudge(kind, id string) {
	key := changeKey(kind, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	for w := range c.watchers {
		if w.key == "" {
			continue
		}
		if _, known := kinds[kind]; known && w.key != key {
			continue
		}
		w.nudge()
	}
}

func (c *Client) do(ctx context.Context, method, path string, in any, etag string, out any) (string, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return etag, nil
	case resp.StatusCode == http.StatusNotFound:
		return "", errNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, decodeError(resp.StatusCode, raw))
	case resp.StatusCode >= 300:
		return "", decodeError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("%w %s: %w", errDecode, path, err)
	}
	return resp.Header.Get("ETag"), nil
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.Unmarshal(raw, &body)
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}
	return &APIError{Status: status, Code: body.Code, Message: body.Error}
}
