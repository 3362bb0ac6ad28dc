// Package remote provides the HTTP client for the Sonora catalog API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

const (
	// DefaultRetries is the bounded attempt count for read requests.
	DefaultRetries = 3

	// DefaultBaseTimeout is the first-attempt request timeout; it doubles
	// per attempt up to DefaultMaxTimeout.
	DefaultBaseTimeout = 2 * time.Second

	// DefaultMaxTimeout is the request timeout ceiling.
	DefaultMaxTimeout = 10 * time.Second
)

// Common errors
var (
	// ErrSemantic indicates the catalog answered with a non-success status
	// or application error code. Never retried.
	ErrSemantic = errors.New("catalog error")

	// ErrUnavailable indicates all transport attempts failed.
	ErrUnavailable = errors.New("catalog unavailable")
)

// envelope is the catalog's response wrapper. Code 200 means success and
// Message carries the payload.
type envelope struct {
	Code    int             `json:"code"`
	Message json.RawMessage `json:"message"`
}

// Client talks to the Sonora catalog API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retries     int
	baseTimeout time.Duration
	maxTimeout  time.Duration
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetries sets the bounded attempt count for reads.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithTimeouts sets the base and ceiling per-attempt timeouts.
func WithTimeouts(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseTimeout = base
		c.maxTimeout = max
	}
}

// NewClient creates a new catalog client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{},
		retries:     DefaultRetries,
		baseTimeout: DefaultBaseTimeout,
		maxTimeout:  DefaultMaxTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get issues a GET request with bounded retries and exponential per-attempt
// timeouts, decoding the envelope payload into out. Transport and timeout
// failures retry; a non-2xx status or a non-200 envelope code fails fast.
func (c *Client) get(ctx context.Context, path string, query url.Values, retries int, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		timeout := c.baseTimeout << attempt
		if timeout > c.maxTimeout {
			timeout = c.maxTimeout
		}

		err := c.doOnce(ctx, http.MethodGet, reqURL, nil, timeout, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrSemantic) {
			return err
		}
		lastErr = err

		if attempt < retries-1 {
			log.Warn().
				Str("url", reqURL).
				Int("attempt", attempt+1).
				Err(err).
				Msg("Catalog request failed, retrying")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: GET %s failed after %d attempts: %v", ErrUnavailable, reqURL, retries, lastErr)
}

// doOnce performs a single request attempt.
func (c *Client) doOnce(ctx context.Context, method, reqURL string, body io.Reader, timeout time.Duration, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, method, reqURL, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned status %d", ErrSemantic, method, reqURL, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Code != http.StatusOK {
		return fmt.Errorf("%w: %s %s returned code %d", ErrSemantic, method, reqURL, env.Code)
	}

	if out != nil {
		if err := json.Unmarshal(env.Message, out); err != nil {
			return fmt.Errorf("failed to decode payload: %w", err)
		}
	}
	return nil
}

func actionQuery(action string) url.Values {
	q := url.Values{}
	q.Set("Action", action)
	return q
}

func idQuery(action string, id int64) url.Values {
	q := actionQuery(action)
	q.Set("id", strconv.FormatInt(id, 10))
	return q
}

// GetFullSync fetches the complete catalog snapshot in one request.
func (c *Client) GetFullSync(ctx context.Context) (*catalog.Snapshot, error) {
	snap := &catalog.Snapshot{}
	if err := c.get(ctx, "/api/sync", actionQuery("GetFullSync"), c.retries, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// GetUpdates fetches the change-log since the given watermark. A single
// attempt only: incremental sync is best-effort and retried on the next
// initialize instead.
func (c *Client) GetUpdates(ctx context.Context, since int64) (*catalog.Updates, error) {
	q := actionQuery("GetUpdates")
	q.Set("since", strconv.FormatInt(since, 10))

	updates := &catalog.Updates{}
	if err := c.get(ctx, "/api/sync", q, 1, updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// GetAlbum fetches the current record for an album id.
func (c *Client) GetAlbum(ctx context.Context, id int64) (*catalog.Album, error) {
	var payload struct {
		Album catalog.Album `json:"album"`
	}
	if err := c.get(ctx, "/api/album", idQuery("GetAlbum", id), c.retries, &payload); err != nil {
		return nil, err
	}
	return &payload.Album, nil
}

// GetSinger fetches the current record for a singer id.
func (c *Client) GetSinger(ctx context.Context, id int64) (*catalog.Singer, error) {
	var payload struct {
		Singer catalog.Singer `json:"singer"`
	}
	if err := c.get(ctx, "/api/singer", idQuery("GetSinger", id), c.retries, &payload); err != nil {
		return nil, err
	}
	return &payload.Singer, nil
}

// GetTrack fetches the current record for a track id.
func (c *Client) GetTrack(ctx context.Context, id int64) (*catalog.Track, error) {
	var payload struct {
		Track catalog.Track `json:"track"`
	}
	if err := c.get(ctx, "/api/track", idQuery("GetTrack", id), c.retries, &payload); err != nil {
		return nil, err
	}
	return &payload.Track, nil
}

// GetLyric fetches the current content for a lyric id. The catalog returns
// only the text, so the record is reassembled around the requested id.
func (c *Client) GetLyric(ctx context.Context, id int64) (*catalog.Lyric, error) {
	var payload struct {
		Lyric string `json:"lyric"`
	}
	if err := c.get(ctx, "/api/track", idQuery("GetLyric", id), c.retries, &payload); err != nil {
		return nil, err
	}
	return &catalog.Lyric{ID: id, Content: payload.Lyric}, nil
}
