// Package beepaudio plays tracks through the beep speaker. Media is fetched
// over HTTP into memory first so the decoder can seek freely.
package beepaudio

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/playback"
)

const defaultFetchTimeout = 30 * time.Second

// Opener fetches media files and turns them into playable sources.
type Opener struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring the opener.
type Option func(*Opener)

// WithHTTPClient sets a custom HTTP client for media fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opener) {
		o.httpClient = client
	}
}

// NewOpener creates an opener that resolves relative media paths against
// baseURL.
func NewOpener(baseURL string, opts ...Option) *Opener {
	o := &Opener{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultFetchTimeout,
		},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Open downloads the media file and prepares it for playback.
func (o *Opener) Open(url string) (playback.Source, error) {
	full := url
	if strings.HasPrefix(url, "/") {
		full = o.baseURL + url
	}

	log.Debug().Str("url", full).Msg("Fetching media")

	resp, err := o.httpClient.Get(full)
	if err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading media: %w", err)
	}

	return newSource(data)
}
