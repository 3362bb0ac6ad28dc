package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// Admin write operations. These go straight to the catalog and never touch
// the local store; the mirror picks the change up on the next sync cycle.
// Every request carries a fresh idempotency key so the catalog can dedupe
// retried submissions.

// post issues a single idempotency-keyed POST. Writes are not retried;
// the admin UI resubmits explicitly.
func (c *Client) post(ctx context.Context, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.maxTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: POST %s returned status %d", ErrSemantic, reqURL, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Code != 200 {
		return fmt.Errorf("%w: POST %s returned code %d", ErrSemantic, reqURL, env.Code)
	}

	if out != nil {
		if err := json.Unmarshal(env.Message, out); err != nil {
			return fmt.Errorf("failed to decode payload: %w", err)
		}
	}
	return nil
}

type idResponse struct {
	ID int64 `json:"id"`
}

// CreateAlbum creates an album and returns its server-assigned id.
func (c *Client) CreateAlbum(ctx context.Context, album catalog.Album) (int64, error) {
	var resp idResponse
	if err := c.post(ctx, "/api/album", actionQuery("CreateAlbum"), album, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateAlbum updates an album record.
func (c *Client) UpdateAlbum(ctx context.Context, album catalog.Album) error {
	return c.post(ctx, "/api/album", actionQuery("UpdateAlbum"), album, nil)
}

// DeleteAlbum deletes an album by id.
func (c *Client) DeleteAlbum(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/album", actionQuery("DeleteAlbum"), idResponse{ID: id}, nil)
}

// CreateSinger creates a singer and returns its server-assigned id.
func (c *Client) CreateSinger(ctx context.Context, singer catalog.Singer) (int64, error) {
	var resp idResponse
	if err := c.post(ctx, "/api/singer", actionQuery("CreateSinger"), singer, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateSinger updates a singer record.
func (c *Client) UpdateSinger(ctx context.Context, singer catalog.Singer) error {
	return c.post(ctx, "/api/singer", actionQuery("UpdateSinger"), singer, nil)
}

// DeleteSinger deletes a singer by id.
func (c *Client) DeleteSinger(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/singer", actionQuery("DeleteSinger"), idResponse{ID: id}, nil)
}

// CreateTrack creates a track and returns its server-assigned id.
func (c *Client) CreateTrack(ctx context.Context, track catalog.Track) (int64, error) {
	var resp idResponse
	if err := c.post(ctx, "/api/track", actionQuery("CreateTrack"), track, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateTrack updates a track record.
func (c *Client) UpdateTrack(ctx context.Context, track catalog.Track) error {
	return c.post(ctx, "/api/track", actionQuery("UpdateTrack"), track, nil)
}

// DeleteTrack deletes a track by id.
func (c *Client) DeleteTrack(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/track", actionQuery("DeleteTrack"), idResponse{ID: id}, nil)
}

// UpdateLyric replaces the content of a lyric record.
func (c *Client) UpdateLyric(ctx context.Context, lyric catalog.Lyric) error {
	return c.post(ctx, "/api/track", actionQuery("UpdateLyric"), lyric, nil)
}
