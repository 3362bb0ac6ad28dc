package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
	"github.com/EricWvi/sonora-player/internal/infra/remote"
)

func envelope(payload any) string {
	data, _ := json.Marshal(payload)
	return fmt.Sprintf(`{"code":200,"message":%s}`, data)
}

func TestGetFullSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("Action"); got != "GetFullSync" {
			t.Errorf("Expected Action=GetFullSync, got %s", got)
		}
		fmt.Fprint(w, envelope(map[string]any{
			"albums":    []map[string]any{{"id": 1, "name": "Blue Train"}},
			"timestamp": 5000,
		}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	snap, err := client.GetFullSync(context.Background())
	if err != nil {
		t.Fatalf("GetFullSync failed: %v", err)
	}
	if len(snap.Albums) != 1 || snap.Albums[0].Name != "Blue Train" {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}
	if snap.Timestamp != 5000 {
		t.Errorf("Expected timestamp 5000, got %d", snap.Timestamp)
	}
}

func TestGetUpdatesSendsWatermark(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since"); got != "4321" {
			t.Errorf("Expected since=4321, got %s", got)
		}
		fmt.Fprint(w, envelope(map[string]any{
			"entries": []map[string]any{
				{"tableName": "d_album", "stale": []int64{2}, "deleted": []int64{3}},
			},
			"timestamp": 6000,
		}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	updates, err := client.GetUpdates(context.Background(), 4321)
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(updates.Entries) != 1 || updates.Entries[0].TableName != "d_album" {
		t.Errorf("Unexpected updates: %+v", updates)
	}
}

func TestGetAlbumUnwrapsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope(map[string]any{
			"album": map[string]any{"id": 7, "name": "Giant Steps", "year": 1960},
		}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	album, err := client.GetAlbum(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetAlbum failed: %v", err)
	}
	if album.ID != 7 || album.Name != "Giant Steps" {
		t.Errorf("Unexpected album: %+v", album)
	}
}

func TestGetLyricReassemblesRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("Action"); got != "GetLyric" {
			t.Errorf("Expected Action=GetLyric, got %s", got)
		}
		fmt.Fprint(w, envelope(map[string]any{"lyric": "some words"}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	lyric, err := client.GetLyric(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetLyric failed: %v", err)
	}
	if lyric.ID != 42 || lyric.Content != "some words" {
		t.Errorf("Unexpected lyric: %+v", lyric)
	}
}

func TestRetriesTransportFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			// Drop the connection to force a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("Server does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		fmt.Fprint(w, envelope(map[string]any{"timestamp": 5000}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	snap, err := client.GetFullSync(context.Background())
	if err != nil {
		t.Fatalf("GetFullSync should succeed on the third attempt: %v", err)
	}
	if snap.Timestamp != 5000 {
		t.Errorf("Expected timestamp 5000, got %d", snap.Timestamp)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestHTTPErrorFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	_, err := client.GetFullSync(context.Background())
	if !errors.Is(err, remote.ErrSemantic) {
		t.Errorf("Expected ErrSemantic, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Semantic failures must not retry, got %d attempts", got)
	}
}

func TestEnvelopeErrorCodeFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"code":500,"message":"internal error"}`)
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	_, err := client.GetFullSync(context.Background())
	if !errors.Is(err, remote.ErrSemantic) {
		t.Errorf("Expected ErrSemantic, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Envelope errors must not retry, got %d attempts", got)
	}
}

func TestExhaustedRetriesReturnUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("Server does not support hijacking")
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, remote.WithRetries(2), remote.WithTimeouts(100*time.Millisecond, 200*time.Millisecond))
	_, err := client.GetFullSync(context.Background())
	if !errors.Is(err, remote.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestGetUpdatesDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("Server does not support hijacking")
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	if _, err := client.GetUpdates(context.Background(), 1000); err == nil {
		t.Fatal("GetUpdates should fail")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("GetUpdates is single-attempt, got %d attempts", got)
	}
}

func TestCreateAlbumSendsIdempotencyKey(t *testing.T) {
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		fmt.Fprint(w, envelope(map[string]any{"id": 9}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	for i := 0; i < 2; i++ {
		if _, err := client.CreateAlbum(context.Background(), catalog.Album{Name: "New Album"}); err != nil {
			t.Fatalf("CreateAlbum failed: %v", err)
		}
	}

	if len(keys) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(keys))
	}
	if keys[0] == "" || keys[1] == "" {
		t.Error("Every write must carry an Idempotency-Key")
	}
	if keys[0] == keys[1] {
		t.Error("Each write attempt needs a distinct key")
	}
}

func TestWriteMethodsRouteByAction(t *testing.T) {
	type captured struct {
		path   string
		action string
		key    string
	}
	var last captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		last = captured{
			path:   r.URL.Path,
			action: r.URL.Query().Get("Action"),
			key:    r.Header.Get("Idempotency-Key"),
		}
		fmt.Fprint(w, envelope(map[string]any{"id": 1}))
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	ctx := context.Background()

	calls := []struct {
		name   string
		call   func() error
		path   string
		action string
	}{
		{"UpdateAlbum", func() error { return client.UpdateAlbum(ctx, catalog.Album{ID: 1}) }, "/api/album", "UpdateAlbum"},
		{"DeleteAlbum", func() error { return client.DeleteAlbum(ctx, 1) }, "/api/album", "DeleteAlbum"},
		{"CreateSinger", func() error { _, err := client.CreateSinger(ctx, catalog.Singer{Name: "x"}); return err }, "/api/singer", "CreateSinger"},
		{"UpdateSinger", func() error { return client.UpdateSinger(ctx, catalog.Singer{ID: 2}) }, "/api/singer", "UpdateSinger"},
		{"DeleteSinger", func() error { return client.DeleteSinger(ctx, 2) }, "/api/singer", "DeleteSinger"},
		{"CreateTrack", func() error { _, err := client.CreateTrack(ctx, catalog.Track{Name: "x"}); return err }, "/api/track", "CreateTrack"},
		{"UpdateTrack", func() error { return client.UpdateTrack(ctx, catalog.Track{ID: 3}) }, "/api/track", "UpdateTrack"},
		{"DeleteTrack", func() error { return client.DeleteTrack(ctx, 3) }, "/api/track", "DeleteTrack"},
		{"UpdateLyric", func() error { return client.UpdateLyric(ctx, catalog.Lyric{ID: 3, Content: "y"}) }, "/api/track", "UpdateLyric"},
	}
	for _, tc := range calls {
		if err := tc.call(); err != nil {
			t.Fatalf("%s failed: %v", tc.name, err)
		}
		if last.path != tc.path {
			t.Errorf("%s: expected path %s, got %s", tc.name, tc.path, last.path)
		}
		if last.action != tc.action {
			t.Errorf("%s: expected Action=%s, got %s", tc.name, tc.action, last.action)
		}
		if last.key == "" {
			t.Errorf("%s: missing Idempotency-Key", tc.name)
		}
	}
}

func TestWritesDoNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("Server does not support hijacking")
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer server.Close()

	client := remote.NewClient(server.URL)
	if err := client.DeleteTrack(context.Background(), 1); err == nil {
		t.Fatal("DeleteTrack should fail")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Writes are single-attempt, got %d attempts", got)
	}
}
