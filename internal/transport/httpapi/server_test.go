package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
	"github.com/EricWvi/sonora-player/internal/domain/playback"
	"github.com/EricWvi/sonora-player/internal/domain/queue"
	syncer "github.com/EricWvi/sonora-player/internal/domain/sync"
	"github.com/EricWvi/sonora-player/internal/infra/store"
	"github.com/EricWvi/sonora-player/internal/transport/httpapi"
)

// fakeCatalog serves a fixed snapshot.
type fakeCatalog struct {
	snapshot *catalog.Snapshot
}

func (f *fakeCatalog) GetFullSync(ctx context.Context) (*catalog.Snapshot, error) {
	if f.snapshot == nil {
		return nil, errors.New("catalog unreachable")
	}
	return f.snapshot, nil
}

func (f *fakeCatalog) GetUpdates(ctx context.Context, since int64) (*catalog.Updates, error) {
	return &catalog.Updates{Timestamp: since}, nil
}

func (f *fakeCatalog) GetAlbum(ctx context.Context, id int64) (*catalog.Album, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCatalog) GetSinger(ctx context.Context, id int64) (*catalog.Singer, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCatalog) GetTrack(ctx context.Context, id int64) (*catalog.Track, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCatalog) GetLyric(ctx context.Context, id int64) (*catalog.Lyric, error) {
	return nil, errors.New("not implemented")
}

// fakeSource and fakeOpener stand in for the audio device.
type fakeSource struct{}

func (fakeSource) Play(onDone func()) error     { return nil }
func (fakeSource) Pause()                       {}
func (fakeSource) Resume()                      {}
func (fakeSource) Seek(pos time.Duration) error { return nil }
func (fakeSource) Position() time.Duration      { return 0 }
func (fakeSource) Duration() time.Duration      { return 0 }
func (fakeSource) Close() error                 { return nil }

type fakeOpener struct {
	mu    gosync.Mutex
	opens int
}

func (f *fakeOpener) Open(url string) (playback.Source, error) {
	f.mu.Lock()
	f.opens++
	f.mu.Unlock()
	return fakeSource{}, nil
}

func newTestServer(t *testing.T, opts ...httpapi.Option) *httpapi.Server {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "httpapi_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	db := store.NewDB(filepath.Join(tmpDir, "test.db"))
	if err := db.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	if err := st.ApplyFullSync(&catalog.Snapshot{
		Albums: []catalog.Album{
			{ID: 1, Name: "Blue Train", Year: 1958},
		},
		Tracks: []catalog.Track{
			{ID: 100, Name: "Blue Train", Singer: "John Coltrane", Album: 1, URL: "audio-100", Lyric: 1000},
			{ID: 101, Name: "Moment's Notice", Singer: "John Coltrane", Album: 1, URL: "audio-101"},
		},
		Lyrics:    []catalog.Lyric{{ID: 1000, Content: "instrumental"}},
		Timestamp: 5000,
	}); err != nil {
		t.Fatalf("Seeding store failed: %v", err)
	}

	engine := playback.NewEngine(&fakeOpener{}, playback.WithProgressInterval(time.Hour))
	ctrl := queue.NewController(engine)
	syncEngine := syncer.NewEngine(st, &fakeCatalog{snapshot: &catalog.Snapshot{Timestamp: 9000}})

	return httpapi.NewServer(st, syncEngine, ctrl, opts...)
}

func doJSON(t *testing.T, server *httpapi.Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("Response is not a JSON object: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestVersionEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodGet, "/api/v1/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["name"] != "Sonora" {
		t.Errorf("Expected name Sonora, got %v", body["name"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected ok status, got %v", body["status"])
	}
}

func TestListAlbums(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/albums", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var albums []catalog.Album
	if err := json.Unmarshal(rec.Body.Bytes(), &albums); err != nil {
		t.Fatalf("Failed to decode albums: %v", err)
	}
	if len(albums) != 1 || albums[0].Name != "Blue Train" {
		t.Errorf("Unexpected albums: %+v", albums)
	}
}

func TestGetAlbumNotFound(t *testing.T) {
	server := newTestServer(t)

	rec, _ := doJSON(t, server, http.MethodGet, "/api/v1/albums/42", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestGetTrackLyric(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodGet, "/api/v1/tracks/100/lyric", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["content"] != "instrumental" {
		t.Errorf("Expected lyric content, got %v", body["content"])
	}
}

func TestSearch(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodGet, "/api/v1/search?q=blue", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	albums, ok := body["albums"].([]any)
	if !ok || len(albums) != 1 {
		t.Errorf("Expected 1 album hit, got %v", body["albums"])
	}
	tracks, ok := body["tracks"].([]any)
	if !ok || len(tracks) != 1 {
		t.Errorf("Expected 1 track hit, got %v", body["tracks"])
	}
}

func TestPlayQueueFromAlbum(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodPost, "/api/v1/queue", `{"albumId":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["state"] != "playing" {
		t.Errorf("Expected playing state, got %v", body["state"])
	}
	queueList, ok := body["queue"].([]any)
	if !ok || len(queueList) != 2 {
		t.Errorf("Expected 2 queued tracks, got %v", body["queue"])
	}
}

func TestPlayQueueRejectsEmptySelection(t *testing.T) {
	server := newTestServer(t)

	rec, _ := doJSON(t, server, http.MethodPost, "/api/v1/queue", `{"trackIds":[555]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown tracks, got %d", rec.Code)
	}
}

func TestPlayerTransportFlow(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/v1/queue", `{"trackIds":[100,101]}`)

	rec, body := doJSON(t, server, http.MethodPost, "/api/v1/player/next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["queueIndex"] != float64(1) {
		t.Errorf("Expected queueIndex 1 after next, got %v", body["queueIndex"])
	}

	rec, body = doJSON(t, server, http.MethodPost, "/api/v1/player/pause", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["state"] != "paused" {
		t.Errorf("Expected paused state, got %v", body["state"])
	}
}

func TestSyncStatus(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodGet, "/api/v1/sync/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["synced"] != true {
		t.Errorf("Expected synced=true, got %v", body["synced"])
	}
	if body["lastSyncTimestamp"] != float64(5000) {
		t.Errorf("Expected watermark 5000, got %v", body["lastSyncTimestamp"])
	}
}

func TestForceFullSync(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server, http.MethodPost, "/api/v1/sync/full", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["lastSyncTimestamp"] != float64(9000) {
		t.Errorf("Expected watermark 9000 after full sync, got %v", body["lastSyncTimestamp"])
	}
}

func TestCORSHeaders(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/albums", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers on preflight response")
	}
}
