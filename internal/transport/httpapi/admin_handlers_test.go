package httpapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
	"github.com/EricWvi/sonora-player/internal/transport/httpapi"
)

// fakeWriter records catalog mutations.
type fakeWriter struct {
	mu     gosync.Mutex
	calls  []string
	albums []catalog.Album
	lyrics []catalog.Lyric
	err    error
}

func (f *fakeWriter) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return f.err
}

func (f *fakeWriter) CreateAlbum(ctx context.Context, album catalog.Album) (int64, error) {
	f.mu.Lock()
	f.albums = append(f.albums, album)
	f.mu.Unlock()
	if err := f.record("CreateAlbum"); err != nil {
		return 0, err
	}
	return 7, nil
}

func (f *fakeWriter) UpdateAlbum(ctx context.Context, album catalog.Album) error {
	f.mu.Lock()
	f.albums = append(f.albums, album)
	f.mu.Unlock()
	return f.record("UpdateAlbum")
}

func (f *fakeWriter) DeleteAlbum(ctx context.Context, id int64) error {
	return f.record("DeleteAlbum")
}

func (f *fakeWriter) CreateSinger(ctx context.Context, singer catalog.Singer) (int64, error) {
	if err := f.record("CreateSinger"); err != nil {
		return 0, err
	}
	return 8, nil
}

func (f *fakeWriter) UpdateSinger(ctx context.Context, singer catalog.Singer) error {
	return f.record("UpdateSinger")
}

func (f *fakeWriter) DeleteSinger(ctx context.Context, id int64) error {
	return f.record("DeleteSinger")
}

func (f *fakeWriter) CreateTrack(ctx context.Context, track catalog.Track) (int64, error) {
	if err := f.record("CreateTrack"); err != nil {
		return 0, err
	}
	return 9, nil
}

func (f *fakeWriter) UpdateTrack(ctx context.Context, track catalog.Track) error {
	return f.record("UpdateTrack")
}

func (f *fakeWriter) DeleteTrack(ctx context.Context, id int64) error {
	return f.record("DeleteTrack")
}

func (f *fakeWriter) UpdateLyric(ctx context.Context, lyric catalog.Lyric) error {
	f.mu.Lock()
	f.lyrics = append(f.lyrics, lyric)
	f.mu.Unlock()
	return f.record("UpdateLyric")
}

func (f *fakeWriter) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func TestAdminCreateAlbum(t *testing.T) {
	writer := &fakeWriter{}
	server := newTestServer(t, httpapi.WithCatalogWriter(writer))

	rec, body := doJSON(t, server, http.MethodPost, "/api/v1/admin/albums", `{"name":"Kind of Blue","year":1959}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["id"] != float64(7) {
		t.Errorf("Expected server-assigned id 7, got %v", body["id"])
	}
	if writer.albums[0].Name != "Kind of Blue" {
		t.Errorf("Unexpected album forwarded: %+v", writer.albums[0])
	}
}

func TestAdminUpdateAlbumUsesPathID(t *testing.T) {
	writer := &fakeWriter{}
	server := newTestServer(t, httpapi.WithCatalogWriter(writer))

	rec, _ := doJSON(t, server, http.MethodPut, "/api/v1/admin/albums/3", `{"id":999,"name":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if writer.albums[0].ID != 3 {
		t.Errorf("Expected path id 3 to win over body id, got %d", writer.albums[0].ID)
	}
}

func TestAdminDeleteAndCRUDRouting(t *testing.T) {
	writer := &fakeWriter{}
	server := newTestServer(t, httpapi.WithCatalogWriter(writer))

	cases := []struct {
		method string
		path   string
		body   string
		call   string
	}{
		{http.MethodDelete, "/api/v1/admin/albums/3", "", "DeleteAlbum"},
		{http.MethodPost, "/api/v1/admin/singers", `{"name":"Miles Davis"}`, "CreateSinger"},
		{http.MethodPut, "/api/v1/admin/singers/4", `{"name":"Miles Davis"}`, "UpdateSinger"},
		{http.MethodDelete, "/api/v1/admin/singers/4", "", "DeleteSinger"},
		{http.MethodPost, "/api/v1/admin/tracks", `{"name":"So What"}`, "CreateTrack"},
		{http.MethodPut, "/api/v1/admin/tracks/100", `{"name":"So What"}`, "UpdateTrack"},
		{http.MethodDelete, "/api/v1/admin/tracks/100", "", "DeleteTrack"},
	}
	for _, tc := range cases {
		rec, _ := doJSON(t, server, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusOK {
			t.Errorf("%s %s: expected 200, got %d", tc.method, tc.path, rec.Code)
		}
		if got := writer.lastCall(); got != tc.call {
			t.Errorf("%s %s: expected %s to be called, got %s", tc.method, tc.path, tc.call, got)
		}
	}
}

func TestAdminUpdateLyric(t *testing.T) {
	writer := &fakeWriter{}
	server := newTestServer(t, httpapi.WithCatalogWriter(writer))

	rec, _ := doJSON(t, server, http.MethodPut, "/api/v1/admin/tracks/100/lyric", `{"content":"new words"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if writer.lyrics[0].ID != 100 || writer.lyrics[0].Content != "new words" {
		t.Errorf("Unexpected lyric forwarded: %+v", writer.lyrics[0])
	}
}

func TestAdminWriteFailureIsBadGateway(t *testing.T) {
	writer := &fakeWriter{err: errors.New("catalog down")}
	server := newTestServer(t, httpapi.WithCatalogWriter(writer))

	rec, _ := doJSON(t, server, http.MethodPost, "/api/v1/admin/albums", `{"name":"x"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestAdminRoutesAbsentWithoutWriter(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/albums", strings.NewReader(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a catalog writer, got %d", rec.Code)
	}
}
