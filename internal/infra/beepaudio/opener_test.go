package beepaudio_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EricWvi/sonora-player/internal/infra/beepaudio"
)

func TestOpenResolvesRelativePaths(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	opener := beepaudio.NewOpener(server.URL)
	if _, err := opener.Open("/api/m/abc123"); err == nil {
		t.Fatal("Open should fail on 404")
	}
	if gotPath != "/api/m/abc123" {
		t.Errorf("Expected fetch of /api/m/abc123, got %s", gotPath)
	}
}

func TestOpenRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	opener := beepaudio.NewOpener(server.URL)
	if _, err := opener.Open("/api/m/abc123"); err == nil {
		t.Error("Open should report server errors")
	}
}

func TestOpenUnreachableHost(t *testing.T) {
	opener := beepaudio.NewOpener("http://127.0.0.1:0")
	if _, err := opener.Open("/api/m/abc123"); err == nil {
		t.Error("Open should fail when the host is unreachable")
	}
}
