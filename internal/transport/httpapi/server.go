// Package httpapi exposes the library, sync and player controls over HTTP
// and pushes player state over WebSocket.
package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/playback"
	"github.com/EricWvi/sonora-player/internal/domain/queue"
	syncer "github.com/EricWvi/sonora-player/internal/domain/sync"
	"github.com/EricWvi/sonora-player/internal/infra/store"
	"github.com/EricWvi/sonora-player/internal/version"
)

// Server wires the HTTP routes to the domain services.
type Server struct {
	router     *mux.Router
	handler    http.Handler
	store      *store.Store
	sync       *syncer.Engine
	controller *queue.Controller
	writer     CatalogWriter
	hub        *hub
	staticDir  string
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithStaticDir serves the web UI from dir, with SPA fallback to index.html.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithCatalogWriter enables the admin endpoints that forward catalog
// mutations upstream.
func WithCatalogWriter(w CatalogWriter) Option {
	return func(s *Server) {
		s.writer = w
	}
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(st *store.Store, sy *syncer.Engine, ctrl *queue.Controller, opts ...Option) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		store:      st,
		sync:       sy,
		controller: ctrl,
		hub:        newHub(),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Player state changes fan out to every connected WebSocket client.
	ctrl.SetListener(func(ev playback.Event) {
		s.hub.broadcast(stateMessage{Type: "state", Status: ctrl.Status()})
	})

	s.routes()
	// CORS wraps the whole router so preflight requests are answered even
	// for method-restricted routes.
	s.handler = corsMiddleware(s.router)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/version", s.handleVersion).Methods(http.MethodGet)

	// Library
	s.router.HandleFunc("/api/v1/albums", s.handleListAlbums).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/albums/{id:[0-9]+}", s.handleGetAlbum).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/albums/{id:[0-9]+}/tracks", s.handleAlbumTracks).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/singers", s.handleListSingers).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/singers/{id:[0-9]+}", s.handleGetSinger).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/tracks", s.handleListTracks).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/tracks/{id:[0-9]+}", s.handleGetTrack).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/tracks/{id:[0-9]+}/lyric", s.handleGetLyric).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/singles", s.handleListSingles).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/search", s.handleSearch).Methods(http.MethodGet)

	// Admin writes
	if s.writer != nil {
		s.adminRoutes()
	}

	// Sync
	s.router.HandleFunc("/api/v1/sync", s.handleSync).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/sync/full", s.handleFullSync).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/sync/status", s.handleSyncStatus).Methods(http.MethodGet)

	// Player
	s.router.HandleFunc("/api/v1/player", s.handlePlayerStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/player/play", s.handlePlay).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/pause", s.handlePause).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/toggle", s.handleToggle).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/next", s.handleNext).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/previous", s.handlePrevious).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/seek", s.handleSeek).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/jump", s.handleJump).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/shuffle", s.handleShuffle).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/player/repeat", s.handleRepeat).Methods(http.MethodPost)

	// Queue
	s.router.HandleFunc("/api/v1/queue", s.handlePlayTracks).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/queue/add", s.handleQueueAdd).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/queue/remove", s.handleQueueRemove).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/queue/reorder", s.handleQueueReorder).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/queue/clear", s.handleQueueClear).Methods(http.MethodPost)

	// State push
	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.staticDir != "" {
		s.router.PathPrefix("/").HandlerFunc(s.handleStatic)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "error"})
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "cache": stats})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, version.GetInfo())
}

// handleStatic serves the web UI with SPA fallback for client-side routes.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := s.staticDir + r.URL.Path
	if r.URL.Path == "/" {
		path = s.staticDir + "/index.html"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if strings.Contains(r.URL.Path, ".") {
			http.NotFound(w, r)
			return
		}
		path = s.staticDir + "/index.html"
	}
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
