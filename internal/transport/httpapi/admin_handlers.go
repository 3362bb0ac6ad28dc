package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// CatalogWriter submits catalog mutations upstream. Writes bypass the local
// cache; the mirror picks changes up on the next sync pass.
type CatalogWriter interface {
	CreateAlbum(ctx context.Context, album catalog.Album) (int64, error)
	UpdateAlbum(ctx context.Context, album catalog.Album) error
	DeleteAlbum(ctx context.Context, id int64) error
	CreateSinger(ctx context.Context, singer catalog.Singer) (int64, error)
	UpdateSinger(ctx context.Context, singer catalog.Singer) error
	DeleteSinger(ctx context.Context, id int64) error
	CreateTrack(ctx context.Context, track catalog.Track) (int64, error)
	UpdateTrack(ctx context.Context, track catalog.Track) error
	DeleteTrack(ctx context.Context, id int64) error
	UpdateLyric(ctx context.Context, lyric catalog.Lyric) error
}

// adminRoutes registers the catalog mutation endpoints. Only reachable when
// the server was built with a CatalogWriter.
func (s *Server) adminRoutes() {
	s.router.HandleFunc("/api/v1/admin/albums", s.handleCreateAlbum).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/admin/albums/{id:[0-9]+}", s.handleUpdateAlbum).Methods(http.MethodPut)
	s.router.HandleFunc("/api/v1/admin/albums/{id:[0-9]+}", s.handleDeleteAlbum).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/v1/admin/singers", s.handleCreateSinger).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/admin/singers/{id:[0-9]+}", s.handleUpdateSinger).Methods(http.MethodPut)
	s.router.HandleFunc("/api/v1/admin/singers/{id:[0-9]+}", s.handleDeleteSinger).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/v1/admin/tracks", s.handleCreateTrack).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/admin/tracks/{id:[0-9]+}", s.handleUpdateTrack).Methods(http.MethodPut)
	s.router.HandleFunc("/api/v1/admin/tracks/{id:[0-9]+}", s.handleDeleteTrack).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/v1/admin/tracks/{id:[0-9]+}/lyric", s.handleUpdateLyric).Methods(http.MethodPut)
}

// resync pulls the write just made back into the local cache. Best effort;
// a failure here only delays the mirror until the next pass.
func (s *Server) resync() {
	go func() {
		if err := s.sync.Initialize(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Post-write sync failed")
		}
	}()
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var album catalog.Album
	if err := json.NewDecoder(r.Body).Decode(&album); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.writer.CreateAlbum(r.Context(), album)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create album")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid album id")
		return
	}
	var album catalog.Album
	if err := json.NewDecoder(r.Body).Decode(&album); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	album.ID = id

	if err := s.writer.UpdateAlbum(r.Context(), album); err != nil {
		log.Error().Err(err).Int64("album", id).Msg("Failed to update album")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid album id")
		return
	}

	if err := s.writer.DeleteAlbum(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("album", id).Msg("Failed to delete album")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleCreateSinger(w http.ResponseWriter, r *http.Request) {
	var singer catalog.Singer
	if err := json.NewDecoder(r.Body).Decode(&singer); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.writer.CreateSinger(r.Context(), singer)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create singer")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleUpdateSinger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid singer id")
		return
	}
	var singer catalog.Singer
	if err := json.NewDecoder(r.Body).Decode(&singer); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	singer.ID = id

	if err := s.writer.UpdateSinger(r.Context(), singer); err != nil {
		log.Error().Err(err).Int64("singer", id).Msg("Failed to update singer")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSinger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid singer id")
		return
	}

	if err := s.writer.DeleteSinger(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("singer", id).Msg("Failed to delete singer")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var track catalog.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.writer.CreateTrack(r.Context(), track)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create track")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleUpdateTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	var track catalog.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	track.ID = id

	if err := s.writer.UpdateTrack(r.Context(), track); err != nil {
		log.Error().Err(err).Int64("track", id).Msg("Failed to update track")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}

	if err := s.writer.DeleteTrack(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("track", id).Msg("Failed to delete track")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleUpdateLyric(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.writer.UpdateLyric(r.Context(), catalog.Lyric{ID: id, Content: req.Content}); err != nil {
		log.Error().Err(err).Int64("track", id).Msg("Failed to update lyric")
		writeError(w, http.StatusBadGateway, "catalog write failed")
		return
	}
	s.resync()
	writeJSON(w, map[string]int64{"id": id})
}
