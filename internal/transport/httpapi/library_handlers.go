package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := s.store.GetAllAlbums()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list albums")
		writeError(w, http.StatusInternalServerError, "failed to list albums")
		return
	}
	writeJSON(w, albums)
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid album id")
		return
	}

	album, err := s.store.GetAlbum(id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to get album")
		writeError(w, http.StatusInternalServerError, "failed to get album")
		return
	}
	if album == nil {
		writeError(w, http.StatusNotFound, "album not found")
		return
	}
	writeJSON(w, album)
}

func (s *Server) handleAlbumTracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid album id")
		return
	}

	tracks, err := s.store.GetTracksByAlbum(id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to get album tracks")
		writeError(w, http.StatusInternalServerError, "failed to get album tracks")
		return
	}
	writeJSON(w, tracks)
}

func (s *Server) handleListSingers(w http.ResponseWriter, r *http.Request) {
	singers, err := s.store.GetAllSingers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list singers")
		writeError(w, http.StatusInternalServerError, "failed to list singers")
		return
	}
	writeJSON(w, singers)
}

func (s *Server) handleGetSinger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid singer id")
		return
	}

	singer, err := s.store.GetSinger(id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to get singer")
		writeError(w, http.StatusInternalServerError, "failed to get singer")
		return
	}
	if singer == nil {
		writeError(w, http.StatusNotFound, "singer not found")
		return
	}
	writeJSON(w, singer)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.store.GetAllTracks()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tracks")
		writeError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}
	writeJSON(w, tracks)
}

func (s *Server) handleListSingles(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.store.GetSingles()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list singles")
		writeError(w, http.StatusInternalServerError, "failed to list singles")
		return
	}
	writeJSON(w, tracks)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}

	track, err := s.store.GetTrack(id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to get track")
		writeError(w, http.StatusInternalServerError, "failed to get track")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	writeJSON(w, track)
}

func (s *Server) handleGetLyric(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}

	track, err := s.store.GetTrack(id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to get track")
		writeError(w, http.StatusInternalServerError, "failed to get track")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	if track.Lyric == 0 {
		writeJSON(w, catalog.Lyric{})
		return
	}

	lyric, err := s.store.GetLyric(track.Lyric)
	if err != nil {
		log.Error().Err(err).Int64("id", track.Lyric).Msg("Failed to get lyric")
		writeError(w, http.StatusInternalServerError, "failed to get lyric")
		return
	}
	if lyric == nil {
		writeJSON(w, catalog.Lyric{ID: track.Lyric})
		return
	}
	writeJSON(w, lyric)
}

// handleSearch searches albums, singers and tracks in one pass. An empty
// query returns empty result sets.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	albums, err := s.store.SearchAlbums(query)
	if err != nil {
		log.Error().Err(err).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	singers, err := s.store.SearchSingers(query)
	if err != nil {
		log.Error().Err(err).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	tracks, err := s.store.SearchTracks(query)
	if err != nil {
		log.Error().Err(err).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, map[string]any{
		"albums":  albums,
		"singers": singers,
		"tracks":  tracks,
	})
}
