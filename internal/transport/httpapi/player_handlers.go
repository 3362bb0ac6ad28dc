package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
	"github.com/EricWvi/sonora-player/internal/domain/queue"
)

func (s *Server) handlePlayerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.controller.Status())
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.controller.Play()
	writeJSON(w, s.controller.Status())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.controller.Pause()
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.controller.TogglePlay()
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.controller.Next()
	writeJSON(w, s.controller.Status())
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.controller.Previous()
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position float64 `json:"position"` // seconds
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Position < 0 {
		writeError(w, http.StatusBadRequest, "position must not be negative")
		return
	}

	s.controller.Seek(time.Duration(req.Position * float64(time.Second)))
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.controller.JumpTo(req.Index)
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	s.controller.ToggleShuffle()
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mode == "" {
		s.controller.CycleRepeat()
	} else {
		s.controller.SetRepeat(queue.RepeatMode(req.Mode))
	}
	writeJSON(w, s.controller.Status())
}

// handlePlayTracks replaces the queue with the requested tracks and starts
// playback. Unknown ids are skipped.
func (s *Server) handlePlayTracks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackIDs   []int64 `json:"trackIds"`
		AlbumID    int64   `json:"albumId"`
		StartIndex int     `json:"startIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var tracks []catalog.Track
	switch {
	case req.AlbumID != 0:
		albumTracks, err := s.store.GetTracksByAlbum(req.AlbumID)
		if err != nil {
			log.Error().Err(err).Int64("id", req.AlbumID).Msg("Failed to load album tracks")
			writeError(w, http.StatusInternalServerError, "failed to load album tracks")
			return
		}
		tracks = albumTracks
	default:
		for _, id := range req.TrackIDs {
			track, err := s.store.GetTrack(id)
			if err != nil {
				log.Error().Err(err).Int64("id", id).Msg("Failed to load track")
				writeError(w, http.StatusInternalServerError, "failed to load track")
				return
			}
			if track == nil {
				log.Warn().Int64("id", id).Msg("Skipping unknown track")
				continue
			}
			tracks = append(tracks, *track)
		}
	}

	if len(tracks) == 0 {
		writeError(w, http.StatusBadRequest, "no playable tracks")
		return
	}

	s.controller.PlayTracks(tracks, req.StartIndex)
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackID int64 `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	track, err := s.store.GetTrack(req.TrackID)
	if err != nil {
		log.Error().Err(err).Int64("id", req.TrackID).Msg("Failed to load track")
		writeError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}

	s.controller.AddToQueue(*track)
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.controller.RemoveFromQueue(req.Index)
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleQueueReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.controller.ReorderQueue(req.From, req.To)
	writeJSON(w, s.controller.Status())
}

func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	s.controller.ClearQueue()
	writeJSON(w, s.controller.Status())
}
