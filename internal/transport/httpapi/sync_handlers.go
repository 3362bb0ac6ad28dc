package httpapi

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// handleSync runs a regular sync pass. Concurrent requests attach to the
// pass already in flight.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.Initialize(r.Context()); err != nil {
		log.Error().Err(err).Msg("Sync failed")
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}
	s.writeSyncStatus(w)
}

// handleFullSync discards the local cache and rebuilds it from a fresh
// snapshot.
func (s *Server) handleFullSync(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.ForceFull(r.Context()); err != nil {
		log.Error().Err(err).Msg("Full sync failed")
		writeError(w, http.StatusBadGateway, "full sync failed")
		return
	}
	s.writeSyncStatus(w)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	s.writeSyncStatus(w)
}

func (s *Server) writeSyncStatus(w http.ResponseWriter) {
	meta, err := s.store.GetSyncMetadata()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read sync metadata")
		writeError(w, http.StatusInternalServerError, "failed to read sync metadata")
		return
	}
	if meta == nil {
		writeJSON(w, map[string]any{"synced": false})
		return
	}
	writeJSON(w, map[string]any{
		"synced":            true,
		"lastSyncTimestamp": meta.LastSyncTimestamp,
		"createdAt":         meta.CreatedAt,
	})
}
