package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// The sync engine is the sole writer to the store. Every multi-table
// mutation here runs in a single transaction so that readers observe either
// the old state or the new one, never a mix.

// ChangeSet is a batch of deletions and upserts collected from an
// incremental change-log, grouped by entity type. All network fetching has
// already happened by the time a ChangeSet reaches the store.
type ChangeSet struct {
	DeleteAlbums  []int64
	DeleteSingers []int64
	DeleteTracks  []int64
	DeleteLyrics  []int64

	UpsertAlbums  []catalog.Album
	UpsertSingers []catalog.Singer
	UpsertTracks  []catalog.Track
	UpsertLyrics  []catalog.Lyric
}

// Empty reports whether the change set contains no work.
func (c *ChangeSet) Empty() bool {
	return len(c.DeleteAlbums) == 0 && len(c.DeleteSingers) == 0 &&
		len(c.DeleteTracks) == 0 && len(c.DeleteLyrics) == 0 &&
		len(c.UpsertAlbums) == 0 && len(c.UpsertSingers) == 0 &&
		len(c.UpsertTracks) == 0 && len(c.UpsertLyrics) == 0
}

// ApplyFullSync atomically replaces the entire store contents with a catalog
// snapshot and records its timestamp as the new watermark. On any failure
// the store is left in its prior state.
func (s *Store) ApplyFullSync(snap *catalog.Snapshot) error {
	tx, err := s.db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearAllTx(tx); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}

	// Tables were just cleared, so plain INSERTs; a conflicting snapshot
	// aborts the whole transaction instead of silently overwriting.
	for _, album := range snap.Albums {
		if _, err := tx.Exec(
			"INSERT INTO albums (id, name, cover, year) VALUES (?, ?, ?, ?)",
			album.ID, album.Name, album.Cover, album.Year); err != nil {
			return fmt.Errorf("failed to insert album %d: %w", album.ID, err)
		}
	}
	for _, singer := range snap.Singers {
		if _, err := tx.Exec(
			"INSERT INTO singers (id, name, avatar) VALUES (?, ?, ?)",
			singer.ID, singer.Name, singer.Avatar); err != nil {
			return fmt.Errorf("failed to insert singer %d: %w", singer.ID, err)
		}
	}
	for _, track := range snap.Tracks {
		if _, err := tx.Exec(
			`INSERT INTO tracks (id, name, singer, album, cover, url, lyric, duration, year, track_number, genre, album_text)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			track.ID, track.Name, track.Singer, track.Album, track.Cover, track.URL,
			track.Lyric, track.Duration, track.Year, track.TrackNumber, track.Genre, track.AlbumText); err != nil {
			return fmt.Errorf("failed to insert track %d: %w", track.ID, err)
		}
	}
	for _, lyric := range snap.Lyrics {
		if _, err := tx.Exec(
			"INSERT INTO lyrics (id, content) VALUES (?, ?)",
			lyric.ID, lyric.Content); err != nil {
			return fmt.Errorf("failed to insert lyric %d: %w", lyric.ID, err)
		}
	}

	if err := putSyncMetadataTx(tx, snap.Timestamp); err != nil {
		return fmt.Errorf("failed to write sync metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit full sync: %w", err)
	}

	log.Info().
		Int("albums", len(snap.Albums)).
		Int("singers", len(snap.Singers)).
		Int("tracks", len(snap.Tracks)).
		Int("lyrics", len(snap.Lyrics)).
		Int64("timestamp", snap.Timestamp).
		Msg("Full sync applied")
	return nil
}

// ApplyChanges atomically applies an incremental change set: deletions
// first, then upserts, then the advanced watermark.
func (s *Store) ApplyChanges(changes *ChangeSet, timestamp int64) error {
	tx, err := s.db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteManyTx(tx, "albums", changes.DeleteAlbums); err != nil {
		return err
	}
	if err := deleteManyTx(tx, "singers", changes.DeleteSingers); err != nil {
		return err
	}
	if err := deleteManyTx(tx, "tracks", changes.DeleteTracks); err != nil {
		return err
	}
	if err := deleteManyTx(tx, "lyrics", changes.DeleteLyrics); err != nil {
		return err
	}

	for _, album := range changes.UpsertAlbums {
		if _, err := tx.Exec(`
			INSERT INTO albums (id, name, cover, year) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = ?, cover = ?, year = ?`,
			album.ID, album.Name, album.Cover, album.Year,
			album.Name, album.Cover, album.Year); err != nil {
			return fmt.Errorf("failed to upsert album %d: %w", album.ID, err)
		}
	}
	for _, singer := range changes.UpsertSingers {
		if _, err := tx.Exec(`
			INSERT INTO singers (id, name, avatar) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = ?, avatar = ?`,
			singer.ID, singer.Name, singer.Avatar,
			singer.Name, singer.Avatar); err != nil {
			return fmt.Errorf("failed to upsert singer %d: %w", singer.ID, err)
		}
	}
	for _, track := range changes.UpsertTracks {
		if _, err := tx.Exec(`
			INSERT INTO tracks (id, name, singer, album, cover, url, lyric, duration, year, track_number, genre, album_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = ?, singer = ?, album = ?, cover = ?, url = ?, lyric = ?,
				duration = ?, year = ?, track_number = ?, genre = ?, album_text = ?`,
			track.ID, track.Name, track.Singer, track.Album, track.Cover, track.URL,
			track.Lyric, track.Duration, track.Year, track.TrackNumber, track.Genre, track.AlbumText,
			track.Name, track.Singer, track.Album, track.Cover, track.URL,
			track.Lyric, track.Duration, track.Year, track.TrackNumber, track.Genre, track.AlbumText); err != nil {
			return fmt.Errorf("failed to upsert track %d: %w", track.ID, err)
		}
	}
	for _, lyric := range changes.UpsertLyrics {
		if _, err := tx.Exec(`
			INSERT INTO lyrics (id, content) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET content = ?`,
			lyric.ID, lyric.Content, lyric.Content); err != nil {
			return fmt.Errorf("failed to upsert lyric %d: %w", lyric.ID, err)
		}
	}

	if err := putSyncMetadataTx(tx, timestamp); err != nil {
		return fmt.Errorf("failed to write sync metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit incremental sync: %w", err)
	}

	log.Info().
		Int("deletions", len(changes.DeleteAlbums)+len(changes.DeleteSingers)+len(changes.DeleteTracks)+len(changes.DeleteLyrics)).
		Int("upserts", len(changes.UpsertAlbums)+len(changes.UpsertSingers)+len(changes.UpsertTracks)+len(changes.UpsertLyrics)).
		Int64("timestamp", timestamp).
		Msg("Incremental sync applied")
	return nil
}

// AdvanceWatermark moves the watermark forward without touching entity
// tables. Used when a change-log window comes back empty.
func (s *Store) AdvanceWatermark(timestamp int64) error {
	tx, err := s.db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := putSyncMetadataTx(tx, timestamp); err != nil {
		return err
	}
	return tx.Commit()
}

// clearAllTx wipes every entity table and the watermark. Sync-engine use
// only, always inside a full-sync transaction.
func clearAllTx(tx *sql.Tx) error {
	tables := []string{"tracks", "albums", "singers", "lyrics", "sync_metadata"}
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// deleteManyTx removes the given ids from a table.
func deleteManyTx(tx *sql.Tx, table string, ids []int64) error {
	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return nil
}

// putSyncMetadataTx writes the singleton watermark row.
func putSyncMetadataTx(tx *sql.Tx, timestamp int64) error {
	_, err := tx.Exec(`
		INSERT INTO sync_metadata (id, last_sync_timestamp, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_sync_timestamp = ?, created_at = ?`,
		catalog.SyncMetadataID, timestamp, time.Now().UnixMilli(),
		timestamp, time.Now().UnixMilli())
	return err
}
