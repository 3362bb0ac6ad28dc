// Package catalog defines the entity types mirrored from the Sonora catalog.
package catalog

// IDs are assigned by the remote catalog; the local store never generates
// them. JSON tags match the catalog wire format.

// Album represents an album record.
type Album struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Cover string `json:"cover"` // opaque media reference
	Year  int    `json:"year"`
}

// Singer represents a singer record.
type Singer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"` // opaque media reference
}

// Track represents a track record.
//
// Singer is a denormalized display-name snapshot, not a reference to a
// Singer record. Album is 0 for a standalone single.
type Track struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Singer      string  `json:"singer"`
	Album       int64   `json:"album"`
	Cover       string  `json:"cover"`
	URL         string  `json:"url"` // opaque media reference
	Lyric       int64   `json:"lyric"` // lyric id, 0 = none
	Duration    float64 `json:"duration"` // seconds
	Year        int     `json:"year"`
	TrackNumber int     `json:"trackNumber"` // 0 for singles
	Genre       string  `json:"genre"`
	AlbumText   string  `json:"albumText"` // album name snapshot
}

// IsSingle reports whether the track has no parent album.
func (t Track) IsSingle() bool {
	return t.Album == 0
}

// Lyric represents a lyric record.
type Lyric struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// SyncMetadataID is the fixed id of the singleton sync-metadata row.
const SyncMetadataID = 1

// SyncMetadata is the durable watermark for incremental sync. Exactly one
// row exists after the first successful sync.
type SyncMetadata struct {
	ID                int64 `json:"id"`
	LastSyncTimestamp int64 `json:"lastSyncTimestamp"` // server-issued UnixMilli marker
	CreatedAt         int64 `json:"createdAt"`
}

// Snapshot is a complete catalog snapshot as returned by a full sync.
type Snapshot struct {
	Albums    []Album  `json:"albums"`
	Singers   []Singer `json:"singers"`
	Tracks    []Track  `json:"tracks"`
	Lyrics    []Lyric  `json:"lyrics"`
	Timestamp int64    `json:"timestamp"`
}

// ChangedEntries names a logical catalog table and the ids that changed in
// it since a given watermark.
type ChangedEntries struct {
	TableName string  `json:"tableName"`
	Stale     []int64 `json:"stale"`   // need re-fetch
	Deleted   []int64 `json:"deleted"` // need removal
}

// Updates is an incremental change-log window.
type Updates struct {
	Entries   []ChangedEntries `json:"entries"`
	Timestamp int64            `json:"timestamp"`
}

// Change-log table names used by the catalog.
const (
	TableAlbum  = "d_album"
	TableSinger = "d_singer"
	TableTrack  = "d_track"
	TableLyric  = "d_lyric"
)
