package store

import (
	"database/sql"
	"fmt"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// Store provides read access to the mirrored catalog entities. All reads go
// through here; UI callers never touch tables directly. Point lookups return
// (nil, nil) when the record is absent.
type Store struct {
	db *DB
}

// New creates a new Store instance.
func New(db *DB) *Store {
	return &Store{db: db}
}

// Stats reports cache row counts and file size.
func (s *Store) Stats() (*Stats, error) {
	return s.db.GetStats()
}

// --- Album Operations ---

const albumColumns = "id, name, cover, year"

func scanAlbum(row interface{ Scan(...any) error }) (*catalog.Album, error) {
	album := &catalog.Album{}
	if err := row.Scan(&album.ID, &album.Name, &album.Cover, &album.Year); err != nil {
		return nil, err
	}
	return album, nil
}

// GetAllAlbums returns every album record.
func (s *Store) GetAllAlbums() ([]catalog.Album, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query("SELECT " + albumColumns + " FROM albums")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	albums := make([]catalog.Album, 0)
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, *album)
	}
	return albums, rows.Err()
}

// GetAlbum retrieves an album by id, or nil if absent.
func (s *Store) GetAlbum(id int64) (*catalog.Album, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	album, err := scanAlbum(db.QueryRow("SELECT "+albumColumns+" FROM albums WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return album, nil
}

// SearchAlbums returns albums whose name contains the query,
// case-insensitively. An empty query returns an empty result.
func (s *Store) SearchAlbums(query string) ([]catalog.Album, error) {
	if query == "" {
		return []catalog.Album{}, nil
	}
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query(
		"SELECT "+albumColumns+" FROM albums WHERE name LIKE ? COLLATE NOCASE ORDER BY name COLLATE NOCASE",
		"%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	albums := make([]catalog.Album, 0)
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, *album)
	}
	return albums, rows.Err()
}

// --- Singer Operations ---

const singerColumns = "id, name, avatar"

func scanSinger(row interface{ Scan(...any) error }) (*catalog.Singer, error) {
	singer := &catalog.Singer{}
	if err := row.Scan(&singer.ID, &singer.Name, &singer.Avatar); err != nil {
		return nil, err
	}
	return singer, nil
}

// GetAllSingers returns every singer record.
func (s *Store) GetAllSingers() ([]catalog.Singer, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query("SELECT " + singerColumns + " FROM singers")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	singers := make([]catalog.Singer, 0)
	for rows.Next() {
		singer, err := scanSinger(rows)
		if err != nil {
			return nil, err
		}
		singers = append(singers, *singer)
	}
	return singers, rows.Err()
}

// GetSinger retrieves a singer by id, or nil if absent.
func (s *Store) GetSinger(id int64) (*catalog.Singer, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	singer, err := scanSinger(db.QueryRow("SELECT "+singerColumns+" FROM singers WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return singer, nil
}

// SearchSingers returns singers whose name contains the query,
// case-insensitively. An empty query returns an empty result.
func (s *Store) SearchSingers(query string) ([]catalog.Singer, error) {
	if query == "" {
		return []catalog.Singer{}, nil
	}
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query(
		"SELECT "+singerColumns+" FROM singers WHERE name LIKE ? COLLATE NOCASE ORDER BY name COLLATE NOCASE",
		"%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	singers := make([]catalog.Singer, 0)
	for rows.Next() {
		singer, err := scanSinger(rows)
		if err != nil {
			return nil, err
		}
		singers = append(singers, *singer)
	}
	return singers, rows.Err()
}

// --- Track Operations ---

const trackColumns = "id, name, singer, album, cover, url, lyric, duration, year, track_number, genre, album_text"

func scanTrack(row interface{ Scan(...any) error }) (*catalog.Track, error) {
	track := &catalog.Track{}
	err := row.Scan(
		&track.ID, &track.Name, &track.Singer, &track.Album, &track.Cover,
		&track.URL, &track.Lyric, &track.Duration, &track.Year,
		&track.TrackNumber, &track.Genre, &track.AlbumText,
	)
	if err != nil {
		return nil, err
	}
	return track, nil
}

// GetAllTracks returns every track record.
func (s *Store) GetAllTracks() ([]catalog.Track, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query("SELECT " + trackColumns + " FROM tracks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := make([]catalog.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

// GetTrack retrieves a track by id, or nil if absent.
func (s *Store) GetTrack(id int64) (*catalog.Track, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	track, err := scanTrack(db.QueryRow("SELECT "+trackColumns+" FROM tracks WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// GetTracksByAlbum returns tracks with an exact album match. Album id 0
// selects standalone singles, not an album.
func (s *Store) GetTracksByAlbum(albumID int64) ([]catalog.Track, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := db.Query(
		"SELECT "+trackColumns+" FROM tracks WHERE album = ? ORDER BY track_number, name COLLATE NOCASE",
		albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := make([]catalog.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

// GetSingles returns tracks that are not part of any album.
func (s *Store) GetSingles() ([]catalog.Track, error) {
	return s.GetTracksByAlbum(0)
}

// SearchTracks returns tracks whose name or singer contains the query,
// case-insensitively. An empty query returns an empty result.
func (s *Store) SearchTracks(query string) ([]catalog.Track, error) {
	if query == "" {
		return []catalog.Track{}, nil
	}
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	term := "%" + query + "%"
	rows, err := db.Query(
		"SELECT "+trackColumns+" FROM tracks WHERE name LIKE ? COLLATE NOCASE OR singer LIKE ? COLLATE NOCASE ORDER BY name COLLATE NOCASE",
		term, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := make([]catalog.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

// --- Lyric Operations ---

// GetLyric retrieves a lyric by id, or nil if absent.
func (s *Store) GetLyric(id int64) (*catalog.Lyric, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	lyric := &catalog.Lyric{}
	err := db.QueryRow("SELECT id, content FROM lyrics WHERE id = ?", id).
		Scan(&lyric.ID, &lyric.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lyric, nil
}

// --- Sync Metadata ---

// GetSyncMetadata retrieves the watermark row, or nil if no sync has
// completed yet.
func (s *Store) GetSyncMetadata() (*catalog.SyncMetadata, error) {
	db := s.db.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	meta := &catalog.SyncMetadata{}
	err := db.QueryRow(
		"SELECT id, last_sync_timestamp, created_at FROM sync_metadata WHERE id = ?",
		catalog.SyncMetadataID).
		Scan(&meta.ID, &meta.LastSyncTimestamp, &meta.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}
