// Package store provides the SQLite-backed local mirror of the Sonora catalog.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// DefaultDBPath is the default path for the local store database.
	DefaultDBPath = "data/sonora.db"
)

// DB represents the local store database.
type DB struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewDB creates a new local store database instance.
func NewDB(path string) *DB {
	if path == "" {
		path = DefaultDBPath
	}
	return &DB{
		path: path,
	}
}

// Open opens the database and initializes the schema.
func (d *DB) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Ensure directory exists
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", d.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open store database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	d.db = db

	if err := d.initSchema(); err != nil {
		d.db.Close()
		d.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", d.path).Msg("Local store opened")
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

// initSchema initializes the database schema.
func (d *DB) initSchema() error {
	currentVersion := d.getSchemaVersion()

	if currentVersion == "" {
		// Fresh database, create all tables
		if err := d.createSchema(); err != nil {
			return err
		}
		return d.setMeta("schema_version", CurrentSchemaVersion)
	}

	if currentVersion != CurrentSchemaVersion {
		log.Info().
			Str("current", currentVersion).
			Str("target", CurrentSchemaVersion).
			Msg("Migrating store schema")
		// Add migration logic here when schema changes
		return d.setMeta("schema_version", CurrentSchemaVersion)
	}

	return nil
}

// createSchema creates all database tables.
func (d *DB) createSchema() error {
	schema := `
	-- Albums table
	CREATE TABLE IF NOT EXISTS albums (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		cover TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0
	);

	-- Singers table
	CREATE TABLE IF NOT EXISTS singers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT ''
	);

	-- Tracks table. singer is a display-name snapshot, album is 0 for singles.
	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		singer TEXT NOT NULL DEFAULT '',
		album INTEGER NOT NULL DEFAULT 0,
		cover TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		lyric INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		year INTEGER NOT NULL DEFAULT 0,
		track_number INTEGER NOT NULL DEFAULT 0,
		genre TEXT NOT NULL DEFAULT '',
		album_text TEXT NOT NULL DEFAULT ''
	);

	-- Lyrics table
	CREATE TABLE IF NOT EXISTS lyrics (
		id INTEGER PRIMARY KEY,
		content TEXT NOT NULL DEFAULT ''
	);

	-- Sync watermark, singleton row with id 1
	CREATE TABLE IF NOT EXISTS sync_metadata (
		id INTEGER PRIMARY KEY,
		last_sync_timestamp INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	-- Store metadata
	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	-- Indexes for library queries
	CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_singers_name ON singers(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album);
	CREATE INDEX IF NOT EXISTS idx_tracks_name ON tracks(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_tracks_singer ON tracks(singer COLLATE NOCASE);
	`

	_, err := d.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info().Msg("Store schema created")
	return nil
}

// getSchemaVersion returns the current schema version.
func (d *DB) getSchemaVersion() string {
	var version string
	err := d.db.QueryRow("SELECT value FROM store_meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// setMeta sets a metadata value.
func (d *DB) setMeta(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO store_meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`, key, value, time.Now().Format(time.RFC3339), value, time.Now().Format(time.RFC3339))
	return err
}

// getMeta gets a metadata value.
func (d *DB) getMeta(key string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM store_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Stats contains store statistics.
type Stats struct {
	AlbumCount    int    `json:"albums"`
	SingerCount   int    `json:"singers"`
	TrackCount    int    `json:"tracks"`
	LyricCount    int    `json:"lyrics"`
	SchemaVersion string `json:"schemaVersion"`
}

// GetStats returns store statistics.
func (d *DB) GetStats() (*Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	stats := &Stats{}

	var err error
	err = d.db.QueryRow("SELECT COUNT(*) FROM albums").Scan(&stats.AlbumCount)
	if err != nil {
		return nil, err
	}

	err = d.db.QueryRow("SELECT COUNT(*) FROM singers").Scan(&stats.SingerCount)
	if err != nil {
		return nil, err
	}

	err = d.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&stats.TrackCount)
	if err != nil {
		return nil, err
	}

	err = d.db.QueryRow("SELECT COUNT(*) FROM lyrics").Scan(&stats.LyricCount)
	if err != nil {
		return nil, err
	}

	stats.SchemaVersion, _ = d.getMeta("schema_version")

	return stats, nil
}

// BeginTx starts a new transaction.
func (d *DB) BeginTx() (*sql.Tx, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	return d.db.Begin()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the Store methods.
func (d *DB) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}
