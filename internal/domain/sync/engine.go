// Package sync keeps the local store consistent with the remote catalog.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
	"github.com/EricWvi/sonora-player/internal/infra/store"
)

// DefaultStaleThreshold is how old the watermark may get before an
// incremental sync is no longer trusted and a full sync runs instead.
const DefaultStaleThreshold = 28 * 24 * time.Hour

// CatalogClient is the read surface of the remote catalog consumed by the
// engine.
type CatalogClient interface {
	GetFullSync(ctx context.Context) (*catalog.Snapshot, error)
	GetUpdates(ctx context.Context, since int64) (*catalog.Updates, error)
	GetAlbum(ctx context.Context, id int64) (*catalog.Album, error)
	GetSinger(ctx context.Context, id int64) (*catalog.Singer, error)
	GetTrack(ctx context.Context, id int64) (*catalog.Track, error)
	GetLyric(ctx context.Context, id int64) (*catalog.Lyric, error)
}

// Engine orchestrates full and incremental synchronization. It is the sole
// writer to the local store. At most one sync runs at a time; concurrent
// Initialize calls attach to the in-flight sync and observe its outcome.
type Engine struct {
	store  *store.Store
	client CatalogClient

	staleThreshold time.Duration
	now            func() time.Time

	mu       sync.Mutex
	inflight *flight
}

// flight is one logical sync shared by every caller that attached to it.
type flight struct {
	done chan struct{}
	err  error
}

// EngineOption is a functional option for configuring the engine.
type EngineOption func(*Engine)

// WithStaleThreshold overrides the watermark age that forces a full sync.
func WithStaleThreshold(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.staleThreshold = d
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new sync engine.
func NewEngine(st *store.Store, client CatalogClient, opts ...EngineOption) *Engine {
	e := &Engine{
		store:          st,
		client:         client,
		staleThreshold: DefaultStaleThreshold,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Initialize brings the store up to date. A missing or stale watermark
// triggers a full sync, whose failure is returned to the caller. Otherwise
// an incremental sync runs; its failure is logged but not returned, since
// the cache stays usable as-is and the next Initialize retries.
func (e *Engine) Initialize(ctx context.Context) error {
	return e.run(ctx, e.performSync)
}

// ForceFull runs a full sync regardless of watermark freshness.
func (e *Engine) ForceFull(ctx context.Context) error {
	return e.run(ctx, e.fullSync)
}

// run executes fn under the single-flight guard.
func (e *Engine) run(ctx context.Context, fn func(context.Context) error) error {
	e.mu.Lock()
	if e.inflight != nil {
		f := e.inflight
		e.mu.Unlock()
		<-f.done
		return f.err
	}
	f := &flight{done: make(chan struct{})}
	e.inflight = f
	e.mu.Unlock()

	f.err = fn(ctx)

	e.mu.Lock()
	e.inflight = nil
	e.mu.Unlock()
	close(f.done)

	return f.err
}

// performSync decides between full and incremental sync.
func (e *Engine) performSync(ctx context.Context) error {
	meta, err := e.store.GetSyncMetadata()
	if err != nil {
		return err
	}

	if meta == nil || e.now().UnixMilli()-meta.LastSyncTimestamp > e.staleThreshold.Milliseconds() {
		return e.fullSync(ctx)
	}

	if err := e.incrementalSync(ctx, meta.LastSyncTimestamp); err != nil {
		// The cache stays usable however stale it is; only full sync
		// failure is fatal to initialization.
		log.Warn().Err(err).Msg("Incremental sync failed, will retry later")
	}
	return nil
}

// fullSync replaces the whole store from a catalog snapshot. The fetch
// completes before the transaction opens, so a fetch failure leaves the
// store untouched.
func (e *Engine) fullSync(ctx context.Context) error {
	log.Info().Msg("Performing full sync")

	snap, err := e.client.GetFullSync(ctx)
	if err != nil {
		return err
	}

	return e.store.ApplyFullSync(snap)
}

// incrementalSync applies the change-log since the given watermark.
func (e *Engine) incrementalSync(ctx context.Context, since int64) error {
	log.Info().Int64("since", since).Msg("Performing incremental sync")

	updates, err := e.client.GetUpdates(ctx, since)
	if err != nil {
		return err
	}

	if len(updates.Entries) == 0 {
		// An empty window still advances the watermark so the same
		// window is not requested again.
		log.Debug().Int64("timestamp", updates.Timestamp).Msg("No updates to sync")
		return e.store.AdvanceWatermark(updates.Timestamp)
	}

	// All network fetching happens before the write transaction opens.
	changes := e.collectChanges(ctx, updates.Entries)

	return e.store.ApplyChanges(changes, updates.Timestamp)
}

// collectChanges gathers deletions and point-fetches every stale record.
// A failed fetch skips that record only; unknown tables are skipped with a
// warning for forward compatibility.
func (e *Engine) collectChanges(ctx context.Context, entries []catalog.ChangedEntries) *store.ChangeSet {
	changes := &store.ChangeSet{}

	for _, entry := range entries {
		switch entry.TableName {
		case catalog.TableAlbum:
			changes.DeleteAlbums = append(changes.DeleteAlbums, entry.Deleted...)
			for _, id := range entry.Stale {
				album, err := e.client.GetAlbum(ctx, id)
				if err != nil {
					log.Warn().Err(err).Int64("id", id).Msg("Failed to fetch album, skipping")
					continue
				}
				changes.UpsertAlbums = append(changes.UpsertAlbums, *album)
			}
		case catalog.TableSinger:
			changes.DeleteSingers = append(changes.DeleteSingers, entry.Deleted...)
			for _, id := range entry.Stale {
				singer, err := e.client.GetSinger(ctx, id)
				if err != nil {
					log.Warn().Err(err).Int64("id", id).Msg("Failed to fetch singer, skipping")
					continue
				}
				changes.UpsertSingers = append(changes.UpsertSingers, *singer)
			}
		case catalog.TableTrack:
			changes.DeleteTracks = append(changes.DeleteTracks, entry.Deleted...)
			for _, id := range entry.Stale {
				track, err := e.client.GetTrack(ctx, id)
				if err != nil {
					log.Warn().Err(err).Int64("id", id).Msg("Failed to fetch track, skipping")
					continue
				}
				changes.UpsertTracks = append(changes.UpsertTracks, *track)
			}
		case catalog.TableLyric:
			changes.DeleteLyrics = append(changes.DeleteLyrics, entry.Deleted...)
			for _, id := range entry.Stale {
				lyric, err := e.client.GetLyric(ctx, id)
				if err != nil {
					log.Warn().Err(err).Int64("id", id).Msg("Failed to fetch lyric, skipping")
					continue
				}
				changes.UpsertLyrics = append(changes.UpsertLyrics, *lyric)
			}
		default:
			log.Warn().Str("table", entry.TableName).Msg("Unknown table in change-log, skipping")
		}
	}

	return changes
}
