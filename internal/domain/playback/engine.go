package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// DefaultProgressInterval is how often position is sampled while playing.
const DefaultProgressInterval = 250 * time.Millisecond

// Engine owns the single active audio source. Loading a track tears down
// whatever came before it; callbacks from a superseded load carry a stale
// generation and are discarded.
type Engine struct {
	mu sync.Mutex

	opener     Opener
	resolveURL func(string) string

	source  Source
	started bool
	track   *catalog.Track
	state   State
	err     error

	// generation invalidates callbacks from superseded loads
	generation uint64

	progressInterval time.Duration
	stopProgress     chan struct{}

	handler func(Event)
}

// EngineOption is a functional option for configuring the engine.
type EngineOption func(*Engine)

// WithProgressInterval overrides the position sampling interval.
func WithProgressInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.progressInterval = d
		}
	}
}

// WithURLResolver overrides media reference resolution.
func WithURLResolver(fn func(string) string) EngineOption {
	return func(e *Engine) {
		e.resolveURL = fn
	}
}

// NewEngine creates a playback engine on top of an Opener.
func NewEngine(opener Opener, opts ...EngineOption) *Engine {
	e := &Engine{
		opener:           opener,
		resolveURL:       catalog.MediaURL,
		state:            StateEmpty,
		progressInterval: DefaultProgressInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetHandler registers the single event handler. The handler is invoked
// without the engine lock held, so it may call back into the engine.
func (e *Engine) SetHandler(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = fn
}

// Load tears down any current source and loads a new track. Errors are
// reported as engine state and an EventError, never returned up an
// unrelated call stack.
func (e *Engine) Load(track catalog.Track, autoplay bool) {
	e.mu.Lock()
	e.cleanupLocked()
	e.generation++
	gen := e.generation
	t := track
	e.track = &t
	e.state = StateLoading
	e.err = nil
	url := e.resolveURL(track.URL)
	e.mu.Unlock()

	src, err := e.opener.Open(url)

	e.mu.Lock()
	if gen != e.generation {
		// Superseded by a newer Load or Unload while opening.
		e.mu.Unlock()
		if src != nil {
			src.Close()
		}
		return
	}
	if err != nil {
		e.err = err
		e.state = StateEmpty
		handler := e.handler
		e.mu.Unlock()
		log.Error().Err(err).Str("track", track.Name).Msg("Failed to load audio")
		emit(handler, Event{Kind: EventError, Track: &t, Err: err})
		return
	}

	e.source = src
	e.started = false
	e.state = StatePaused
	handler := e.handler
	e.mu.Unlock()

	emit(handler, Event{Kind: EventLoaded, Track: &t})

	if autoplay {
		e.Play()
	}
}

// Play starts or resumes playback.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.source == nil || e.state == StatePlaying {
		e.mu.Unlock()
		return
	}

	gen := e.generation
	var err error
	if e.started {
		e.source.Resume()
	} else {
		err = e.source.Play(func() { e.onEnded(gen) })
		e.started = err == nil
	}

	if err != nil {
		e.err = err
		e.state = StatePaused
		track := e.track
		handler := e.handler
		e.mu.Unlock()
		log.Error().Err(err).Msg("Failed to start playback")
		emit(handler, Event{Kind: EventError, Track: track, Err: err})
		return
	}

	e.state = StatePlaying
	e.startProgressLocked(gen)
	track := e.track
	handler := e.handler
	e.mu.Unlock()

	emit(handler, Event{Kind: EventPlaying, Track: track})
}

// Pause pauses playback and stops position sampling.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.source == nil || e.state != StatePlaying {
		e.mu.Unlock()
		return
	}

	e.source.Pause()
	e.state = StatePaused
	e.stopProgressLocked()
	track := e.track
	handler := e.handler
	e.mu.Unlock()

	emit(handler, Event{Kind: EventPaused, Track: track})
}

// TogglePlay flips between playing and paused.
func (e *Engine) TogglePlay() {
	e.mu.Lock()
	playing := e.state == StatePlaying
	e.mu.Unlock()

	if playing {
		e.Pause()
	} else {
		e.Play()
	}
}

// Seek sets the playback position of the current source.
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if err := e.source.Seek(pos); err != nil {
		log.Warn().Err(err).Dur("pos", pos).Msg("Seek failed")
	}
}

// Unload tears down the current source and returns to the empty state.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cleanupLocked()
	e.generation++
	e.track = nil
	e.state = StateEmpty
	e.err = nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the last load/play error, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Current returns the loaded track, or nil.
func (e *Engine) Current() *catalog.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.track
}

// Position returns the current playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return 0
	}
	return e.source.Position()
}

// Duration returns the duration of the loaded source, falling back to the
// track's catalog duration while loading.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source != nil {
		if d := e.source.Duration(); d > 0 {
			return d
		}
	}
	if e.track != nil {
		return time.Duration(e.track.Duration * float64(time.Second))
	}
	return 0
}

// onEnded handles natural end of media. Ended fires exactly once per
// playback: stale generations are discarded, and the state transition
// guards against double delivery.
func (e *Engine) onEnded(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || e.state == StateEnded {
		e.mu.Unlock()
		return
	}

	e.state = StateEnded
	e.stopProgressLocked()
	track := e.track
	handler := e.handler
	e.mu.Unlock()

	emit(handler, Event{Kind: EventEnded, Track: track})
}

// startProgressLocked begins position sampling. Called with the lock held.
func (e *Engine) startProgressLocked(gen uint64) {
	e.stopProgressLocked()
	stop := make(chan struct{})
	e.stopProgress = stop

	go func() {
		ticker := time.NewTicker(e.progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.mu.Lock()
				if gen != e.generation || e.state != StatePlaying || e.source == nil {
					e.mu.Unlock()
					return
				}
				pos := e.source.Position()
				track := e.track
				handler := e.handler
				e.mu.Unlock()

				emit(handler, Event{Kind: EventProgress, Track: track, Position: pos})
			}
		}
	}()
}

// stopProgressLocked halts position sampling. Called with the lock held.
func (e *Engine) stopProgressLocked() {
	if e.stopProgress != nil {
		close(e.stopProgress)
		e.stopProgress = nil
	}
}

// cleanupLocked releases the current source and its timers. Unloading a
// non-existent source is a no-op. Called with the lock held.
func (e *Engine) cleanupLocked() {
	e.stopProgressLocked()
	if e.source != nil {
		if err := e.source.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close audio source")
		}
		e.source = nil
	}
	e.started = false
}

func emit(handler func(Event), ev Event) {
	if handler != nil {
		handler(ev)
	}
}
