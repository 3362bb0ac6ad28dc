// Package playback wraps a single active audio source and tracks its
// lifecycle.
package playback

import (
	"time"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// Source is one playable audio stream. A source is started at most once;
// after that, Pause and Resume toggle playback. Close releases the stream
// and is safe to call more than once.
type Source interface {
	// Play starts playback and arranges for onDone to be called once
	// when the stream reaches its natural end.
	Play(onDone func()) error
	Pause()
	Resume()
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Close() error
}

// Opener resolves a media URL into a playable Source. Implementations live
// in infra; the engine never touches the audio device directly.
type Opener interface {
	Open(url string) (Source, error)
}

// State is the engine's lifecycle state.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EventKind identifies a lifecycle event.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventPlaying
	EventPaused
	EventProgress
	EventEnded
	EventError
)

// Event is a playback lifecycle notification. Playback runs outside any
// caller's stack, so failures arrive here as events rather than panics.
type Event struct {
	Kind     EventKind
	Track    *catalog.Track
	Position time.Duration
	Err      error
}
