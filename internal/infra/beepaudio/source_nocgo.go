//go:build !cgo

package beepaudio

import (
	"time"

	"github.com/EricWvi/sonora-player/internal/domain/playback"
)

// AudioAvailable indicates whether this build can produce sound. Audio
// output needs cgo for the native sound libraries; without it the player
// runs silently.
const AudioAvailable = false

// source is a no-op stand-in for builds without cgo.
type source struct{}

func newSource(data []byte) (playback.Source, error) {
	return &source{}, nil
}

func (s *source) Play(onDone func()) error { return nil }

func (s *source) Pause() {}

func (s *source) Resume() {}

func (s *source) Seek(pos time.Duration) error { return nil }

func (s *source) Position() time.Duration { return 0 }

func (s *source) Duration() time.Duration { return 0 }

func (s *source) Close() error { return nil }
