//go:build cgo

package beepaudio

import (
	"bytes"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/EricWvi/sonora-player/internal/domain/playback"
)

// AudioAvailable indicates whether this build can produce sound.
const AudioAvailable = true

// The speaker runs at a fixed rate; sources at other rates are resampled.
const speakerSampleRate = beep.SampleRate(44100)

var speakerOnce sync.Once

func initSpeaker() error {
	var err error
	speakerOnce.Do(func() {
		err = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	return err
}

// source is one decoded stream wired into the shared speaker.
type source struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	closed   bool
}

func newSource(data []byte) (playback.Source, error) {
	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, err
	}

	if err := initSpeaker(); err != nil {
		streamer.Close()
		return nil, err
	}

	return &source{
		streamer: streamer,
		format:   format,
	}, nil
}

func (s *source) Play(onDone func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	resampled := beep.Resample(4, s.format.SampleRate, speakerSampleRate, s.streamer)
	s.ctrl = &beep.Ctrl{Streamer: resampled}

	// The callback fires on the speaker goroutine; hand off so the next
	// track can be started without deadlocking the speaker.
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
		if onDone != nil {
			go onDone()
		}
	})))

	return nil
}

func (s *source) Pause() {
	s.setPaused(true)
}

func (s *source) Resume() {
	s.setPaused(false)
}

func (s *source) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil || s.closed {
		return
	}

	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

func (s *source) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	return s.streamer.Seek(s.format.SampleRate.N(pos))
}

func (s *source) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()

	return s.format.SampleRate.D(pos)
}

func (s *source) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	return s.format.SampleRate.D(s.streamer.Len())
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}

	return s.streamer.Close()
}

// nopCloser adapts a bytes.Reader to the decoder's io.ReadCloser input.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
