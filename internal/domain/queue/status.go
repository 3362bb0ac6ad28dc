package queue

import (
	"time"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
)

// Status is a point-in-time snapshot of the transport and queue state.
type Status struct {
	State      string          `json:"state"`
	Track      *catalog.Track  `json:"track,omitempty"`
	Position   float64         `json:"position"`
	Duration   float64         `json:"duration"`
	Queue      []catalog.Track `json:"queue"`
	QueueIndex int             `json:"queueIndex"`
	Repeat     RepeatMode      `json:"repeat"`
	Shuffled   bool            `json:"shuffled"`
}

// Status reports the current transport and queue state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	queue := append([]catalog.Track(nil), c.queue...)
	index := c.index
	repeat := c.repeat
	shuffled := c.shuffled
	c.mu.Unlock()

	st := Status{
		State:      c.engine.State().String(),
		Position:   c.engine.Position().Seconds(),
		Duration:   c.engine.Duration().Seconds(),
		Queue:      queue,
		QueueIndex: index,
		Repeat:     repeat,
		Shuffled:   shuffled,
	}
	if track := c.engine.Current(); track != nil {
		st.Track = track
	}
	return st
}

// Play resumes or starts the engine.
func (c *Controller) Play() {
	c.engine.Play()
}

// Pause pauses the engine.
func (c *Controller) Pause() {
	c.engine.Pause()
}

// TogglePlay toggles between playing and paused.
func (c *Controller) TogglePlay() {
	c.engine.TogglePlay()
}

// Seek seeks within the current track.
func (c *Controller) Seek(d time.Duration) {
	c.engine.Seek(d)
}
