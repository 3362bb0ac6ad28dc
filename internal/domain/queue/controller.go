// Package queue owns the playback queue and the navigation policy layered
// on the playback engine.
package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/catalog"
	"github.com/EricWvi/sonora-player/internal/domain/playback"
)

// RepeatMode selects the wrap/replay policy.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// RestartThreshold is how far into a track "previous" restarts it instead
// of moving back.
const RestartThreshold = 3 * time.Second

// Controller is the sole owner of the playback engine. All transport
// operations go through here; nothing else may drive the engine.
//
// Engine calls are made with the controller lock released, since the engine
// delivers events synchronously back into the controller.
type Controller struct {
	mu sync.Mutex

	engine *playback.Engine
	rng    *rand.Rand

	queue    []catalog.Track
	original []catalog.Track // pre-shuffle order, for exact restoration
	index    int             // -1 when nothing is current
	repeat   RepeatMode
	shuffled bool

	listener func(playback.Event)
}

// Option is a functional option for configuring the controller.
type Option func(*Controller)

// WithRand sets the random source used for shuffling, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
	}
}

// NewController creates a queue controller bound to a playback engine.
func NewController(engine *playback.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		index:  -1,
		repeat: RepeatOff,
	}

	for _, opt := range opts {
		opt(c)
	}

	engine.SetHandler(c.handleEvent)
	return c
}

// SetListener registers an observer for playback events, called after the
// controller has reacted to them.
func (c *Controller) SetListener(fn func(playback.Event)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// handleEvent reacts to engine lifecycle events.
func (c *Controller) handleEvent(ev playback.Event) {
	if ev.Kind == playback.EventEnded {
		c.onTrackEnded()
	}
	if ev.Kind == playback.EventError {
		// Do not auto-advance onto or past a broken track; the listener
		// surfaces the error and the user decides.
		log.Warn().Err(ev.Err).Msg("Playback error, halting auto-advance")
	}

	c.mu.Lock()
	listener := c.listener
	c.mu.Unlock()
	if listener != nil {
		listener(ev)
	}
}

// PlayTracks replaces the queue and starts playback at startIndex. Under
// shuffle the queue is a fresh permutation and the requested track still
// plays first, located by id rather than position.
func (c *Controller) PlayTracks(tracks []catalog.Track, startIndex int) {
	if len(tracks) == 0 {
		return
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}

	c.mu.Lock()
	c.original = append([]catalog.Track(nil), tracks...)

	if c.shuffled {
		c.queue = c.shufflePermutation(tracks)
		c.index = indexOf(c.queue, tracks[startIndex].ID)
		if c.index < 0 {
			c.index = 0
		}
	} else {
		c.queue = append([]catalog.Track(nil), tracks...)
		c.index = startIndex
	}

	target := c.queue[c.index]
	c.mu.Unlock()

	c.engine.Load(target, true)
}

// PlayTrack replaces the queue with a single track.
func (c *Controller) PlayTrack(track catalog.Track) {
	c.PlayTracks([]catalog.Track{track}, 0)
}

// Next advances to the next track. At the end of the queue it wraps only
// under repeat-all; otherwise it is a no-op.
func (c *Controller) Next() {
	c.mu.Lock()
	if len(c.queue) == 0 || c.index < 0 {
		c.mu.Unlock()
		return
	}

	next := c.index + 1
	if next >= len(c.queue) {
		if c.repeat != RepeatAll {
			c.mu.Unlock()
			return
		}
		next = 0
	}

	c.index = next
	target := c.queue[next]
	c.mu.Unlock()

	c.engine.Load(target, true)
}

// Previous restarts the current track when more than RestartThreshold has
// elapsed; otherwise it moves back one entry, wrapping under repeat-all and
// restarting at the start boundary otherwise.
func (c *Controller) Previous() {
	if c.engine.Position() > RestartThreshold {
		c.engine.Seek(0)
		return
	}

	c.mu.Lock()
	if len(c.queue) == 0 || c.index < 0 {
		c.mu.Unlock()
		return
	}

	prev := c.index - 1
	if prev < 0 {
		if c.repeat != RepeatAll {
			c.mu.Unlock()
			c.engine.Seek(0)
			return
		}
		prev = len(c.queue) - 1
	}

	c.index = prev
	target := c.queue[prev]
	c.mu.Unlock()

	c.engine.Load(target, true)
}

// onTrackEnded applies the natural end-of-track policy: repeat-one replays
// the same track, otherwise advance with the repeat-all wrap rule.
func (c *Controller) onTrackEnded() {
	c.mu.Lock()
	if len(c.queue) == 0 || c.index < 0 {
		c.mu.Unlock()
		return
	}

	if c.repeat == RepeatOne {
		target := c.queue[c.index]
		c.mu.Unlock()
		c.engine.Load(target, true)
		return
	}

	next := c.index + 1
	if next >= len(c.queue) {
		if c.repeat != RepeatAll {
			// End of queue, leave the engine in its ended state.
			c.mu.Unlock()
			return
		}
		next = 0
	}

	c.index = next
	target := c.queue[next]
	c.mu.Unlock()

	c.engine.Load(target, true)
}

// JumpTo starts playback at a specific queue index.
func (c *Controller) JumpTo(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.queue) {
		c.mu.Unlock()
		return
	}

	c.index = index
	target := c.queue[index]
	c.mu.Unlock()

	c.engine.Load(target, true)
}

// AddToQueue appends a track to both the live and original orders.
func (c *Controller) AddToQueue(track catalog.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = append(c.queue, track)
	c.original = append(c.original, track)
}

// RemoveFromQueue removes the entry at index. Removing the current entry
// stops playback entirely rather than auto-advancing.
func (c *Controller) RemoveFromQueue(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.queue) {
		c.mu.Unlock()
		return
	}

	removed := c.queue[index]
	c.queue = append(c.queue[:index], c.queue[index+1:]...)

	if orig := indexOf(c.original, removed.ID); orig >= 0 {
		c.original = append(c.original[:orig], c.original[orig+1:]...)
	}

	switch {
	case index < c.index:
		c.index--
	case index == c.index:
		c.index = -1
		c.mu.Unlock()
		c.engine.Unload()
		return
	}
	c.mu.Unlock()
}

// ClearQueue empties the queue and stops playback.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	c.queue = nil
	c.original = nil
	c.index = -1
	c.mu.Unlock()

	c.engine.Unload()
}

// ReorderQueue moves the entry at from to position to, keeping the current
// index pointing at the same logical track.
func (c *Controller) ReorderQueue(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if from < 0 || from >= len(c.queue) || to < 0 || to >= len(c.queue) || from == to {
		return
	}

	moved := c.queue[from]
	c.queue = append(c.queue[:from], c.queue[from+1:]...)
	c.queue = append(c.queue[:to], append([]catalog.Track{moved}, c.queue[to:]...)...)

	switch {
	case from == c.index:
		c.index = to
	case from < c.index && to >= c.index:
		c.index--
	case from > c.index && to <= c.index:
		c.index++
	}
}

// ToggleShuffle flips shuffle mode. Turning it on pins the current track to
// the head of a fresh permutation; turning it off restores the original
// order and relocates the index to the current track by id.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shuffled {
		c.shuffled = false
		var currentID int64 = -1
		if c.index >= 0 && c.index < len(c.queue) {
			currentID = c.queue[c.index].ID
		}
		c.queue = append([]catalog.Track(nil), c.original...)
		if c.index >= 0 {
			if at := indexOf(c.queue, currentID); at >= 0 {
				c.index = at
			} else {
				c.index = 0
			}
		}
		return false
	}

	c.shuffled = true
	if c.index >= 0 && c.index < len(c.queue) {
		current := c.queue[c.index]
		rest := make([]catalog.Track, 0, len(c.queue)-1)
		for _, t := range c.queue {
			if t.ID != current.ID {
				rest = append(rest, t)
			}
		}
		c.queue = append([]catalog.Track{current}, c.shufflePermutation(rest)...)
		c.index = 0
	} else {
		c.queue = c.shufflePermutation(c.queue)
	}
	return true
}

// CycleRepeat advances off → all → one → off and returns the new mode.
func (c *Controller) CycleRepeat() RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.repeat {
	case RepeatOff:
		c.repeat = RepeatAll
	case RepeatAll:
		c.repeat = RepeatOne
	default:
		c.repeat = RepeatOff
	}
	return c.repeat
}

// SetRepeat sets the repeat mode.
func (c *Controller) SetRepeat(mode RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch mode {
	case RepeatOff, RepeatAll, RepeatOne:
		c.repeat = mode
	}
}

// shufflePermutation returns a uniform random permutation (Fisher-Yates).
// Called with the lock held.
func (c *Controller) shufflePermutation(tracks []catalog.Track) []catalog.Track {
	shuffled := append([]catalog.Track(nil), tracks...)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

func indexOf(tracks []catalog.Track, id int64) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
