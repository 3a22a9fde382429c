package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"talecast/internal/audio"
)

// ErrNotGenerated reports a playback request for a line that has no
// cached audio. The fix is to run generation first; playback never
// synthesizes on demand.
var ErrNotGenerated = errors.New("audio not generated for this line")

// State is the controller's playback state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Lookup resolves a line index to its cached clip.
type Lookup func(i int) (*audio.Clip, bool)

// Controller is the single owner of "what is playing now". Every
// transition funnels through it, so at most one source is producing
// sound at any instant: starting a new line always halts the previous
// source before the new one is allowed to begin.
//
// A generation counter makes stop asynchronously safe: callbacks from
// a superseded source (ready signals, backup timers, end-of-audio)
// compare generations and fall through without touching state.
type Controller struct {
	mu           sync.Mutex
	open         Opener
	lookup       Lookup
	readyTimeout time.Duration

	state  State
	index  int
	source Source
	gen    uint64

	onFinished func(index int, err error)
}

// NewController builds a controller. open turns clips into sources and
// lookup resolves line indices against the session cache.
func NewController(open Opener, lookup Lookup) *Controller {
	return &Controller{
		open:         open,
		lookup:       lookup,
		readyTimeout: time.Second,
	}
}

// SetReadyTimeout overrides the bounded wait for a source's ready
// signal before the one forced-play fallback fires.
func (c *Controller) SetReadyTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyTimeout = d
}

// SetOnFinished installs the hook fired when a line ends naturally or
// fails during playback. The sequence player uses it to advance; a nil
// hook means single-line mode.
func (c *Controller) SetOnFinished(hook func(index int, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinished = hook
}

// State returns the current state and, when not idle, the line index.
func (c *Controller) State() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.index
}

// HasAudio reports whether line i has a cached clip.
func (c *Controller) HasAudio(i int) bool {
	_, ok := c.lookup(i)
	return ok
}

// PlayLine drives the state machine for line i:
//
//   - Playing(i): pause in place, keeping position.
//   - Paused(i) with a live source: resume from position.
//   - anything else: halt whatever is active, then start line i from
//     the beginning, or return ErrNotGenerated if it has no audio.
func (c *Controller) PlayLine(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePlaying && c.index == i {
		if err := c.source.Pause(); err != nil {
			return fmt.Errorf("failed to pause: %w", err)
		}
		c.state = StatePaused
		return nil
	}

	if c.state == StatePaused && c.index == i && c.source != nil {
		if err := c.source.Resume(); err != nil {
			return fmt.Errorf("failed to resume: %w", err)
		}
		c.state = StatePlaying
		return nil
	}

	c.stopLocked()

	clip, ok := c.lookup(i)
	if !ok {
		return ErrNotGenerated
	}

	source, err := c.open(clip)
	if err != nil {
		return fmt.Errorf("failed to open audio for line %d: %w", i+1, err)
	}

	ready, err := source.Load()
	if err != nil {
		source.Stop()
		return fmt.Errorf("failed to load audio for line %d: %w", i+1, err)
	}

	c.source = source
	c.state = StatePlaying
	c.index = i
	c.gen++
	gen := c.gen
	timeout := c.readyTimeout

	go c.startWhenReady(source, ready, gen, i, timeout)
	return nil
}

// startWhenReady waits for the source's ready signal, with a backup
// timer that forces one play attempt if the signal never fires.
func (c *Controller) startWhenReady(source Source, ready <-chan struct{}, gen uint64, index int, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
	case <-timer.C:
		logrus.WithField("line", index+1).Warn("Audio ready signal timed out, forcing playback")
	}

	c.mu.Lock()
	if gen != c.gen || c.state == StateIdle {
		// Stopped or superseded while loading.
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// A Stop racing in here has already stopped the source, so Start
	// fails and the stale-generation check swallows the report.
	err := source.Start(func(playErr error) {
		c.sourceDone(gen, playErr)
	})
	if err != nil {
		c.sourceDone(gen, fmt.Errorf("playback failed to start: %w", err))
	}
}

// sourceDone handles end-of-audio and playback failures. Stale
// generations are ignored so a stopped run can never resurrect.
func (c *Controller) sourceDone(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	index := c.index
	hook := c.onFinished
	if c.source != nil {
		c.source.Stop()
		c.source = nil
	}
	c.state = StateIdle
	c.gen++
	c.mu.Unlock()

	if err != nil {
		logrus.WithError(err).WithField("line", index+1).Warn("Playback error")
	}
	if hook != nil {
		hook(index, err)
	}
}

// Stop halts playback from any state, releases the active source and
// rewinds to idle. Safe to call at any point; pending callbacks from
// the stopped run are invalidated, so a subsequent play is honored
// immediately with no leftover state.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	c.gen++
	if c.source != nil {
		c.source.Stop()
		c.source = nil
	}
	c.state = StateIdle
}
