package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrMissingAudio reports that play-all was refused because some lines
// have no cached audio yet.
var ErrMissingAudio = errors.New("missing audio")

// missingPreview caps how many missing line numbers are spelled out
// before the message falls back to "and others".
const missingPreview = 3

// Progress reports the sequence position to the UI. index is -1 when
// nothing is playing.
type Progress func(index, total int)

// Sequence plays the whole script back-to-back, unattended, in script
// order. It layers on the controller: each line goes through PlayLine,
// and the controller's finished hook drives the advance. A failed or
// missing line is skipped after a short delay; one bad line never
// stops the narrative.
type Sequence struct {
	ctrl *Controller

	mu        sync.Mutex
	active    bool
	current   int
	total     int
	gen       uint64
	skipDelay time.Duration

	onProgress Progress
	onDone     func()
}

// NewSequence wraps a controller for play-all mode.
func NewSequence(ctrl *Controller) *Sequence {
	return &Sequence{
		ctrl:      ctrl,
		skipDelay: 500 * time.Millisecond,
	}
}

// SetSkipDelay overrides the pause inserted before skipping past a
// failed line.
func (s *Sequence) SetSkipDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipDelay = d
}

// SetProgress installs the position indicator hook.
func (s *Sequence) SetProgress(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = p
}

// SetOnDone installs a hook fired when the sequence reaches the end of
// the script on its own.
func (s *Sequence) SetOnDone(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = f
}

// Active reports whether sequence mode is running.
func (s *Sequence) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Current returns the line being played, or -1 when inactive.
func (s *Sequence) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return -1
	}
	return s.current
}

// Start begins playback of lines 0..total-1. Every line must already
// have cached audio; otherwise Start refuses and the error names the
// missing line numbers (1-indexed, first few plus "and others").
func (s *Sequence) Start(total int) error {
	if total == 0 {
		return fmt.Errorf("no script to play")
	}
	if err := s.checkAllGenerated(total); err != nil {
		return err
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return fmt.Errorf("sequence already playing")
	}
	s.active = true
	s.current = 0
	s.total = total
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	// Full reset before the first line: any stale source or pending
	// callback from an earlier run is invalidated here, not cleared
	// field by field.
	s.ctrl.Stop()
	s.ctrl.SetOnFinished(s.lineFinished)

	s.report(0)
	s.playCurrent(gen)
	return nil
}

func (s *Sequence) checkAllGenerated(total int) error {
	var missing []int
	for i := 0; i < total; i++ {
		if !s.ctrl.HasAudio(i) {
			missing = append(missing, i+1)
			if len(missing) > missingPreview {
				break
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	nums := make([]string, 0, missingPreview)
	for i, n := range missing {
		if i == missingPreview {
			break
		}
		nums = append(nums, strconv.Itoa(n))
	}
	suffix := ""
	if len(missing) > missingPreview {
		suffix = " and others"
	}
	return fmt.Errorf("%w for lines: %s%s — run generation first",
		ErrMissingAudio, strings.Join(nums, ", "), suffix)
}

// Toggle pauses or resumes the current line. If the line has no live
// source anymore it restarts from the beginning.
func (s *Sequence) Toggle() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return fmt.Errorf("sequence not playing")
	}
	current := s.current
	s.mu.Unlock()
	return s.ctrl.PlayLine(current)
}

// Stop ends sequence mode and silences playback. Pending skip timers
// and in-flight callbacks are invalidated by the generation bump, so
// the next Start begins from a clean slate.
func (s *Sequence) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.gen++
	s.mu.Unlock()

	s.ctrl.SetOnFinished(nil)
	s.ctrl.Stop()
	s.report(-1)
}

// lineFinished is the controller's finished hook while sequence mode
// is active: natural end advances immediately, a playback error skips
// after the delay.
func (s *Sequence) lineFinished(index int, err error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	if err != nil {
		s.skipLater(index+1, gen)
		return
	}
	s.advance(index+1, gen)
}

func (s *Sequence) advance(next int, gen uint64) {
	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	if next >= s.total {
		s.active = false
		s.gen++
		done := s.onDone
		s.mu.Unlock()

		s.ctrl.SetOnFinished(nil)
		s.report(-1)
		if done != nil {
			done()
		}
		return
	}
	s.current = next
	gen = s.gen
	s.mu.Unlock()

	s.report(next)
	s.playCurrent(gen)
}

// playCurrent starts the current line; a line that refuses to start
// (missing audio, open failure) is skipped like any other bad line.
func (s *Sequence) playCurrent(gen uint64) {
	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	current := s.current
	s.mu.Unlock()

	if err := s.ctrl.PlayLine(current); err != nil {
		s.skipLater(current+1, gen)
	}
}

func (s *Sequence) skipLater(next int, gen uint64) {
	s.mu.Lock()
	delay := s.skipDelay
	s.mu.Unlock()
	time.AfterFunc(delay, func() {
		s.advance(next, gen)
	})
}

func (s *Sequence) report(index int) {
	s.mu.Lock()
	p := s.onProgress
	total := s.total
	s.mu.Unlock()
	if p != nil {
		p(index, total)
	}
}
