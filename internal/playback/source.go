package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"talecast/internal/audio"
)

// Source is one playable audio resource. Load begins buffering and
// returns a channel that is closed once the source is ready to play.
// Start begins producing sound and fires done exactly once when
// playback ends naturally or fails. Stop silences the source and
// releases it; a stopped source never fires done.
type Source interface {
	Load() (<-chan struct{}, error)
	Start(done func(err error)) error
	Pause() error
	Resume() error
	Stop() error
}

// Opener turns a cached clip into a playable source. The controller
// uses it so tests can substitute sources that never touch a device.
type Opener func(clip *audio.Clip) (Source, error)

// Speaker output runs through one shared device handle; it is
// reinitialized only when the sample rate changes.
var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

func initSpeaker(rate beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if rate == speakerRate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to init speaker: %w", err)
	}
	speakerRate = rate
	return nil
}

// beepSource plays a decoded clip through the speaker, with pause and
// resume via beep.Ctrl and completion via beep.Callback.
type beepSource struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	stopped  bool
	finished bool
}

// OpenClip is the production Opener.
func OpenClip(clip *audio.Clip) (Source, error) {
	streamer, format, err := clip.Decode()
	if err != nil {
		return nil, err
	}
	return &beepSource{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
	}, nil
}

func (s *beepSource) Load() (<-chan struct{}, error) {
	ready := make(chan struct{})
	go func() {
		if err := initSpeaker(s.format.SampleRate); err == nil {
			close(ready)
		}
		// On device failure the ready signal never fires; the
		// controller's backup timer forces a start attempt which
		// then reports the playback error.
	}()
	return ready, nil
}

func (s *beepSource) Start(done func(err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("source already stopped")
	}
	if err := initSpeaker(s.format.SampleRate); err != nil {
		return err
	}
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(s.completion(done))))
	return nil
}

// completion builds the end-of-audio callback. beep fires it on the
// speaker goroutine with the speaker mutex held, so done is handed off
// to a fresh goroutine: running it inline would let the controller
// call back into Stop and take the speaker mutex this goroutine
// already holds.
func (s *beepSource) completion(done func(err error)) func() {
	return func() {
		s.mu.Lock()
		if s.stopped || s.finished {
			s.mu.Unlock()
			return
		}
		s.finished = true
		s.mu.Unlock()
		go done(nil)
	}
}

func (s *beepSource) Pause() error {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (s *beepSource) Resume() error {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (s *beepSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	finished := s.finished
	s.mu.Unlock()

	// Detach before closing so the speaker never reads a closed
	// streamer, and the end-of-audio callback cannot fire afterwards.
	// After a natural end the streamer has already drained out of the
	// mixer, so the detach is skipped and Stop never touches the
	// speaker mutex on the completion path.
	if !finished {
		speaker.Lock()
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}

	return s.streamer.Close()
}
