package playback

import (
	"testing"
	"time"

	"github.com/faiface/beep/speaker"

	"talecast/internal/audio"
)

func silentSource(t *testing.T) *beepSource {
	t.Helper()
	clip, err := audio.SilentClip(256, 44100)
	if err != nil {
		t.Fatalf("SilentClip: %v", err)
	}
	src, err := OpenClip(clip)
	if err != nil {
		t.Fatalf("OpenClip: %v", err)
	}
	return src.(*beepSource)
}

// The mixer fires the end-of-audio callback on the speaker goroutine
// with the speaker mutex held. The done handler ends up back in Stop,
// so the handoff must leave that goroutine first; running it inline
// would block on the mutex it fired under and hang every later
// playback call.
func TestEndOfAudioHandoffLeavesSpeakerGoroutine(t *testing.T) {
	s := silentSource(t)

	finished := make(chan struct{})
	cb := s.completion(func(err error) {
		s.Stop()
		// A sequence advance starts the next line from here, which
		// goes through the speaker mutex again.
		speaker.Lock()
		speaker.Unlock()
		close(finished)
	})

	go func() {
		speaker.Lock()
		cb()
		speaker.Unlock()
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("end-of-audio completion deadlocked against the speaker mutex")
	}
}

func TestCompletionFiresOnce(t *testing.T) {
	s := silentSource(t)

	fired := make(chan struct{}, 2)
	cb := s.completion(func(err error) { fired <- struct{}{} })

	cb()
	cb()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("completion never reached the done handler")
	}
	select {
	case <-fired:
		t.Error("completion fired more than once")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCompletionAfterStopIsSwallowed(t *testing.T) {
	s := silentSource(t)

	fired := make(chan struct{}, 1)
	cb := s.completion(func(err error) { fired <- struct{}{} })

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	cb()

	select {
	case <-fired:
		t.Error("done fired for a stopped source")
	case <-time.After(20 * time.Millisecond):
	}
}
