package playback

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"talecast/internal/audio"
)

// soundMeter counts sources in the "producing sound" state so tests
// can assert the at-most-one-playing invariant.
type soundMeter struct {
	mu      sync.Mutex
	playing int
	max     int
}

func (m *soundMeter) inc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing++
	if m.playing > m.max {
		m.max = m.playing
	}
}

func (m *soundMeter) dec() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing--
}

func (m *soundMeter) maxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.max
}

// mockSource is a Source that never touches an audio device. It can
// auto-finish after a short playing interval, hold its ready signal
// forever, or fail to start.
type mockSource struct {
	mu       sync.Mutex
	meter    *soundMeter
	playing  bool
	paused   bool
	stopped  bool
	started  bool
	finished bool
	done     func(error)

	neverReady bool
	startErr   error
	playFor    time.Duration
	finishErr  error
}

func (s *mockSource) Load() (<-chan struct{}, error) {
	ready := make(chan struct{})
	if !s.neverReady {
		close(ready)
	}
	return ready, nil
}

func (s *mockSource) Start(done func(err error)) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("source stopped")
	}
	if s.startErr != nil {
		s.mu.Unlock()
		return s.startErr
	}
	s.started = true
	s.playing = true
	s.done = done
	s.mu.Unlock()

	if s.meter != nil {
		s.meter.inc()
	}
	if s.playFor > 0 {
		time.AfterFunc(s.playFor, func() { s.finish(s.finishErr) })
	}
	return nil
}

// finish simulates the natural end-of-audio event.
func (s *mockSource) finish(err error) {
	s.mu.Lock()
	if s.stopped || s.finished || !s.playing {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.playing = false
	done := s.done
	s.mu.Unlock()

	if s.meter != nil {
		s.meter.dec()
	}
	if done != nil {
		done(err)
	}
}

func (s *mockSource) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *mockSource) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *mockSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	wasPlaying := s.playing
	s.stopped = true
	s.playing = false
	s.mu.Unlock()

	if wasPlaying && s.meter != nil {
		s.meter.dec()
	}
	return nil
}

func (s *mockSource) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *mockSource) wasStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// mockDeck fabricates clips for N lines and opens mock sources for
// them, recording which line each source belongs to.
type mockDeck struct {
	mu      sync.Mutex
	meter   *soundMeter
	clips   map[int]*audio.Clip
	index   map[*audio.Clip]int
	sources map[int][]*mockSource
	played  []int

	playFor    time.Duration
	neverReady map[int]bool
	startErr   map[int]error
	finishErr  map[int]error
}

func newMockDeck(n int) *mockDeck {
	d := &mockDeck{
		meter:      &soundMeter{},
		clips:      make(map[int]*audio.Clip),
		index:      make(map[*audio.Clip]int),
		sources:    make(map[int][]*mockSource),
		playFor:    5 * time.Millisecond,
		neverReady: make(map[int]bool),
		startErr:   make(map[int]error),
		finishErr:  make(map[int]error),
	}
	for i := 0; i < n; i++ {
		clip := audio.NewClip([]byte{byte(i)}, "audio/mpeg")
		d.clips[i] = clip
		d.index[clip] = i
	}
	return d
}

func (d *mockDeck) lookup(i int) (*audio.Clip, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clip, ok := d.clips[i]
	return clip, ok
}

func (d *mockDeck) setPlayFor(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playFor = dur
}

func (d *mockDeck) drop(i int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.clips, i)
}

func (d *mockDeck) open(clip *audio.Clip) (Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.index[clip]
	s := &mockSource{
		meter:      d.meter,
		playFor:    d.playFor,
		neverReady: d.neverReady[i],
		startErr:   d.startErr[i],
		finishErr:  d.finishErr[i],
	}
	d.sources[i] = append(d.sources[i], s)
	d.played = append(d.played, i)
	return s, nil
}

func (d *mockDeck) openedOrder() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, len(d.played))
	copy(out, d.played)
	return out
}

func (d *mockDeck) lastSource(i int) *mockSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.sources[i]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
