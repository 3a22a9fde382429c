package synth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"talecast/internal/audio"
	"talecast/internal/audio/cache"
	"talecast/internal/domain/story"
)

// recordingGateway captures synthesis requests and can fail on demand.
type recordingGateway struct {
	requests []Request
	failFor  map[string]error
}

func (r *recordingGateway) Synthesize(_ context.Context, req Request) (*audio.Clip, error) {
	r.requests = append(r.requests, req)
	if err, ok := r.failFor[req.Text]; ok {
		return nil, err
	}
	return audio.NewClip([]byte(req.Text), "audio/mpeg"), nil
}

func twoSpeakerStory() *story.Story {
	s := story.New()
	s.Characters = []story.Character{
		{Name: "A", Voice: story.VoiceAlloy},
		{Name: "B", Voice: story.VoiceNova},
	}
	s.Script = []story.Line{
		{Speaker: "A", Text: "Hi"},
		{Speaker: "B", Text: "Hello"},
	}
	return s
}

func TestGenerateAllFillsCache(t *testing.T) {
	gw := &recordingGateway{}
	c := cache.New()
	g := NewGenerator(gw, c)
	s := twoSpeakerStory()

	report := g.GenerateAll(context.Background(), s)

	if report.Generated != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v, want 2 generated, 0 failures", report)
	}
	if c.Len() != 2 {
		t.Errorf("cache has %d entries, want 2", c.Len())
	}
	if gw.requests[0].Voice != story.VoiceAlloy || gw.requests[1].Voice != story.VoiceNova {
		t.Errorf("voices not resolved from cast: %+v", gw.requests)
	}
}

func TestGenerateAllSkipsCacheHits(t *testing.T) {
	gw := &recordingGateway{}
	c := cache.New()
	g := NewGenerator(gw, c)
	s := twoSpeakerStory()

	c.Put(cache.LineKey(s.Script[0]), audio.NewClip([]byte{1}, "audio/mpeg"))

	report := g.GenerateAll(context.Background(), s)
	if report.Cached != 1 || report.Generated != 1 {
		t.Errorf("report = %+v, want 1 cached, 1 generated", report)
	}
	if len(gw.requests) != 1 || gw.requests[0].Text != "Hello" {
		t.Errorf("gateway called for cached line: %+v", gw.requests)
	}
}

func TestGenerateAllToleratesBadLine(t *testing.T) {
	gw := &recordingGateway{}
	c := cache.New()
	g := NewGenerator(gw, c)

	s := twoSpeakerStory()
	s.Script = append(s.Script[:1], append([]story.Line{{Speaker: "Ghost", Text: "boo"}}, s.Script[1:]...)...)

	report := g.GenerateAll(context.Background(), s)

	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v, want exactly one", report.Failures)
	}
	f := report.Failures[0]
	if f.Index != 1 || !errors.Is(f.Err, ErrUnknownSpeaker) {
		t.Errorf("failure = %+v, want unknown speaker at index 1", f)
	}
	if c.Len() != 2 {
		t.Errorf("cache has %d entries, want 2 (batch must continue past the bad line)", c.Len())
	}
}

func TestGenerateAllToleratesGatewayFailure(t *testing.T) {
	gw := &recordingGateway{failFor: map[string]error{"Hello": fmt.Errorf("rate limited")}}
	c := cache.New()
	g := NewGenerator(gw, c)
	s := twoSpeakerStory()

	report := g.GenerateAll(context.Background(), s)
	if report.Generated != 1 || len(report.Failures) != 1 {
		t.Errorf("report = %+v, want 1 generated, 1 failure", report)
	}
}

func TestGenerateAllSequentialOrder(t *testing.T) {
	gw := &recordingGateway{}
	g := NewGenerator(gw, cache.New())
	s := story.New()
	s.Characters = []story.Character{{Name: "N", Voice: story.VoiceBallad}}
	for i := 0; i < 5; i++ {
		s.Script = append(s.Script, story.Line{Speaker: "N", Text: fmt.Sprintf("line %d", i)})
	}

	g.GenerateAll(context.Background(), s)

	for i, req := range gw.requests {
		if want := fmt.Sprintf("line %d", i); req.Text != want {
			t.Errorf("request %d = %q, want %q", i, req.Text, want)
		}
	}
}

func TestEnsureUsesCache(t *testing.T) {
	gw := &recordingGateway{}
	c := cache.New()
	g := NewGenerator(gw, c)
	s := twoSpeakerStory()

	first, err := g.Ensure(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	second, err := g.Ensure(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("Ensure (cached): %v", err)
	}
	if first != second {
		t.Error("second Ensure did not return the cached clip")
	}
	if len(gw.requests) != 1 {
		t.Errorf("gateway called %d times, want 1", len(gw.requests))
	}
}

func TestEnsureFailsHardOnUnknownSpeaker(t *testing.T) {
	g := NewGenerator(&recordingGateway{}, cache.New())
	s := twoSpeakerStory()
	s.Script[0].Speaker = "Ghost"

	if _, err := g.Ensure(context.Background(), s, 0); !errors.Is(err, ErrUnknownSpeaker) {
		t.Errorf("Ensure error = %v, want ErrUnknownSpeaker", err)
	}
}

func TestRegenerateRemovesBeforeFetching(t *testing.T) {
	gw := &recordingGateway{}
	c := cache.New()
	g := NewGenerator(gw, c)
	s := twoSpeakerStory()

	key := cache.LineKey(s.Script[0])
	stale := audio.NewClip([]byte{9}, "audio/mpeg")
	c.Put(key, stale)

	clip, err := g.Regenerate(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	// The stale entry must be gone before the fetch, so the gateway is
	// hit even though the content never changed.
	if len(gw.requests) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(gw.requests))
	}
	if _, err := stale.Bytes(); err == nil {
		t.Error("stale clip not released by remove-then-fetch")
	}
	if cached, _ := c.Get(key); cached != clip {
		t.Error("fresh clip not cached under the line key")
	}
}

func TestMockGatewayValidates(t *testing.T) {
	m := NewMockGateway()
	if _, err := m.Synthesize(context.Background(), Request{Voice: story.VoiceNova}); err == nil {
		t.Error("empty text accepted")
	}
	if _, err := m.Synthesize(context.Background(), Request{Text: "hi"}); err == nil {
		t.Error("empty voice accepted")
	}
	clip, err := m.Synthesize(context.Background(), Request{Text: "hi there", Voice: story.VoiceNova})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, _, err := clip.Decode(); err != nil {
		t.Errorf("mock clip not decodable: %v", err)
	}
}
