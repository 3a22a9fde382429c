package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"talecast/internal/audio"
	"talecast/internal/audio/cache"
	"talecast/internal/domain/story"
)

// ErrUnknownSpeaker marks a line whose speaker has no cast entry.
var ErrUnknownSpeaker = errors.New("no character for speaker")

// LineFailure records one line a batch could not synthesize.
type LineFailure struct {
	Index   int
	Speaker string
	Err     error
}

// Report summarizes a bulk generation run.
type Report struct {
	Generated int
	Cached    int
	Failures  []LineFailure
}

// Generator fills the audio cache from the script, one line at a time.
// Strictly sequential: a single synthesis call in flight bounds both
// rate-limit pressure and memory.
type Generator struct {
	gateway Gateway
	cache   *cache.Cache
}

// NewGenerator wires a gateway to the session cache.
func NewGenerator(gateway Gateway, c *cache.Cache) *Generator {
	return &Generator{gateway: gateway, cache: c}
}

// GenerateAll walks the script in order and synthesizes every line not
// already cached. Per-line failures are logged and skipped; a single
// bad line never aborts the batch. A cancelled context stops the walk
// and the report covers what ran.
func (g *Generator) GenerateAll(ctx context.Context, st *story.Story) Report {
	var report Report
	for i, line := range st.Script {
		if ctx.Err() != nil {
			report.Failures = append(report.Failures, LineFailure{Index: i, Speaker: line.Speaker, Err: ctx.Err()})
			break
		}

		key := cache.LineKey(line)
		if _, ok := g.cache.Get(key); ok {
			report.Cached++
			continue
		}

		clip, err := g.synthesizeLine(ctx, st, line)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"line":    i + 1,
				"speaker": line.Speaker,
			}).Warn("Skipping line")
			report.Failures = append(report.Failures, LineFailure{Index: i, Speaker: line.Speaker, Err: err})
			continue
		}

		g.cache.Put(key, clip)
		report.Generated++
	}
	return report
}

// Ensure returns the cached clip for line i, synthesizing it first on
// a miss. Unlike GenerateAll, an unresolvable speaker or a gateway
// failure is returned to the caller.
func (g *Generator) Ensure(ctx context.Context, st *story.Story, i int) (*audio.Clip, error) {
	if i < 0 || i >= len(st.Script) {
		return nil, fmt.Errorf("line index %d out of range", i)
	}
	line := st.Script[i]

	key := cache.LineKey(line)
	if clip, ok := g.cache.Get(key); ok {
		return clip, nil
	}

	clip, err := g.synthesizeLine(ctx, st, line)
	if err != nil {
		return nil, err
	}
	g.cache.Put(key, clip)
	return clip, nil
}

// Regenerate forces fresh synthesis for line i even when its content
// is unchanged: the existing cache entry is removed before the new
// request goes out.
func (g *Generator) Regenerate(ctx context.Context, st *story.Story, i int) (*audio.Clip, error) {
	if i < 0 || i >= len(st.Script) {
		return nil, fmt.Errorf("line index %d out of range", i)
	}
	g.cache.Remove(cache.LineKey(st.Script[i]))
	return g.Ensure(ctx, st, i)
}

func (g *Generator) synthesizeLine(ctx context.Context, st *story.Story, line story.Line) (*audio.Clip, error) {
	character, ok := st.Character(line.Speaker)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpeaker, line.Speaker)
	}
	return g.gateway.Synthesize(ctx, Request{
		Text:         line.Text,
		Voice:        character.Voice,
		Instructions: line.Instructions,
	})
}
