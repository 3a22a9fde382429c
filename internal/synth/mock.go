package synth

import (
	"context"
	"strings"

	"github.com/faiface/beep"

	"talecast/internal/audio"
)

// MockGateway synthesizes short silent clips instead of calling the
// hosted service. Useful for offline runs and demos.
type MockGateway struct {
	// SamplesPerWord controls the simulated clip length.
	SamplesPerWord int
	SampleRate     beep.SampleRate
}

// NewMockGateway returns a mock with small, quick-to-play clips.
func NewMockGateway() *MockGateway {
	return &MockGateway{SamplesPerWord: 800, SampleRate: 44100}
}

func (m *MockGateway) Synthesize(_ context.Context, req Request) (*audio.Clip, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	words := len(strings.Fields(req.Text))
	if words == 0 {
		words = 1
	}
	return audio.SilentClip(words*m.SamplesPerWord, m.SampleRate)
}
