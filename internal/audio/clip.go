package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// Clip is an opaque handle to one synthesized audio resource, held in
// memory for the lifetime of the editing session. Releasing a clip
// drops its backing bytes; a released clip can no longer be decoded.
type Clip struct {
	mu       sync.Mutex
	data     []byte
	mime     string
	released bool
}

// NewClip wraps raw audio bytes. mime is the payload type reported by
// the synthesis service, normally "audio/mpeg".
func NewClip(data []byte, mime string) *Clip {
	return &Clip{data: data, mime: mime}
}

// MIME returns the payload type the clip was created with.
func (c *Clip) MIME() string {
	return c.mime
}

// Len returns the size of the encoded payload in bytes.
func (c *Clip) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Bytes returns the encoded payload. The returned slice must not be
// mutated.
func (c *Clip) Bytes() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, fmt.Errorf("audio clip already released")
	}
	return c.data, nil
}

// Release frees the backing audio data. Safe to call more than once.
func (c *Clip) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.released = true
}

// Decode opens the clip for playback or re-encoding. The container is
// sniffed from the payload: RIFF/WAVE or MPEG audio, matching what the
// synthesis service and the export pipeline produce.
func (c *Clip) Decode() (beep.StreamSeekCloser, beep.Format, error) {
	data, err := c.Bytes()
	if err != nil {
		return nil, beep.Format{}, err
	}
	if len(data) == 0 {
		return nil, beep.Format{}, fmt.Errorf("empty audio clip")
	}
	rc := io.NopCloser(bytes.NewReader(data))
	if len(data) >= 4 && bytes.Equal(data[:4], []byte("RIFF")) {
		s, format, err := wav.Decode(rc)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode WAV clip: %w", err)
		}
		return s, format, nil
	}
	s, format, err := mp3.Decode(rc)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode MP3 clip: %w", err)
	}
	return s, format, nil
}
