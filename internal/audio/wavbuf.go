package audio

import (
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// writeSeekBuffer is an in-memory io.WriteSeeker. beep's WAV encoder
// needs to seek back over the header once the stream length is known.
type writeSeekBuffer struct {
	data []byte
	pos  int
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}

// EncodeWAV renders a streamer to an in-memory RIFF/WAVE payload.
func EncodeWAV(s beep.Streamer, format beep.Format) ([]byte, error) {
	var buf writeSeekBuffer
	if err := wav.Encode(&buf, s, format); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	return buf.data, nil
}

// SilentClip produces a mono WAV clip of n silent samples. Used by the
// mock synthesis engine and by tests that need decodable audio without
// calling the hosted service.
func SilentClip(n int, rate beep.SampleRate) (*Clip, error) {
	format := beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}
	data, err := EncodeWAV(beep.Silence(n), format)
	if err != nil {
		return nil, err
	}
	return NewClip(data, "audio/wav"), nil
}
