package export

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"

	"talecast/internal/audio"
	"talecast/internal/domain/story"
	"talecast/internal/synth"
)

// resampleQuality for clips whose sample rate differs from the first
// segment's. beep's docs call 4 a good general-purpose value.
const resampleQuality = 4

// Assembler turns the ordered set of cached clips into downloadable
// artifacts. It reuses the generator's cache-or-synthesize policy, but
// unlike bulk generation any failure aborts the whole export: an
// export produces a complete artifact or none at all.
type Assembler struct {
	gen *synth.Generator
}

// NewAssembler wraps a generator.
func NewAssembler(gen *synth.Generator) *Assembler {
	return &Assembler{gen: gen}
}

// Archive writes every line's audio as numbered segments in a zip
// named <slug>.zip under dir. With exactly one line the archive step
// is skipped and the lone clip is written directly. Returns the path
// written.
func (a *Assembler) Archive(ctx context.Context, st *story.Story, dir string) (string, error) {
	clips, err := a.collect(ctx, st)
	if err != nil {
		return "", err
	}
	if len(clips) == 0 {
		return "", fmt.Errorf("nothing to export: script is empty")
	}

	if len(clips) == 1 {
		path := filepath.Join(dir, Slug(st.Title)+extFor(clips[0]))
		if err := writeClip(path, clips[0]); err != nil {
			return "", err
		}
		return path, nil
	}

	path := filepath.Join(dir, Slug(st.Title)+".zip")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for i, clip := range clips {
		data, err := clip.Bytes()
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("segment %d unreadable: %w", i+1, err)
		}
		w, err := zw.Create(fmt.Sprintf("segment-%d%s", i+1, extFor(clip)))
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("failed to add segment %d: %w", i+1, err)
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return "", fmt.Errorf("failed to write segment %d: %w", i+1, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	logrus.WithFields(logrus.Fields{"segments": len(clips), "path": path}).Info("Exported archive")
	return path, nil
}

// SingleFile decodes every clip, concatenates the samples in script
// order and writes one mono 16-bit WAV named <slug>.wav under dir. The
// sample rate is taken from the first clip; later clips are resampled
// to match. Lossy relative to the compressed sources, but the result
// plays anywhere.
func (a *Assembler) SingleFile(ctx context.Context, st *story.Story, dir string) (string, error) {
	clips, err := a.collect(ctx, st)
	if err != nil {
		return "", err
	}
	if len(clips) == 0 {
		return "", fmt.Errorf("nothing to export: script is empty")
	}

	var (
		streamers []beep.Streamer
		closers   []beep.StreamSeekCloser
		rate      beep.SampleRate
	)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	for i, clip := range clips {
		s, format, err := clip.Decode()
		if err != nil {
			return "", fmt.Errorf("segment %d: %w", i+1, err)
		}
		closers = append(closers, s)
		if i == 0 {
			rate = format.SampleRate
			streamers = append(streamers, s)
			continue
		}
		if format.SampleRate != rate {
			streamers = append(streamers, beep.Resample(resampleQuality, format.SampleRate, rate, s))
		} else {
			streamers = append(streamers, s)
		}
	}

	path := filepath.Join(dir, Slug(st.Title)+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	outFormat := beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Seq(streamers...), outFormat); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to encode combined audio: %w", err)
	}

	logrus.WithFields(logrus.Fields{"segments": len(clips), "path": path}).Info("Exported single file")
	return path, nil
}

// Line exports one line's audio as <speaker>_<position> under dir.
func (a *Assembler) Line(ctx context.Context, st *story.Story, i int, dir string) (string, error) {
	clip, err := a.gen.Ensure(ctx, st, i)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", Slug(st.Script[i].Speaker), i+1, extFor(clip)))
	if err := writeClip(path, clip); err != nil {
		return "", err
	}
	return path, nil
}

// collect resolves audio for every line in order, synthesizing misses.
// Strict: the first unresolvable line aborts the export.
func (a *Assembler) collect(ctx context.Context, st *story.Story) ([]*audio.Clip, error) {
	clips := make([]*audio.Clip, 0, len(st.Script))
	for i := range st.Script {
		clip, err := a.gen.Ensure(ctx, st, i)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func writeClip(path string, clip *audio.Clip) error {
	data, err := clip.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func extFor(clip *audio.Clip) string {
	if clip.MIME() == "audio/wav" {
		return ".wav"
	}
	return ".mp3"
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a file-name-safe identifier from a story title:
// lowercased, non-alphanumeric runs collapsed to one hyphen, leading
// and trailing hyphens trimmed.
func Slug(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "story-audio"
	}
	return s
}
