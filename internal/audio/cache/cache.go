package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync"

	"talecast/internal/audio"
	"talecast/internal/domain/story"
)

// Key fingerprints a line's content. Two lines with identical speaker,
// text and instructions share one cache entry. Each field is hashed
// with a length prefix, so no separator character in the content can
// make two distinct triples collide.
func Key(speaker, text, instructions string) string {
	h := sha256.New()
	for _, field := range []string{speaker, text, instructions} {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		io.WriteString(h, field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LineKey is Key applied to a script line.
func LineKey(l story.Line) string {
	return Key(l.Speaker, l.Text, l.Instructions)
}

// Cache maps content fingerprints to synthesized audio clips for the
// duration of one editing session. Unbounded; cleared only on story
// lifecycle events (new story, load, full script clear). Entries for
// edited lines are simply orphaned until the next clear.
type Cache struct {
	mu    sync.Mutex
	clips map[string]*audio.Clip
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{clips: make(map[string]*audio.Clip)}
}

// Get returns the clip cached under key, if any.
func (c *Cache) Get(key string) (*audio.Clip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, ok := c.clips[key]
	return clip, ok
}

// Put stores a clip under key. A replaced clip is released.
func (c *Cache) Put(key string, clip *audio.Clip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.clips[key]; ok && old != clip {
		old.Release()
	}
	c.clips[key] = clip
}

// Remove drops and releases the entry under key, if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clip, ok := c.clips[key]; ok {
		clip.Release()
		delete(c.clips, key)
	}
}

// Clear drops every entry, releasing all clips.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, clip := range c.clips {
		clip.Release()
		delete(c.clips, key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clips)
}
