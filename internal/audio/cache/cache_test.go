package cache

import (
	"testing"

	"talecast/internal/audio"
	"talecast/internal/domain/story"
)

func TestKeyDeterminism(t *testing.T) {
	a := Key("A", "Hi there", "cheerful")
	b := Key("A", "Hi there", "cheerful")
	if a != b {
		t.Errorf("identical content produced different keys: %s vs %s", a, b)
	}

	variants := []string{
		Key("B", "Hi there", "cheerful"),
		Key("A", "Hi there!", "cheerful"),
		Key("A", "Hi there", ""),
	}
	for i, v := range variants {
		if v == a {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}

func TestKeySeparatorSafety(t *testing.T) {
	// A separator-joined key would make these two collide.
	a := Key("A_b", "c", "")
	b := Key("A", "b_c", "")
	if a == b {
		t.Error("field boundaries leaked into the fingerprint")
	}

	// Shifting a character across a field boundary must change the key.
	if Key("AB", "C", "") == Key("A", "BC", "") {
		t.Error("length prefixes not applied per field")
	}
}

func TestLineKeyMatchesKey(t *testing.T) {
	l := story.Line{Speaker: "A", Text: "Hi", Instructions: "soft"}
	if LineKey(l) != Key("A", "Hi", "soft") {
		t.Error("LineKey disagrees with Key")
	}
}

func TestPutGetRemoveClear(t *testing.T) {
	c := New()
	clip := audio.NewClip([]byte{1, 2, 3}, "audio/mpeg")
	key := Key("A", "Hi", "")

	if _, ok := c.Get(key); ok {
		t.Error("empty cache reported a hit")
	}

	c.Put(key, clip)
	got, ok := c.Get(key)
	if !ok || got != clip {
		t.Error("cached clip not returned")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Remove(key)
	if _, ok := c.Get(key); ok {
		t.Error("removed entry still present")
	}
	if _, err := clip.Bytes(); err == nil {
		t.Error("removed clip was not released")
	}

	c.Put(Key("A", "x", ""), audio.NewClip([]byte{4}, "audio/mpeg"))
	c.Put(Key("A", "y", ""), audio.NewClip([]byte{5}, "audio/mpeg"))
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestPutReleasesReplacedClip(t *testing.T) {
	c := New()
	key := Key("A", "Hi", "")
	old := audio.NewClip([]byte{1}, "audio/mpeg")
	c.Put(key, old)
	c.Put(key, audio.NewClip([]byte{2}, "audio/mpeg"))

	if _, err := old.Bytes(); err == nil {
		t.Error("replaced clip was not released")
	}
	got, _ := c.Get(key)
	data, err := got.Bytes()
	if err != nil || len(data) != 1 || data[0] != 2 {
		t.Errorf("replacement clip not readable: %v %v", data, err)
	}
}

func TestEditOrphansOldEntry(t *testing.T) {
	// Editing a line leaves the old entry behind under the old key;
	// the new content simply misses until regenerated.
	c := New()
	line := story.Line{Speaker: "A", Text: "Hi"}
	c.Put(LineKey(line), audio.NewClip([]byte{1}, "audio/mpeg"))

	edited := line
	edited.Text = "Hi again"

	if _, ok := c.Get(LineKey(line)); !ok {
		t.Error("old entry should remain after an edit")
	}
	if _, ok := c.Get(LineKey(edited)); ok {
		t.Error("edited content should miss until regenerated")
	}
}
