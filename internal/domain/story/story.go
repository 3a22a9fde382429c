package story

import (
	"fmt"
	"strings"
	"time"
)

// Character is a named role in a story, bound to a synthesis voice.
type Character struct {
	Name  string `json:"name"`
	Voice Voice  `json:"voice"`
}

// Line is a single unit of dialogue attributed to one character,
// optionally carrying voice-delivery instructions.
type Line struct {
	Speaker      string `json:"speaker"`
	Text         string `json:"text"`
	Instructions string `json:"instructions,omitempty"`
}

// Story is the whole editable unit: a cast of characters plus an
// ordered dialogue script. Stored and loaded as one snapshot.
type Story struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Characters   []Character `json:"characters"`
	Script       []Line      `json:"script"`
	LastModified time.Time   `json:"last_modified"`
}

// New returns a blank untitled story.
func New() *Story {
	return &Story{
		Title:        "Untitled Story",
		LastModified: time.Now(),
	}
}

// Clone returns a deep copy. Copy correctness is guaranteed by the
// types themselves, not by a serialization round-trip.
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	out := &Story{
		ID:           s.ID,
		Title:        s.Title,
		LastModified: s.LastModified,
	}
	if s.Characters != nil {
		out.Characters = make([]Character, len(s.Characters))
		copy(out.Characters, s.Characters)
	}
	if s.Script != nil {
		out.Script = make([]Line, len(s.Script))
		copy(out.Script, s.Script)
	}
	return out
}

// Character looks up a cast member by name.
func (s *Story) Character(name string) (Character, bool) {
	for _, c := range s.Characters {
		if c.Name == name {
			return c, true
		}
	}
	return Character{}, false
}

// AddCharacter appends a character. Names are unique within a story.
func (s *Story) AddCharacter(c Character) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("character name must not be empty")
	}
	if !ValidVoice(c.Voice) {
		return fmt.Errorf("unknown voice %q", c.Voice)
	}
	if _, ok := s.Character(c.Name); ok {
		return fmt.Errorf("character %q already exists", c.Name)
	}
	s.Characters = append(s.Characters, c)
	return nil
}

// RemoveCharacter drops a character from the cast. Script lines that
// still reference the name are left alone; they simply fail audio
// generation until renamed.
func (s *Story) RemoveCharacter(name string) bool {
	for i, c := range s.Characters {
		if c.Name == name {
			s.Characters = append(s.Characters[:i], s.Characters[i+1:]...)
			return true
		}
	}
	return false
}

// AddLine appends a dialogue line to the script.
func (s *Story) AddLine(l Line) error {
	if strings.TrimSpace(l.Text) == "" {
		return fmt.Errorf("line text must not be empty")
	}
	if strings.TrimSpace(l.Speaker) == "" {
		return fmt.Errorf("line speaker must not be empty")
	}
	s.Script = append(s.Script, l)
	return nil
}

// UpdateLine replaces the line at index i. The caller is responsible
// for invalidating any audio cached under the old line content.
func (s *Story) UpdateLine(i int, l Line) error {
	if i < 0 || i >= len(s.Script) {
		return fmt.Errorf("line index %d out of range", i)
	}
	if strings.TrimSpace(l.Text) == "" {
		return fmt.Errorf("line text must not be empty")
	}
	s.Script[i] = l
	return nil
}

// RemoveLine deletes the line at index i.
func (s *Story) RemoveLine(i int) error {
	if i < 0 || i >= len(s.Script) {
		return fmt.Errorf("line index %d out of range", i)
	}
	s.Script = append(s.Script[:i], s.Script[i+1:]...)
	return nil
}

// MoveLine moves the line at index from to index to, shifting the
// lines in between. Playback and export follow script order, so this
// is the reorder primitive.
func (s *Story) MoveLine(from, to int) error {
	if from < 0 || from >= len(s.Script) {
		return fmt.Errorf("line index %d out of range", from)
	}
	if to < 0 || to >= len(s.Script) {
		return fmt.Errorf("target index %d out of range", to)
	}
	if from == to {
		return nil
	}
	l := s.Script[from]
	s.Script = append(s.Script[:from], s.Script[from+1:]...)
	rest := append([]Line{l}, s.Script[to:]...)
	s.Script = append(s.Script[:to], rest...)
	return nil
}

// MissingCharacters returns the distinct speaker names referenced by
// the script that have no matching cast member.
func (s *Story) MissingCharacters() []string {
	seen := map[string]bool{}
	var missing []string
	for _, l := range s.Script {
		if _, ok := s.Character(l.Speaker); !ok && !seen[l.Speaker] {
			seen[l.Speaker] = true
			missing = append(missing, l.Speaker)
		}
	}
	return missing
}
