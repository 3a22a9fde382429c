package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"talecast/internal/domain/story"
)

// ErrNotFound reports a load or delete for an unknown story id.
var ErrNotFound = errors.New("story not found")

// Store persists stories as whole JSON snapshots, one file per story,
// keyed by id. There are no partial updates: save writes the complete
// story, load returns the complete story.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) a story directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create story directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes a snapshot of st. A story without an id is assigned one,
// and the last-modified stamp is refreshed. Returns the story id.
func (s *Store) Save(st *story.Story) (string, error) {
	snapshot := st.Clone()
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	snapshot.LastModified = time.Now()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode story: %w", err)
	}
	if err := os.WriteFile(s.path(snapshot.ID), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write story: %w", err)
	}

	// Reflect the assigned id and stamp back onto the live story.
	st.ID = snapshot.ID
	st.LastModified = snapshot.LastModified

	logrus.WithFields(logrus.Fields{"id": snapshot.ID, "title": snapshot.Title}).Info("Saved story")
	return snapshot.ID, nil
}

// Load reads the story with the given id.
func (s *Store) Load(id string) (*story.Story, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read story: %w", err)
	}

	var st story.Story
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse story %s: %w", id, err)
	}
	return &st, nil
}

// List returns every stored story, most recently modified first.
// Unreadable files are skipped with a warning rather than failing the
// whole listing.
func (s *Store) List() ([]*story.Story, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read story directory: %w", err)
	}

	var stories []*story.Story
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		st, err := s.Load(id)
		if err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Warn("Skipping unreadable story file")
			continue
		}
		stories = append(stories, st)
	}

	sort.Slice(stories, func(i, j int) bool {
		return stories[i].LastModified.After(stories[j].LastModified)
	})
	return stories, nil
}

// Delete removes the story with the given id.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (s *Store) path(id string) string {
	// Ids are uuids, but never trust them as path components.
	return filepath.Join(s.dir, filepath.Base(id)+".json")
}
