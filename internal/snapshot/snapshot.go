// Package snapshot persists a task graph snapshot as a JSON file so the
// CLI can mutate edges between invocations.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// DefaultPath is where the CLI keeps its snapshot unless told otherwise.
var DefaultPath = filepath.Join(".depweave", "snapshot.json")

// File is a snapshot on disk.
type File struct {
	Source  string       `json:"source"`
	SavedAt time.Time    `json:"saved_at"`
	Tasks   []graph.Task `json:"tasks"`
	Edges   []graph.Edge `json:"edges"`

	mu   sync.Mutex `json:"-"`
	path string     `json:"-"`
}

// New returns an unsaved File bound to path.
func New(path string, snap graph.Snapshot, source string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{
		Source: source,
		Tasks:  snap.Tasks,
		Edges:  snap.Edges,
		path:   path,
	}
}

// Load reads the snapshot at path. The contents are not validated; the
// graph builders reject malformed snapshots.
func Load(path string) (*File, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, errors.Join(graph.ErrInvalidSnapshot, err))
	}
	f.path = path

	logger.Component("snapshot").Debug().
		Str("path", path).
		Int("tasks", len(f.Tasks)).
		Int("edges", len(f.Edges)).
		Msg("snapshot loaded")
	return &f, nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	if path == "" {
		path = DefaultPath
	}
	_, err := os.Stat(path)
	return err == nil
}

// Path returns where the file is saved.
func (f *File) Path() string { return f.path }

// Snapshot returns the graph snapshot held by the file.
func (f *File) Snapshot() graph.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return graph.Snapshot{Tasks: f.Tasks, Edges: f.Edges}
}

// Replace swaps in a new snapshot and saves.
func (f *File) Replace(snap graph.Snapshot) error {
	f.mu.Lock()
	f.Tasks = snap.Tasks
	f.Edges = snap.Edges
	f.mu.Unlock()
	return f.Save()
}

// Save writes the file atomically, creating its directory if needed.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if f.Tasks == nil {
		f.Tasks = []graph.Task{}
	}
	if f.Edges == nil {
		f.Edges = []graph.Edge{}
	}
	f.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// Clean removes the snapshot file.
func Clean(path string) error {
	if path == "" {
		path = DefaultPath
	}
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
