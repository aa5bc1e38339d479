// Package presets persists reusable axis calibrations as a JSON file.
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Store is a file-backed preset collection. Concurrent saves are
// serialized by the mutex; the last writer wins per preset ID.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a Store backed by the given JSON file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the default preset file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./presets.json"
	}
	return filepath.Join(home, ".config", "curve-extract", "presets.json")
}

// Save writes or overwrites a preset.
func (s *Store) Save(preset types.GraphPreset) error {
	if preset.ID == "" {
		return fmt.Errorf("preset id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	preset.SavedAt = time.Now()
	all[preset.ID] = preset
	return s.write(all)
}

// Load returns all saved presets. A missing file is an empty collection.
func (s *Store) Load() ([]types.GraphPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	presets := make([]types.GraphPreset, 0, len(all))
	for _, p := range all {
		presets = append(presets, p)
	}
	return presets, nil
}

// Delete removes a preset by ID. Deleting an unknown ID is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	delete(all, id)
	return s.write(all)
}

func (s *Store) read() (map[string]types.GraphPreset, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]types.GraphPreset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var all map[string]types.GraphPreset
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse preset file: %w", err)
	}
	return all, nil
}

func (s *Store) write(all map[string]types.GraphPreset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}
	return nil
}
