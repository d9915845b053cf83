package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists one history series per entity slug.
type Store struct {
	dataDir string
	dryRun  bool
}

// NewStore creates a Store rooted at dataDir, creating it if needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// SetDryRun suppresses writes while still reporting would-be changes.
func (s *Store) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

func (s *Store) path(slug string) string {
	return filepath.Join(s.dataDir, slug+".json")
}

// Load reads a slug's series. A missing file yields an empty series.
func (s *Store) Load(slug string) ([]Point, error) {
	data, err := os.ReadFile(s.path(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return []Point{}, nil
		}
		return nil, fmt.Errorf("reading history for %s: %w", slug, err)
	}

	var series []Point
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("parsing history for %s: %w", slug, err)
	}
	return series, nil
}

// Save writes a slug's series atomically, skipping the write when the encoded
// bytes are identical to what is already on disk. Returns whether a write
// happened (or would have, under dry-run).
func (s *Store) Save(slug string, series []Point) (bool, error) {
	data, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encoding history for %s: %w", slug, err)
	}
	data = append(data, '\n')

	path := s.path(slug)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if s.dryRun {
		return true, nil
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return false, fmt.Errorf("writing history for %s: %w", slug, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("replacing history for %s: %w", slug, err)
	}
	return true, nil
}
