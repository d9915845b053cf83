package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store handles persistence of entity JSON files under a content directory.
// Teams live in <dir>/teams, tournaments in <dir>/tournaments.
type Store struct {
	dataDir string
	dryRun  bool
}

// NewStore creates a Store rooted at dataDir, creating the directory tree if
// needed.
func NewStore(dataDir string) (*Store, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	for _, sub := range []string{"teams", "tournaments"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("creating content directory: %w", err)
		}
	}

	return &Store{dataDir: dataDir}, nil
}

// SetDryRun suppresses all writes; WriteJSON still reports whether a write
// would have happened.
func (s *Store) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// TeamPath returns the path of a team file by slug.
func (s *Store) TeamPath(slug string) string {
	return filepath.Join(s.dataDir, "teams", slug+".json")
}

// ListTeamFiles returns all team JSON files, sorted by name.
func (s *Store) ListTeamFiles() ([]string, error) {
	return s.listJSON(filepath.Join(s.dataDir, "teams"))
}

// ListTournamentFiles returns tournament JSON files whose filename contains
// filter (case-insensitive); an empty filter matches all.
func (s *Store) ListTournamentFiles(filter string) ([]string, error) {
	files, err := s.listJSON(filepath.Join(s.dataDir, "tournaments"))
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return files, nil
	}
	matched := make([]string, 0, len(files))
	for _, f := range files {
		if strings.Contains(strings.ToLower(filepath.Base(f)), strings.ToLower(filter)) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func (s *Store) listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadTeam reads and parses one team file.
func (s *Store) LoadTeam(path string) (*Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading team file: %w", err)
	}
	var t Team
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing team file %s: %w", filepath.Base(path), err)
	}
	return &t, nil
}

// LoadTournament reads and parses one tournament file.
func (s *Store) LoadTournament(path string) (*Tournament, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tournament file: %w", err)
	}
	var t Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing tournament file %s: %w", filepath.Base(path), err)
	}
	return &t, nil
}

// SaveTeam writes a team file back. Returns true if the file content changed.
func (s *Store) SaveTeam(path string, t *Team) (bool, error) {
	return s.WriteJSON(path, t)
}

// SaveTournament writes a tournament file back. Returns true if the file
// content changed.
func (s *Store) SaveTournament(path string, t *Tournament) (bool, error) {
	return s.WriteJSON(path, t)
}

// WriteJSON marshals v and writes it to path atomically (temp file + rename).
// The write is skipped when the encoded bytes match the existing file, so
// files never churn without a semantic change. Returns whether a write
// happened (or would have, under dry-run).
func (s *Store) WriteJSON(path string, v interface{}) (bool, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if s.dryRun {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
