package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/chesterfieldhockey/scoutdata/internal/content"
	"github.com/chesterfieldhockey/scoutdata/internal/logger"
)

// Store persists one schedule file per team slug.
type Store struct {
	dataDir string
	dryRun  bool
}

// NewStore creates a Store rooted at dataDir, creating it if needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating schedule directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// SetDryRun suppresses writes while still reporting would-be changes.
func (s *Store) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// Save writes a team's games atomically, skipping identical content. Returns
// whether a write happened (or would have, under dry-run).
func (s *Store) Save(slug string, games []Game) (bool, error) {
	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encoding schedule for %s: %w", slug, err)
	}
	data = append(data, '\n')

	path := filepath.Join(s.dataDir, slug+".json")
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if s.dryRun {
		return true, nil
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return false, fmt.Errorf("writing schedule for %s: %w", slug, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("replacing schedule for %s: %w", slug, err)
	}
	return true, nil
}

// Syncer regenerates per-team schedule files from their calendar sources.
type Syncer struct {
	client *http.Client
	store  *Store
	loc    *time.Location
}

// NewSyncer creates a Syncer.
func NewSyncer(store *Store, loc *time.Location, timeout time.Duration) *Syncer {
	return &Syncer{
		client: &http.Client{Timeout: timeout},
		store:  store,
		loc:    loc,
	}
}

// SyncTeam fetches the team's calendar sources in configured order, takes the
// first source that yields any normalized games, dedupes and sorts them, and
// rewrites the team's schedule file. When every source fails the existing
// schedule file is left untouched and an error is returned.
// Returns (gameCount, wrote, error).
func (s *Syncer) SyncTeam(ctx context.Context, team *content.Team) (int, bool, error) {
	if len(team.Calendars) == 0 {
		return 0, false, nil
	}

	var games []Game
	fetched := false
	for _, src := range team.Calendars {
		raw, err := s.fetchSource(ctx, src)
		if err != nil {
			logger.Warn("Calendar source failed", logger.Fields{
				"team":   team.Slug,
				"source": src.Source,
				"error":  err.Error(),
			})
			continue
		}
		fetched = true

		normalized := make([]Game, 0, len(raw))
		for _, ev := range raw {
			normalized = append(normalized, Normalize(ev, team.Name, s.loc))
		}
		if len(normalized) > 0 {
			// First source with events wins; no cross-source merging.
			games = normalized
			break
		}
	}

	// An empty schedule is only trustworthy when at least one source answered.
	// Otherwise the previous run's file must survive the outage.
	if !fetched {
		return 0, false, fmt.Errorf("all calendar sources failed for %s", team.Slug)
	}

	games = Dedupe(games)
	Sort(games)

	wrote, err := s.store.Save(team.Slug, games)
	if err != nil {
		return 0, false, err
	}
	return len(games), wrote, nil
}

func (s *Syncer) fetchSource(ctx context.Context, src content.CalendarSource) ([]RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return ParseICS(resp.Body, src.Source, src.URL, s.loc)
}
