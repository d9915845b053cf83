// Package refresh drives the MHR refresh pipeline over teams and
// tournament opponents.
//
// Entities are processed strictly sequentially with a jittered politeness
// delay between outbound fetches. A failure on one entity is logged and
// skipped; the run continues.
package refresh

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chesterfieldhockey/scoutdata/internal/config"
	"github.com/chesterfieldhockey/scoutdata/internal/content"
	"github.com/chesterfieldhockey/scoutdata/internal/history"
	"github.com/chesterfieldhockey/scoutdata/internal/logger"
	"github.com/chesterfieldhockey/scoutdata/internal/mhr"
)

// Options are the per-run knobs, mostly mapped from CLI flags.
type Options struct {
	// Force bypasses the freshness check.
	Force bool

	// StaleDays overrides the configured staleness window when positive.
	StaleDays int

	// DryRun computes everything but writes nothing.
	DryRun bool

	// IncludePast processes tournaments whose end date has passed.
	IncludePast bool

	// Slug restricts the team pipeline to one team.
	Slug string

	// TournamentFilter restricts tournament files by filename substring.
	TournamentFilter string
}

// Summary counts per-entity outcomes for one run.
type Summary struct {
	Updated   int
	Unchanged int
	Skipped   int
	Failed    int
	Written   int
}

// String renders the end-of-run console summary.
func (s Summary) String() string {
	return fmt.Sprintf("updated=%d unchanged=%d skipped=%d failed=%d files_written=%d",
		s.Updated, s.Unchanged, s.Skipped, s.Failed, s.Written)
}

// Runner executes the refresh pipeline.
type Runner struct {
	store     *content.Store
	histStore *history.Store
	extractor *mhr.Extractor
	opts      Options

	staleDays int
	delayMin  time.Duration
	delayMax  time.Duration

	// now and today are derived once per run so every entity shares the
	// same instant and calendar day.
	now     time.Time
	today   string
	gated   bool
	fetched bool
}

// NewRunner builds a Runner from configuration and per-run options.
func NewRunner(store *content.Store, histStore *history.Store, extractor *mhr.Extractor, cfg *config.Config, opts Options) (*Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	gatedDay, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}

	staleDays := cfg.StaleDays
	if opts.StaleDays > 0 {
		staleDays = opts.StaleDays
	}

	now := time.Now()
	store.SetDryRun(opts.DryRun)
	histStore.SetDryRun(opts.DryRun)

	return &Runner{
		store:     store,
		histStore: histStore,
		extractor: extractor,
		opts:      opts,
		staleDays: staleDays,
		delayMin:  time.Duration(cfg.DelayMinMS) * time.Millisecond,
		delayMax:  time.Duration(cfg.DelayMaxMS) * time.Millisecond,
		now:       now,
		today:     history.Today(now, loc),
		gated:     now.In(loc).Weekday() == gatedDay,
	}, nil
}

// RunTeams refreshes all standalone teams (or one, with --slug).
func (r *Runner) RunTeams(ctx context.Context) (Summary, error) {
	var sum Summary

	files, err := r.store.ListTeamFiles()
	if err != nil {
		return sum, err
	}

	for _, path := range files {
		team, err := r.store.LoadTeam(path)
		if err != nil {
			logger.Warn("Skipping unreadable team file", logger.Fields{
				"path":  path,
				"error": err.Error(),
			})
			sum.Skipped++
			continue
		}

		if r.opts.Slug != "" && team.Slug != r.opts.Slug {
			continue
		}

		r.refreshTeam(ctx, path, team, &sum)
	}

	return sum, nil
}

func (r *Runner) refreshTeam(ctx context.Context, path string, team *content.Team, sum *Summary) {
	if team.MHRURL == "" {
		logger.Info("Skipped (no MHR URL)", logger.Fields{"slug": team.Slug})
		sum.Skipped++
		return
	}
	if !content.TeamNeedsRefresh(team, r.opts.Force, r.staleDays, r.now) {
		logger.Info("Skipped (fresh)", logger.Fields{"slug": team.Slug})
		sum.Skipped++
		return
	}

	hints := r.teamHints(team)
	parsed, ok := r.fetchSnapshot(ctx, team.MHRURL, hints, team.Slug, sum)
	if !ok {
		return
	}

	parsed.applyToTeam(team)
	team.LastUpdated = r.now.UTC().Format(time.RFC3339)

	wrote, err := r.store.SaveTeam(path, team)
	if err != nil {
		logger.Error("Writing team failed", logger.Fields{"slug": team.Slug}, err)
		sum.Failed++
		return
	}
	if wrote {
		sum.Written++
	}

	if r.appendHistory(team.Slug, parsed.snapshot(), sum) || wrote {
		sum.Updated++
		logger.Info("Updated", logger.Fields{"slug": team.Slug})
	} else {
		sum.Unchanged++
		logger.Info("Unchanged", logger.Fields{"slug": team.Slug})
	}
}

// RunTournaments refreshes inline opponents across tournament files.
func (r *Runner) RunTournaments(ctx context.Context) (Summary, error) {
	var sum Summary

	files, err := r.store.ListTournamentFiles(r.opts.TournamentFilter)
	if err != nil {
		return sum, err
	}

	for _, path := range files {
		tour, err := r.store.LoadTournament(path)
		if err != nil {
			logger.Warn("Skipping unreadable tournament file", logger.Fields{
				"path":  path,
				"error": err.Error(),
			})
			sum.Skipped++
			continue
		}

		if !r.opts.IncludePast && content.TournamentEnded(tour, r.now) {
			logger.Info("Skipped (tournament ended)", logger.Fields{"slug": tour.Slug})
			sum.Skipped++
			continue
		}

		r.refreshTournament(ctx, path, tour, &sum)
	}

	return sum, nil
}

func (r *Runner) refreshTournament(ctx context.Context, path string, tour *content.Tournament, sum *Summary) {
	touched := false

	for _, entry := range tour.Opponents {
		// Slug references point at standalone teams owned by the team
		// pipeline; only inline opponents are refreshed here.
		opp := entry.Inline
		if opp == nil {
			continue
		}
		if opp.MHRURL == "" {
			logger.Info("Skipped (no MHR URL)", logger.Fields{"opponent": opp.Name})
			sum.Skipped++
			continue
		}
		if !content.OpponentNeedsRefresh(opp, r.opts.Force, r.staleDays, r.now) {
			logger.Info("Skipped (fresh)", logger.Fields{"opponent": opp.Name})
			sum.Skipped++
			continue
		}

		parsed, ok := r.fetchSnapshot(ctx, opp.MHRURL, content.StateHints(opp.Name), opp.HistorySlug(), sum)
		if !ok {
			continue
		}

		parsed.applyToOpponent(opp)
		opp.UpdatedFromMHRAt = r.now.UTC().Format(time.RFC3339)
		touched = true

		if r.appendHistory(opp.HistorySlug(), parsed.snapshot(), sum) {
			logger.Info("Updated", logger.Fields{"opponent": opp.Name})
			sum.Updated++
		} else {
			logger.Info("Unchanged", logger.Fields{"opponent": opp.Name})
			sum.Unchanged++
		}
	}

	if !touched {
		return
	}

	// One atomic write per tournament file, after all its opponents are done.
	wrote, err := r.store.SaveTournament(path, tour)
	if err != nil {
		logger.Error("Writing tournament failed", logger.Fields{"slug": tour.Slug}, err)
		sum.Failed++
		return
	}
	if wrote {
		sum.Written++
	}
}

// parsedFields is the outcome of running every field parser over one page.
// The record lives on the entity only; rating and ranks also feed history.
type parsedFields struct {
	Rating       *float64
	Record       *string
	StateRank    *int
	NationalRank *int
}

// snapshot reduces the parsed fields to the history-tracked subset.
func (p parsedFields) snapshot() history.Snapshot {
	return history.Snapshot{
		Rating:       p.Rating,
		StateRank:    p.StateRank,
		NationalRank: p.NationalRank,
	}
}

// fetchSnapshot performs the throttled fetch-and-parse for one entity.
// Returns ok=false when the entity should be skipped for this run.
func (r *Runner) fetchSnapshot(ctx context.Context, url string, hints []string, slug string, sum *Summary) (parsedFields, bool) {
	r.throttle()

	page, err := r.extractor.ExtractPage(ctx, url, hints)
	if err != nil {
		logger.Warn("Fetch failed, skipping entity", logger.Fields{
			"slug":  slug,
			"url":   url,
			"error": err.Error(),
		})
		sum.Failed++
		return parsedFields{}, false
	}

	return parsePage(page, hints), true
}

// parsePage runs the field parsers over the extracted text. Rating and
// record usually sit in static markup; ranks prefer the rendered text when
// the fallback ran.
func parsePage(page *mhr.PageText, hints []string) parsedFields {
	p := parsedFields{
		Rating: mhr.ParseRating(page.Primary),
		Record: mhr.ParseRecord(page.Primary),
	}
	if p.Rating == nil && page.Rendered != "" {
		p.Rating = mhr.ParseRating(page.Rendered)
	}
	if p.Record == nil && page.Rendered != "" {
		p.Record = mhr.ParseRecord(page.Rendered)
	}

	p.StateRank = mhr.ParseStateRank(page.RankText(), hints)
	p.NationalRank = mhr.ParseNationalRank(page.RankText())
	return p
}

// applyToTeam writes found fields onto the entity; absent fields keep their
// previous values.
func (p parsedFields) applyToTeam(t *content.Team) {
	if p.Rating != nil {
		t.Rating = p.Rating
	}
	if p.Record != nil {
		t.Record = p.Record
	}
	if p.StateRank != nil {
		t.MHRStateRank = p.StateRank
	}
	if p.NationalRank != nil {
		t.MHRNationalRank = p.NationalRank
	}
}

func (p parsedFields) applyToOpponent(o *content.Opponent) {
	if p.Rating != nil {
		o.Rating = p.Rating
	}
	if p.Record != nil {
		o.Record = p.Record
	}
	if p.StateRank != nil {
		o.MHRStateRank = p.StateRank
	}
	if p.NationalRank != nil {
		o.MHRNationalRank = p.NationalRank
	}
}

// appendHistory merges today's snapshot into the slug's series. Returns
// whether the series changed on disk.
func (r *Runner) appendHistory(slug string, snap history.Snapshot, sum *Summary) bool {
	if snap.Empty() && !r.gated {
		return false
	}

	series, err := r.histStore.Load(slug)
	if err != nil {
		logger.Warn("Loading history failed", logger.Fields{
			"slug":  slug,
			"error": err.Error(),
		})
		return false
	}

	merged, changed := history.Merge(series, snap, r.today, r.gated)
	if !changed {
		return false
	}

	wrote, err := r.histStore.Save(slug, merged)
	if err != nil {
		logger.Error("Writing history failed", logger.Fields{"slug": slug}, err)
		return false
	}
	if wrote {
		sum.Written++
	}
	return wrote
}

func (r *Runner) teamHints(t *content.Team) []string {
	hints := content.StateHints(t.Name)
	if t.State != "" {
		hints = append([]string{t.State}, hints...)
	}
	return hints
}

// throttle sleeps a jittered politeness delay before every outbound fetch
// after the first.
func (r *Runner) throttle() {
	if !r.fetched {
		r.fetched = true
		return
	}
	if r.delayMax <= 0 {
		return
	}
	delay := r.delayMin
	if spread := r.delayMax - r.delayMin; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	time.Sleep(delay)
}
