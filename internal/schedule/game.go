// Package schedule converts raw calendar feeds into the site's canonical
// per-team game records.
//
// Titles from team calendars are free text; opponent and home/away are
// recovered with ordered heuristics ("A vs B", "A @ B", then self-name
// stripping). Output files are fully regenerated each run from the raw
// sources, never merged with prior output.
package schedule

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// HomeAway is the venue relation of the tracked team for one game.
type HomeAway string

const (
	Home    HomeAway = "Home"
	Away    HomeAway = "Away"
	Neutral HomeAway = "Neutral"
)

// RawEvent is one calendar event as fetched from a source. Consumed once per
// normalization pass, never persisted.
type RawEvent struct {
	Title     string
	Start     time.Time
	AllDay    bool
	Venue     string
	Source    string
	SourceID  string
	SourceURL string
}

// Game is the canonical persisted game record.
type Game struct {
	Date       string   `json:"date"`
	Time       string   `json:"time,omitempty"`
	Opponent   string   `json:"opponent"`
	HomeAway   HomeAway `json:"homeAway"`
	LeagueGame bool     `json:"leagueGame"`
	Tournament string   `json:"tournament,omitempty"`
	Venue      string   `json:"venue,omitempty"`
	Source     string   `json:"source"`
	SourceID   string   `json:"sourceId"`
	SourceURL  string   `json:"sourceUrl,omitempty"`
}

var (
	vsPattern = regexp.MustCompile(`(?i)^(.*?)\s+vs\.?\s+(.*)$`)
	atPattern = regexp.MustCompile(`^(.*?)\s+@\s+(.*)$`)

	tournamentKeywords = regexp.MustCompile(`(?i)\b(tournament|tourney|classic|cup|showcase|shootout|invitational)\b`)
	tournamentName     = regexp.MustCompile(`([A-Z][\w']*(?:\s+[A-Z][\w']*)*\s+(?:Classic|Cup|Showcase|Shootout|Invitational|Tournament))`)

	edgePunctuation = regexp.MustCompile(`^[\s\-–:,.]+|[\s\-–:,.]+$`)
)

// Normalize converts one raw event into a canonical game record for the team
// identified by selfName.
func Normalize(raw RawEvent, selfName string, loc *time.Location) Game {
	g := Game{
		Venue:     raw.Venue,
		Source:    raw.Source,
		SourceID:  raw.SourceID,
		SourceURL: raw.SourceURL,
	}

	// All-day events carry a zone-less date; shifting it would move the game
	// to the wrong day.
	start := raw.Start
	if !raw.AllDay {
		start = start.In(loc)
		g.Time = start.Format("15:04")
	}
	g.Date = start.Format("2006-01-02")

	g.Opponent, g.HomeAway = opponentFromTitle(raw.Title, selfName)
	g.LeagueGame = strings.Contains(strings.ToLower(raw.Title), "league")

	if tournamentKeywords.MatchString(raw.Title) {
		if m := tournamentName.FindString(raw.Title); m != "" {
			g.Tournament = m
		} else {
			g.Tournament = "Tournament"
		}
	}

	return g
}

// opponentFromTitle applies the title heuristics in order: "A vs B",
// "A @ B", then stripping the self name out of the title.
func opponentFromTitle(title, selfName string) (string, HomeAway) {
	if m := vsPattern.FindStringSubmatch(title); m != nil {
		a, b := cleanName(m[1]), cleanName(m[2])
		switch {
		case containsFold(a, selfName):
			return b, Home
		case containsFold(b, selfName):
			return a, Away
		default:
			return b, Neutral
		}
	}

	if m := atPattern.FindStringSubmatch(title); m != nil {
		a, b := cleanName(m[1]), cleanName(m[2])
		switch {
		case containsFold(a, selfName):
			// Self travels to B.
			return b, Away
		case containsFold(b, selfName):
			// Self hosts A.
			return a, Home
		default:
			return b, Neutral
		}
	}

	// No separator: whatever remains after removing the self name is the
	// opponent.
	remainder := removeFold(title, selfName)
	remainder = cleanName(remainder)
	if remainder == "" {
		remainder = "TBD"
	}
	return remainder, Neutral
}

// Dedupe drops later events that share a (date, time, opponent, source) key
// with an earlier one. First occurrence wins.
func Dedupe(games []Game) []Game {
	seen := make(map[string]bool)
	out := make([]Game, 0, len(games))
	for _, g := range games {
		key := g.Date + "|" + g.Time + "|" + strings.ToLower(g.Opponent) + "|" + g.Source
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}

// Sort orders games ascending by date then time. ISO formatting makes string
// comparison chronological.
func Sort(games []Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].Date != games[j].Date {
			return games[i].Date < games[j].Date
		}
		return games[i].Time < games[j].Time
	})
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := edgePunctuation.ReplaceAllString(s, "")
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// removeFold removes the first case-insensitive occurrence of needle.
func removeFold(s, needle string) string {
	if needle == "" {
		return s
	}
	idx := strings.Index(strings.ToLower(s), strings.ToLower(needle))
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(needle):]
}
