// Package content provides the team and tournament entity types plus their
// JSON persistence.
//
// Entities are authored by hand as JSON files; the refresh pipeline only
// mutates the MHR-derived fields (rating, record, ranks, refresh timestamp)
// and never creates or deletes entity files.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// CalendarSource identifies one schedule feed for a team.
type CalendarSource struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Team is a standalone team entity backed by one JSON file.
type Team struct {
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	State           string           `json:"state,omitempty"`
	Rating          *float64         `json:"rating,omitempty"`
	Record          *string          `json:"record,omitempty"`
	MHRStateRank    *int             `json:"mhrStateRank,omitempty"`
	MHRNationalRank *int             `json:"mhrNationalRank,omitempty"`
	MHRURL          string           `json:"mhrUrl,omitempty"`
	LastUpdated     string           `json:"lastUpdated,omitempty"`
	Calendars       []CalendarSource `json:"calendars,omitempty"`
}

// Opponent is a tournament-scoped entity defined inline in a tournament file.
type Opponent struct {
	Name             string   `json:"name"`
	MHRURL           string   `json:"mhrUrl,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	Record           *string  `json:"record,omitempty"`
	MHRStateRank     *int     `json:"mhrStateRank,omitempty"`
	MHRNationalRank  *int     `json:"mhrNationalRank,omitempty"`
	UpdatedFromMHRAt string   `json:"updatedFromMHRAt,omitempty"`
	Slug             string   `json:"slug,omitempty"`
}

// HistorySlug returns the slug identifying this opponent's history file,
// deriving one from the name when the author didn't set it.
func (o *Opponent) HistorySlug() string {
	if o.Slug != "" {
		return o.Slug
	}
	return slug.Make(o.Name)
}

// OpponentEntry is one element of a tournament's opponents array, which mixes
// bare slug strings (references to standalone teams) and inline objects.
type OpponentEntry struct {
	Ref    string    `json:"-"`
	Inline *Opponent `json:"-"`
}

// UnmarshalJSON accepts either a slug string or an inline opponent object.
func (e *OpponentEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(data, &e.Ref)
	}
	e.Inline = &Opponent{}
	return json.Unmarshal(data, e.Inline)
}

// MarshalJSON writes the entry back in the same shape it was authored.
func (e OpponentEntry) MarshalJSON() ([]byte, error) {
	if e.Inline != nil {
		return json.Marshal(e.Inline)
	}
	return json.Marshal(e.Ref)
}

// Tournament is a tournament entity with its opponent list.
type Tournament struct {
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	StartDate string          `json:"startDate,omitempty"`
	EndDate   string          `json:"endDate,omitempty"`
	Opponents []OpponentEntry `json:"opponents"`
}

// StateHints extracts state/region hint strings for the rank parser from an
// opponent's authored fields: an explicit state field is not present on
// opponents, but names frequently carry a parenthetical region suffix like
// "Rockets 12U A1 (MO)".
func StateHints(name string) []string {
	var hints []string
	open := strings.LastIndex(name, "(")
	close := strings.LastIndex(name, ")")
	if open >= 0 && close > open {
		inner := strings.TrimSpace(name[open+1 : close])
		if inner != "" && len(inner) <= 20 {
			hints = append(hints, inner)
		}
	}
	return hints
}

// FormatRecord renders a wins-losses-ties triple in the site's canonical form.
func FormatRecord(wins, losses, ties int) string {
	return fmt.Sprintf("%d-%d-%d", wins, losses, ties)
}
