// Package history maintains per-entity rating and rank time series.
//
// Each entity slug owns one JSON array of day-keyed points, oldest first. The
// merge engine enforces at most one point per calendar day and avoids noisy
// writes: outside the gated weekday a point is only recorded when a tracked
// value actually moved.
package history

import (
	"time"
)

// DateFormat is the calendar-day key format used in history files.
const DateFormat = "2006-01-02"

// Point is one day's recorded values for an entity.
type Point struct {
	Date         string   `json:"date"`
	Rating       *float64 `json:"rating,omitempty"`
	StateRank    *int     `json:"stateRank,omitempty"`
	NationalRank *int     `json:"nationalRank,omitempty"`
}

// Snapshot carries the values observed today. Fields the parsers could not
// find are left nil and never overwrite recorded values.
type Snapshot struct {
	Rating       *float64
	StateRank    *int
	NationalRank *int
}

// Empty reports whether the snapshot carries no values at all.
func (s Snapshot) Empty() bool {
	return s.Rating == nil && s.StateRank == nil && s.NationalRank == nil
}

// Today formats a wall-clock instant as the calendar day in the given zone.
// The caller derives this once per run so every entity shares the same day.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateFormat)
}

// Merge folds today's snapshot into a series and reports whether the series
// changed.
//
// On the gated weekday (MHR's own publication day) a point for today is always
// produced, replacing any same-day point, and absent snapshot fields are
// carried forward from the last known values so the weekly record is complete.
// On other days a point is only written when at least one observed value
// differs from the last known one, which captures off-cycle corrections
// without recording a flat line.
func Merge(series []Point, snap Snapshot, today string, gated bool) ([]Point, bool) {
	last := lastKnown(series, today)
	sameDay := indexOf(series, today)

	if !gated {
		if !differs(snap, last) {
			return series, false
		}
	}

	entry := Point{Date: today}
	if gated {
		// Full day record: fall back to last known values for absent fields.
		entry.Rating = coalesceFloat(snap.Rating, last.Rating)
		entry.StateRank = coalesceInt(snap.StateRank, last.StateRank)
		entry.NationalRank = coalesceInt(snap.NationalRank, last.NationalRank)
	} else {
		entry.Rating = snap.Rating
		entry.StateRank = snap.StateRank
		entry.NationalRank = snap.NationalRank
	}

	out := make([]Point, len(series))
	copy(out, series)
	if sameDay >= 0 {
		out[sameDay] = entry
	} else {
		out = append(out, entry)
	}

	return out, !equalSeries(series, out)
}

// lastKnown returns the comparison baseline: the existing same-day point when
// present, otherwise the final point before today.
func lastKnown(series []Point, today string) Point {
	if i := indexOf(series, today); i >= 0 {
		return series[i]
	}
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Date < today {
			return series[i]
		}
	}
	return Point{}
}

func indexOf(series []Point, date string) int {
	// Same-day entries live at the tail; scan backwards.
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Date == date {
			return i
		}
	}
	return -1
}

// differs reports whether any value present in the snapshot deviates from the
// baseline. Absent snapshot fields are not treated as changes.
func differs(snap Snapshot, last Point) bool {
	if snap.Rating != nil && (last.Rating == nil || *last.Rating != *snap.Rating) {
		return true
	}
	if snap.StateRank != nil && (last.StateRank == nil || *last.StateRank != *snap.StateRank) {
		return true
	}
	if snap.NationalRank != nil && (last.NationalRank == nil || *last.NationalRank != *snap.NationalRank) {
		return true
	}
	return false
}

func equalSeries(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalPoint(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalPoint(a, b Point) bool {
	return a.Date == b.Date &&
		equalFloat(a.Rating, b.Rating) &&
		equalInt(a.StateRank, b.StateRank) &&
		equalInt(a.NationalRank, b.NationalRank)
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func coalesceFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func coalesceInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}
