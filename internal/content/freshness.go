package content

import "time"

// DefaultStaleDays is the staleness window applied when no override is given.
const DefaultStaleDays = 7

// ShouldRefresh decides whether an entity's MHR data needs re-fetching.
//
// Force always refreshes. An entity with no refresh timestamp, no rating, or
// no record is incomplete and always refreshed. Otherwise the entity is
// refreshed once the staleness window has elapsed. The window exists to bound
// outbound requests per run against the ranking site.
func ShouldRefresh(lastRefreshed string, rating *float64, record *string, force bool, staleDays int, now time.Time) bool {
	if force {
		return true
	}
	if lastRefreshed == "" || rating == nil || record == nil {
		return true
	}
	ts, err := time.Parse(time.RFC3339, lastRefreshed)
	if err != nil {
		// Unparseable timestamp counts as missing.
		return true
	}
	return now.Sub(ts) >= time.Duration(staleDays)*24*time.Hour
}

// TeamNeedsRefresh applies ShouldRefresh to a team entity.
func TeamNeedsRefresh(t *Team, force bool, staleDays int, now time.Time) bool {
	return ShouldRefresh(t.LastUpdated, t.Rating, t.Record, force, staleDays, now)
}

// OpponentNeedsRefresh applies ShouldRefresh to an inline opponent.
func OpponentNeedsRefresh(o *Opponent, force bool, staleDays int, now time.Time) bool {
	return ShouldRefresh(o.UpdatedFromMHRAt, o.Rating, o.Record, force, staleDays, now)
}

// TournamentEnded reports whether a tournament's end date (YYYY-MM-DD) has
// passed. Tournaments without an end date are never considered ended.
func TournamentEnded(t *Tournament, now time.Time) bool {
	if t.EndDate == "" {
		return false
	}
	end, err := time.ParseInLocation("2006-01-02", t.EndDate, now.Location())
	if err != nil {
		return false
	}
	// The tournament is over once the day after its end date begins.
	return now.After(end.AddDate(0, 0, 1))
}
