package mhr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chesterfieldhockey/scoutdata/internal/content"
)

// The field parsers operate on normalized page text (single-spaced, tags
// stripped). Each one tries labeled patterns in priority order and returns nil
// when nothing plausible matches; they are pure and safe to re-run on the
// same text.

var (
	// Rating labels in priority order. No unlabeled fallback: a bare decimal
	// in the page is far more likely to be a score or a date fragment than a
	// rating, so absence wins over a guess.
	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`MHR Rating:?\s*(-?\d+(?:\.\d+)?)`),
		regexp.MustCompile(`Power Rating:?\s*(-?\d+(?:\.\d+)?)`),
		regexp.MustCompile(`Rating:?\s*(-?\d+(?:\.\d+)?)`),
	}

	labeledRecordPattern = regexp.MustCompile(`(?:Record|Overall):?\s*(\d{1,3})\s*-\s*(\d{1,3})\s*-\s*(\d{1,3})`)
	tripletPattern       = regexp.MustCompile(`(\d{1,3})\s*-\s*(\d{1,3})\s*-\s*(\d{1,3})`)

	nationalRankPattern = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)\s+(?:USA|United States)\s+\d{1,2}U`)

	// Loose state-rank fallback: any ordinal+level occurrence. The label
	// between ordinal and level is captured so USA rankings can be rejected.
	looseRankPattern = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)\s+([A-Za-z][A-Za-z.\- ]*?)\s+\d{1,2}U`)
)

// ParseRating extracts the team rating from page text, trying "MHR Rating:",
// "Power Rating:" then plain "Rating:" labels. Returns nil when no labeled
// rating is present.
func ParseRating(text string) *float64 {
	for _, p := range ratingPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return &v
		}
	}
	return nil
}

// ParseRecord extracts the overall win-loss-tie record ("10-4-2"). A labeled
// "Record:"/"Overall:" line wins outright. Otherwise all dash-separated
// triplets are scanned; triplets that are fragments of dates (adjacent to
// more digits, or with a component over 200) are discarded and the remaining
// candidate with the most total games is taken as the overall line.
func ParseRecord(text string) *string {
	if m := labeledRecordPattern.FindStringSubmatch(text); m != nil {
		wins, _ := strconv.Atoi(m[1])
		losses, _ := strconv.Atoi(m[2])
		ties, _ := strconv.Atoi(m[3])
		rec := content.FormatRecord(wins, losses, ties)
		return &rec
	}

	var best [3]int
	bestSum := -1
	for _, idx := range tripletPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := idx[0], idx[1]
		if start > 0 && isDigit(text[start-1]) {
			continue
		}
		if end < len(text) && isDigit(text[end]) {
			continue
		}

		sum := 0
		plausible := true
		var parts [3]int
		for g := 1; g <= 3; g++ {
			n, err := strconv.Atoi(text[idx[2*g]:idx[2*g+1]])
			if err != nil || n > 200 {
				plausible = false
				break
			}
			sum += n
			parts[g-1] = n
		}
		if !plausible {
			continue
		}

		if sum > bestSum {
			bestSum = sum
			best = parts
		}
	}

	if bestSum < 0 {
		return nil
	}
	rec := content.FormatRecord(best[0], best[1], best[2])
	return &rec
}

// ParseNationalRank extracts a rank of the form "41st USA 12U".
func ParseNationalRank(text string) *int {
	if m := nationalRankPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// ParseStateRank extracts a state/region rank ("3rd Missouri 12U"). It tries,
// in order: every known region's full name, every region code, any
// caller-supplied hints (explicit state fields or parenthetical suffixes from
// the entity name), then a loose ordinal+level fallback that rejects national
// labels. First match wins.
func ParseStateRank(text string, hints []string) *int {
	for _, r := range Regions {
		if n := matchRegionRank(text, r.Name, true); n != nil {
			return n
		}
	}
	for _, r := range Regions {
		if n := matchRegionRank(text, r.Code, false); n != nil {
			return n
		}
	}
	for _, hint := range hints {
		hint = strings.TrimSpace(hint)
		if hint == "" {
			continue
		}
		// Two-letter hints are treated as codes; expand known ones so the
		// full name is tried too.
		if r, ok := regionByCode(strings.ToUpper(hint)); ok && len(hint) == 2 {
			if n := matchRegionRank(text, r.Name, true); n != nil {
				return n
			}
			if n := matchRegionRank(text, r.Code, false); n != nil {
				return n
			}
			continue
		}
		if n := matchRegionRank(text, hint, true); n != nil {
			return n
		}
	}

	for _, m := range looseRankPattern.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[2])
		if strings.EqualFold(label, "USA") || strings.EqualFold(label, "United States") {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// matchRegionRank matches "<N><ordinal> <region> <level>" for one region
// token. Full names match case-insensitively; codes match exactly to avoid
// colliding with ordinary words ("IN", "OR").
func matchRegionRank(text, region string, foldCase bool) *int {
	prefix := ""
	if foldCase {
		prefix = "(?i)"
	}
	p, err := regexp.Compile(prefix + `(\d+)(?:st|nd|rd|th)\s+` + regexp.QuoteMeta(region) + `\s+\d{1,2}U`)
	if err != nil {
		return nil
	}
	if m := p.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// hasRankSignal reports whether either rank parser finds anything in text.
// The extractor uses it to decide whether the headless fallback is worth the
// cost: ranks are frequently injected client-side while rating and record sit
// in static markup.
func hasRankSignal(text string, hints []string) bool {
	return ParseStateRank(text, hints) != nil || ParseNationalRank(text) != nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
