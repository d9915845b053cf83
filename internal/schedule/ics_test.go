package schedule

import (
	"strings"
	"testing"
	"time"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//TeamSnap//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:game-100@teamsnap.com\r\n" +
	"DTSTAMP:20260110T120000Z\r\n" +
	"DTSTART:20260117T193000Z\r\n" +
	"DTEND:20260117T210000Z\r\n" +
	"SUMMARY:Chesterfield 12U A1 vs Rockets A1\r\n" +
	"LOCATION:Hardee's Iceplex\\, Chesterfield\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:game-101@teamsnap.com\r\n" +
	"DTSTAMP:20260110T120000Z\r\n" +
	"DTSTART;VALUE=DATE:20260118\r\n" +
	"SUMMARY:Winter Classic vs Bears\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICS(t *testing.T) {
	events, err := ParseICS(strings.NewReader(sampleICS), "teamsnap", "https://example.com/feed.ics", time.UTC)
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Title != "Chesterfield 12U A1 vs Rockets A1" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.SourceID != "game-100@teamsnap.com" {
		t.Errorf("unexpected source id: %q", first.SourceID)
	}
	if first.Venue != "Hardee's Iceplex, Chesterfield" {
		t.Errorf("escaped comma should be unescaped, got %q", first.Venue)
	}
	if first.AllDay {
		t.Error("timed event marked all-day")
	}
	if got := first.Start.UTC().Format("2006-01-02 15:04"); got != "2026-01-17 19:30" {
		t.Errorf("unexpected start: %s", got)
	}

	second := events[1]
	if !second.AllDay {
		t.Error("date-only event should be all-day")
	}
	if got := second.Start.Format("2006-01-02"); got != "2026-01-18" {
		t.Errorf("unexpected all-day start: %s", got)
	}
}

func TestParseICSGarbage(t *testing.T) {
	if _, err := ParseICS(strings.NewReader("not a calendar"), "x", "", time.UTC); err == nil {
		t.Error("expected error for non-ICS input")
	}
}

func TestUnescapeICS(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`Rink A\, Pad 2`, "Rink A, Pad 2"},
		{`a\;b`, "a;b"},
		{`line\nbreak`, "line\nbreak"},
		{`back\\slash`, `back\slash`},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := unescapeICS(tt.in); got != tt.expected {
			t.Errorf("unescapeICS(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}
