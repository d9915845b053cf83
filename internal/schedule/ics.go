package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ParseICS reads an iCalendar feed and converts its events to RawEvents.
// Events without a parseable start are skipped; everything else is carried
// through for normalization.
func ParseICS(r io.Reader, source, sourceURL string, loc *time.Location) ([]RawEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	events := make([]RawEvent, 0)
	for _, ev := range cal.Events() {
		raw := RawEvent{
			Source:    source,
			SourceURL: sourceURL,
			SourceID:  ev.Id(),
			Title:     unescapeICS(propValue(ev, ics.ComponentPropertySummary)),
			Venue:     unescapeICS(propValue(ev, ics.ComponentPropertyLocation)),
		}

		dtstart := ev.GetProperty(ics.ComponentPropertyDtStart)
		if dtstart == nil {
			continue
		}
		if len(dtstart.Value) == len("20060102") {
			// Date-only start: an all-day event with no meaningful zone.
			start, err := ev.GetAllDayStartAt()
			if err != nil {
				continue
			}
			raw.AllDay = true
			raw.Start = start
		} else {
			start, err := ev.GetStartAt()
			if err != nil {
				continue
			}
			raw.Start = start.In(loc)
		}

		events = append(events, raw)
	}

	return events, nil
}

func propValue(ev *ics.VEvent, name ics.ComponentProperty) string {
	p := ev.GetProperty(name)
	if p == nil {
		return ""
	}
	return p.Value
}

// unescapeICS reverses RFC 5545 text escaping.
func unescapeICS(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\N`, "\n")
	s = strings.ReplaceAll(s, `\,`, ",")
	s = strings.ReplaceAll(s, `\;`, ";")
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}
