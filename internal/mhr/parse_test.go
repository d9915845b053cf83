package mhr

import (
	"testing"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected *float64
	}{
		{
			name:     "MHR Rating label",
			text:     "Chesterfield 12U A1 MHR Rating: 86.07 Record: 10-4-2",
			expected: floatPtr(86.07),
		},
		{
			name:     "Power Rating label",
			text:     "Power Rating: 91.3 some other text",
			expected: floatPtr(91.3),
		},
		{
			name:     "generic Rating label",
			text:     "Team page Rating: 78.25",
			expected: floatPtr(78.25),
		},
		{
			name:     "MHR label preferred over generic",
			text:     "Rating: 50.0 elsewhere MHR Rating: 86.07",
			expected: floatPtr(86.07),
		},
		{
			name:     "negative rating",
			text:     "MHR Rating: -3.5",
			expected: floatPtr(-3.5),
		},
		{
			name:     "integer rating",
			text:     "Rating: 85",
			expected: floatPtr(85),
		},
		{
			name:     "no unlabeled fallback",
			text:     "The team scored 86.07 goals per game",
			expected: nil,
		},
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRating(tt.text)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("ParseRating(%q) = %v, expected %v", tt.text, got, tt.expected)
			}
			if got != nil && *got != *tt.expected {
				t.Errorf("ParseRating(%q) = %v, expected %v", tt.text, *got, *tt.expected)
			}
		})
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "labeled record",
			text:     "Record: 10-4-2 updated 2025-10-01",
			expected: "10-4-2",
		},
		{
			name:     "overall label",
			text:     "Overall: 22-6-1",
			expected: "22-6-1",
		},
		{
			name:     "unlabeled triplet ignores date",
			text:     "Last game 2025-10-01 went well, now 10-4-2 overall",
			expected: "10-4-2",
		},
		{
			name:     "largest sum wins among candidates",
			text:     "Home 5-1-0 Away 4-2-1 All 10-4-2",
			expected: "10-4-2",
		},
		{
			name:     "component over 200 rejected",
			text:     "Serial 300-1-1",
			expected: "",
		},
		{
			name:     "triplet glued to year rejected",
			text:     "On 2025-10-01 they played",
			expected: "",
		},
		{
			name:     "no triplet at all",
			text:     "A fine team with no numbers",
			expected: "",
		},
		{
			name:     "zero record is plausible",
			text:     "Record: 0-0-0",
			expected: "0-0-0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRecord(tt.text)
			if tt.expected == "" {
				if got != nil {
					t.Errorf("ParseRecord(%q) = %q, expected absent", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseRecord(%q) = nil, expected %q", tt.text, tt.expected)
			}
			if *got != tt.expected {
				t.Errorf("ParseRecord(%q) = %q, expected %q", tt.text, *got, tt.expected)
			}
		})
	}
}

func TestParseNationalRank(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"basic", "41st USA 12U", 41},
		{"first place", "1st USA 10U", 1},
		{"united states spelling", "12th United States 14U", 12},
		{"embedded in page text", "Ranked 3rd Missouri 12U and 41st USA 12U this week", 41},
		{"absent", "3rd Missouri 12U only", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNationalRank(tt.text)
			if tt.expected == 0 {
				if got != nil {
					t.Errorf("ParseNationalRank(%q) = %d, expected absent", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseNationalRank(%q) = nil, expected %d", tt.text, tt.expected)
			}
			if *got != tt.expected {
				t.Errorf("ParseNationalRank(%q) = %d, expected %d", tt.text, *got, tt.expected)
			}
		})
	}
}

func TestParseStateRank(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hints    []string
		expected int
	}{
		{
			name:     "full region name",
			text:     "3rd Missouri 12U - A1",
			expected: 3,
		},
		{
			name:     "region code",
			text:     "7th MO 12U",
			expected: 7,
		},
		{
			name:     "hint code expands to full name",
			text:     "3rd Missouri 12U - A1",
			hints:    []string{"MO"},
			expected: 3,
		},
		{
			name:     "hint full name",
			text:     "3rd Missouri 12U - A1",
			hints:    []string{"Missouri"},
			expected: 3,
		},
		{
			name:     "canadian province",
			text:     "2nd Ontario 14U",
			expected: 2,
		},
		{
			name:     "loose fallback skips USA",
			text:     "41st USA 12U then 5th Tri-State 12U",
			expected: 5,
		},
		{
			name:     "usa only yields nothing",
			text:     "41st USA 12U",
			expected: 0,
		},
		{
			name:     "state rank preferred over national line",
			text:     "41st USA 12U and 3rd Missouri 12U",
			expected: 3,
		},
		{
			name:     "absent",
			text:     "no ranks on this page",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStateRank(tt.text, tt.hints)
			if tt.expected == 0 {
				if got != nil {
					t.Errorf("ParseStateRank(%q) = %d, expected absent", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseStateRank(%q) = nil, expected %d", tt.text, tt.expected)
			}
			if *got != tt.expected {
				t.Errorf("ParseStateRank(%q) = %d, expected %d", tt.text, *got, tt.expected)
			}
		})
	}
}

func TestParsersAreIdempotent(t *testing.T) {
	text := "MHR Rating: 86.07 Record: 10-4-2 3rd Missouri 12U 41st USA 12U"

	r1 := ParseRating(text)
	r2 := ParseRating(text)
	if *r1 != *r2 {
		t.Error("ParseRating is not deterministic")
	}

	s1 := ParseStateRank(text, nil)
	s2 := ParseStateRank(text, nil)
	if *s1 != *s2 {
		t.Error("ParseStateRank is not deterministic")
	}
}

func floatPtr(f float64) *float64 { return &f }
