package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chesterfieldhockey/scoutdata/internal/refresh"
)

// OutputFormat selects how run summaries are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, FormatJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
}

// ScheduleSummary tallies one schedule-sync run.
type ScheduleSummary struct {
	Synced  int `json:"synced"`
	Games   int `json:"games"`
	Written int `json:"filesWritten"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// refreshOutput is the JSON shape of a refresh run summary.
type refreshOutput struct {
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Written   int  `json:"filesWritten"`
	DryRun    bool `json:"dryRun,omitempty"`
}

// WriteRefreshSummary renders an end-of-run refresh summary to w.
func WriteRefreshSummary(w io.Writer, sum refresh.Summary, dryRun bool, format OutputFormat) error {
	if format == FormatJSON {
		out := refreshOutput{
			Updated:   sum.Updated,
			Unchanged: sum.Unchanged,
			Skipped:   sum.Skipped,
			Failed:    sum.Failed,
			Written:   sum.Written,
			DryRun:    dryRun,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if dryRun {
		fmt.Fprint(w, "[dry-run] ")
	}
	_, err := fmt.Fprintln(w, sum.String())
	return err
}

// WriteScheduleSummary renders an end-of-run schedule summary to w.
func WriteScheduleSummary(w io.Writer, sum ScheduleSummary, dryRun bool, format OutputFormat) error {
	if format == FormatJSON {
		out := struct {
			ScheduleSummary
			DryRun bool `json:"dryRun,omitempty"`
		}{sum, dryRun}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if dryRun {
		fmt.Fprint(w, "[dry-run] ")
	}
	_, err := fmt.Fprintf(w, "synced=%d games=%d files_written=%d skipped=%d failed=%d\n",
		sum.Synced, sum.Games, sum.Written, sum.Skipped, sum.Failed)
	return err
}
