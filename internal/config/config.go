// Package config defines pipeline configuration and its loading chain.
//
// Configuration is layered, lowest precedence first: struct defaults, an
// optional YAML file, then SCOUTDATA_-prefixed environment variables. A .env
// file in the working directory is honored at process start.
package config

import (
	"fmt"
	"time"
)

// Config carries all knobs for the refresh and schedule pipelines.
type Config struct {
	// ContentDir holds team and tournament JSON files.
	ContentDir string `koanf:"content_dir"`

	// HistoryDir holds per-slug rating/rank history files.
	HistoryDir string `koanf:"history_dir"`

	// ScheduleDir holds per-team normalized schedule files.
	ScheduleDir string `koanf:"schedule_dir"`

	// DebugDir receives dumped HTML and extracted text when --dump-html is set.
	DebugDir string `koanf:"debug_dir"`

	// StaleDays is the default staleness window for cached MHR data.
	StaleDays int `koanf:"stale_days"`

	// TimeZone is the IANA zone used to derive "today" for history snapshots.
	TimeZone string `koanf:"time_zone"`

	// GatedWeekday is the weekday on which history always records a snapshot,
	// matching MHR's weekly publication cadence.
	GatedWeekday string `koanf:"gated_weekday"`

	// RequestTimeoutSec bounds each HTTP fetch.
	RequestTimeoutSec int `koanf:"request_timeout_sec"`

	// RenderTimeoutSec bounds a headless-browser render.
	RenderTimeoutSec int `koanf:"render_timeout_sec"`

	// DelayMinMS and DelayMaxMS bound the politeness delay between outbound requests.
	DelayMinMS int `koanf:"delay_min_ms"`
	DelayMaxMS int `koanf:"delay_max_ms"`

	// UserAgent identifies the pipeline to the scraped site.
	UserAgent string `koanf:"user_agent"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ContentDir:        "content",
		HistoryDir:        "content/history",
		ScheduleDir:       "content/schedules",
		DebugDir:          "debug",
		StaleDays:         7,
		TimeZone:          "America/Chicago",
		GatedWeekday:      "Wednesday",
		RequestTimeoutSec: 30,
		RenderTimeoutSec:  45,
		DelayMinMS:        300,
		DelayMaxMS:        1200,
		UserAgent:         "scoutdata/1.0 (github.com/chesterfieldhockey/scoutdata)",
	}
}

// RequestTimeout returns the HTTP fetch timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// RenderTimeout returns the headless render timeout as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutSec) * time.Second
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Weekday resolves GatedWeekday to a time.Weekday.
func (c *Config) Weekday() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == c.GatedWeekday {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid gated weekday %q", c.GatedWeekday)
}
