package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML), from configPath or SCOUTDATA_CONFIG
//  3. env (prefix SCOUTDATA_)
func Load(configPath string) (*Config, error) {
	// A .env alongside the binary is optional; ignore its absence.
	_ = godotenv.Load()

	base := New()

	k := koanf.New(".")

	if configPath == "" {
		configPath = os.Getenv("SCOUTDATA_CONFIG")
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// SCOUTDATA_STALE_DAYS -> stale_days, SCOUTDATA_CONTENT_DIR -> content_dir, ...
	envProvider := env.Provider("SCOUTDATA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "scoutdata_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.ContentDir == "" {
		return nil, errors.New("content_dir must not be empty")
	}
	if cfg.StaleDays < 0 {
		return nil, errors.New("stale_days must not be negative")
	}
	if cfg.DelayMinMS > cfg.DelayMaxMS {
		return nil, errors.New("delay_min_ms must not exceed delay_max_ms")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Weekday(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
