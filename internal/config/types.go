package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the full schedscope configuration. Files may be JSON or YAML;
// unknown fields are rejected so typos fail loudly at startup instead of
// silently defaulting.
type Config struct {
	// Timezone is the single IANA zone all schedule times are local to.
	Timezone string `json:"timezone"`

	Logging    LoggingConfig              `json:"logging"`
	API        APIConfig                  `json:"api"`
	Analyzer   AnalyzerConfig             `json:"analyzer"`
	Alerts     AlertsConfig               `json:"alerts"`
	Server     ServerConfig               `json:"server"`
	Storage    StorageConfig              `json:"storage"`
	Thresholds map[string]ThresholdConfig `json:"thresholds,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// APIConfig points at the remote scheduling API.
type APIConfig struct {
	BaseURL    string  `json:"base_url"`
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	Site       string  `json:"site"`
	PageSize   int     `json:"page_size"`
	RatePerSec float64 `json:"rate_per_sec"`
	Timeout    string  `json:"timeout"`
}

// AnalyzerConfig controls the periodic analysis runs.
type AnalyzerConfig struct {
	Enabled     bool   `json:"enabled"`
	Spec        string `json:"spec"` // cron spec or @every duration
	HistorySize int    `json:"history_size"`
}

// AlertsConfig controls Telegram red-band alerting.
type AlertsConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	MinLevel   string `json:"min_level"` // "yellow" or "red"
	RatePerSec int    `json:"rate_per_sec"`
	Cooldown   string `json:"cooldown"` // per-metric dedup window
}

type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

type StorageConfig struct {
	Driver    string `json:"driver"` // "none", "file" or "sqlite"
	Path      string `json:"path"`
	Retention string `json:"retention"` // prune snapshots older than this
}

// ThresholdConfig overrides one metric's banding cutoffs.
type ThresholdConfig struct {
	Green          float64 `json:"green"`
	Yellow         float64 `json:"yellow"`
	HigherIsBetter bool    `json:"higher_is_better"`
}

// Validate checks cross-field invariants that the decoder cannot.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Timezone) == "" {
		return errors.New("timezone is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.PageSize < 0 {
		return errors.New("api.page_size must be >= 0")
	}
	for _, field := range []struct{ path, raw string }{
		{"api.timeout", c.API.Timeout},
		{"alerts.cooldown", c.Alerts.Cooldown},
		{"storage.retention", c.Storage.Retention},
	} {
		if _, err := ParseDurationField(field.path, field.raw); err != nil {
			return err
		}
	}
	if c.Alerts.Enabled && strings.TrimSpace(c.Alerts.Token) == "" {
		return errors.New("alerts.token is required when alerts are enabled")
	}
	return nil
}

// ParseDurationField parses an optional duration string; empty means zero.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with a fallback for the
// empty/zero case.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
