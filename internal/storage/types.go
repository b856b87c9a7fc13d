package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures snapshot persistence.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	Retention   time.Duration // prune snapshots older than this; 0 keeps all
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Snapshot is one analysis run's KPI rollup. Kept compact and
// schema-stable; the full AnalysisResult stays in memory only.
type Snapshot struct {
	At           time.Time `json:"at"`
	TaskCount    int       `json:"task_count"`
	SkippedCount int       `json:"skipped_count"`
	LoadBalance  float64   `json:"load_balance"`
	BusiestPct   float64   `json:"busiest_pct"`
	Utilization  float64   `json:"utilization"`
	PeakAvgRatio float64   `json:"peak_avg_ratio"`
	WorstBand    string    `json:"worst_band"`
}
