//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"schedscope/pkg/logx"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	at             TEXT NOT NULL,
	task_count     INTEGER NOT NULL,
	skipped_count  INTEGER NOT NULL,
	load_balance   REAL NOT NULL,
	busiest_pct    REAL NOT NULL,
	utilization    REAL NOT NULL,
	peak_avg_ratio REAL NOT NULL,
	worst_band     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_at ON snapshots(at);
`

type sqliteStore struct {
	db        *sql.DB
	log       logx.Logger
	retention time.Duration
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), snapshotSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log, retention: cfg.Retention}, nil
}

func (s *sqliteStore) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if snap.At.IsZero() {
		snap.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(at, task_count, skipped_count, load_balance, busiest_pct, utilization, peak_avg_ratio, worst_band)
		 VALUES(?,?,?,?,?,?,?,?)`,
		snap.At.Format(time.RFC3339Nano), snap.TaskCount, snap.SkippedCount,
		snap.LoadBalance, snap.BusiestPct, snap.Utilization, snap.PeakAvgRatio, snap.WorstBand,
	)
	return err
}

func (s *sqliteStore) RecentSnapshots(ctx context.Context, n int) ([]Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, task_count, skipped_count, load_balance, busiest_pct, utilization, peak_avg_ratio, worst_band
		 FROM snapshots ORDER BY at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var at string
		if err := rows.Scan(&at, &snap.TaskCount, &snap.SkippedCount,
			&snap.LoadBalance, &snap.BusiestPct, &snap.Utilization, &snap.PeakAvgRatio, &snap.WorstBand); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			snap.At = ts
		}
		out = append(out, snap)
	}
	// Oldest first, matching the file backend.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func (s *sqliteStore) Prune(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.retention).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
