package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"schedscope/pkg/logx"
)

// fileStore is the dependency-free backend: one append-only JSON Lines file.
// Prune rewrites the file atomically via a temp file + rename.
type fileStore struct {
	log logx.Logger

	mu        sync.Mutex
	path      string
	file      *os.File
	retention time.Duration
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, file: f, retention: cfg.Retention}, nil
}

func (s *fileStore) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	if s == nil || s.file == nil {
		return ErrDisabled
	}
	if snap.At.IsZero() {
		snap.At = time.Now()
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

func (s *fileStore) RecentSnapshots(ctx context.Context, n int) ([]Snapshot, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *fileStore) Prune(ctx context.Context) (int, error) {
	if s == nil {
		return 0, ErrDisabled
	}
	if s.retention <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-s.retention)
	kept := all[:0]
	for _, snap := range all {
		if !snap.At.Before(cutoff) {
			kept = append(kept, snap)
		}
	}
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(f)
	for _, snap := range kept {
		b, err := json.Marshal(snap)
		if err != nil {
			_ = f.Close()
			return 0, err
		}
		_, _ = w.Write(append(b, '\n'))
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	_ = s.file.Close()
	if err := os.Rename(tmp, s.path); err != nil {
		return 0, err
	}
	nf, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	s.file = nf
	return removed, nil
}

// readAll parses the jsonl file, skipping corrupt lines.
func (s *fileStore) readAll() ([]Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Snapshot
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(line), &snap); err != nil {
			s.log.Warn("skipping corrupt snapshot line", logx.Err(err))
			continue
		}
		out = append(out, snap)
	}
	return out, sc.Err()
}

func (s *fileStore) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.file.Close()
	s.file = nil
	return err
}
