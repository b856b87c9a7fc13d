// Package analyzer runs the periodic analysis pass: fetch the task list,
// validate, aggregate, band, persist a snapshot, and raise an alert when the
// overall band changes. The latest result stays in memory for the HTTP API.
package analyzer

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"schedscope/internal/analysis"
	"schedscope/internal/observability"
	"schedscope/internal/storage"
	"schedscope/pkg/logx"
)

// TaskSource supplies raw task records, usually the remote API client.
type TaskSource interface {
	FetchTasks(ctx context.Context) ([]analysis.RawTask, error)
}

// Alerter receives band-transition notifications. Delivery is best-effort
// and must not block the analysis pass.
type Alerter interface {
	Alert(band analysis.Band, text string)
}

type Config struct {
	Enabled     bool
	Spec        string // cron spec or @every descriptor
	Timezone    string // IANA TZ; empty means UTC
	HistorySize int
	Thresholds  analysis.Thresholds
}

type Service struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	source  TaskSource
	store   storage.Store
	alerter Alerter

	c      *cron.Cron
	stopCh chan struct{}

	rmu      sync.RWMutex
	latest   *analysis.Result
	tasks    []analysis.Task
	lastBand analysis.Band
	banded   bool
}

func New(cfg Config, source TaskSource, store storage.Store, alerter Alerter, log logx.Logger) *Service {
	if cfg.Spec == "" {
		cfg.Spec = "@every 15m"
	}
	if cfg.Thresholds == nil {
		cfg.Thresholds = analysis.DefaultThresholds()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, source: source, store: store, alerter: alerter, log: log}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return nil
	}

	loc := s.loadLocation()
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cfg.Spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("analysis pass failed", logx.Err(err))
		}
	}); err != nil {
		return err
	}

	s.stopCh = make(chan struct{})
	s.c = c
	c.Start()

	// First pass right away so the API has data before the first tick.
	go func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("initial analysis pass failed", logx.Err(err))
		}
	}()

	s.log.Info("analyzer started", logx.String("spec", s.cfg.Spec), logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	if s.c != nil {
		select {
		case <-s.c.Stop().Done():
		case <-ctx.Done():
		}
		s.c = nil
	}
	s.log.Info("analyzer stopped")
}

// RunOnce executes one full analysis pass.
func (s *Service) RunOnce(ctx context.Context) error {
	if s.source == nil {
		return errors.New("analyzer: no task source")
	}
	started := time.Now()

	raws, err := s.source.FetchTasks(ctx)
	if err != nil {
		observability.AnalysisRuns.WithLabelValues("fetch_error").Inc()
		return err
	}

	rep := analysis.BuildTasks(raws)
	if rep.Skipped > 0 {
		s.log.Warn("records skipped for missing start times", logx.Int("skipped", rep.Skipped))
	}
	for _, te := range rep.Errors {
		s.log.Warn("invalid schedule rejected",
			logx.String("task", te.TaskID),
			logx.String("field", te.Err.Field),
			logx.String("rule", te.Err.Rule))
	}

	now := time.Now().In(s.loadLocation())
	res := analysis.Analyze(rep.Tasks, now.Year(), now.Month(), s.cfg.Thresholds)
	res.GeneratedAt = now
	res.Skipped = rep.Skipped

	s.publish(ctx, res, rep.Tasks)

	observability.AnalysisRuns.WithLabelValues("ok").Inc()
	observability.AnalysisDuration.Observe(time.Since(started).Seconds())
	observability.TasksAnalyzed.Set(float64(len(rep.Tasks)))
	observability.TasksSkipped.Set(float64(rep.Skipped))
	exportHealth(res.Health)

	s.log.Info("analysis pass complete",
		logx.Int("tasks", len(rep.Tasks)),
		logx.Int("skipped", rep.Skipped),
		logx.Int("invalid", len(rep.Errors)),
		logx.String("band", string(res.Health.WorstBand())),
		logx.Duration("took", time.Since(started)))
	return nil
}

// Latest returns the most recent analysis, if one has completed.
func (s *Service) Latest() (analysis.Result, bool) {
	s.rmu.RLock()
	defer s.rmu.RUnlock()
	if s.latest == nil {
		return analysis.Result{}, false
	}
	return *s.latest, true
}

// LatestTasks returns the validated tasks behind the latest analysis.
func (s *Service) LatestTasks() ([]analysis.Task, bool) {
	s.rmu.RLock()
	defer s.rmu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.tasks, true
}

// History returns up to n persisted snapshots, oldest first.
func (s *Service) History(ctx context.Context, n int) ([]storage.Snapshot, error) {
	if s.store == nil {
		return nil, storage.ErrDisabled
	}
	if n <= 0 || (s.cfg.HistorySize > 0 && n > s.cfg.HistorySize) {
		n = s.cfg.HistorySize
	}
	return s.store.RecentSnapshots(ctx, n)
}

// Thresholds exposes the active banding table for simulation requests.
func (s *Service) Thresholds() analysis.Thresholds { return s.cfg.Thresholds }

func (s *Service) publish(ctx context.Context, res analysis.Result, tasks []analysis.Task) {
	band := res.Health.WorstBand()

	s.rmu.Lock()
	prev, had := s.lastBand, s.banded
	s.latest = &res
	s.tasks = tasks
	s.lastBand = band
	s.banded = true
	s.rmu.Unlock()

	if had && prev != band && s.alerter != nil {
		s.alerter.Alert(band, bandTransitionText(prev, band, res))
	}

	if s.store != nil {
		snap := snapshotOf(res)
		if err := s.store.AppendSnapshot(ctx, snap); err != nil {
			s.log.Warn("snapshot persist failed", logx.Err(err))
		}
		if removed, err := s.store.Prune(ctx); err != nil {
			s.log.Warn("snapshot prune failed", logx.Err(err))
		} else if removed > 0 {
			s.log.Debug("pruned old snapshots", logx.Int("removed", removed))
		}
	}
}

func snapshotOf(res analysis.Result) storage.Snapshot {
	return storage.Snapshot{
		At:           res.GeneratedAt,
		TaskCount:    len(res.Tasks),
		SkippedCount: res.Skipped,
		LoadBalance:  res.Health.LoadBalance.Value,
		BusiestPct:   res.Health.Busiest.Pct,
		Utilization:  res.Health.Utilization.Value,
		PeakAvgRatio: res.Health.PeakAvgRatio.Value,
		WorstBand:    string(res.Health.WorstBand()),
	}
}

func exportHealth(h analysis.HealthMetrics) {
	set := func(name string, m analysis.Metric) {
		observability.HealthScore.WithLabelValues(name).Set(m.Value)
		observability.HealthBand.WithLabelValues(name).Set(observability.BandValue(string(m.Band)))
	}
	set(analysis.MetricLoadBalance, h.LoadBalance)
	set(analysis.MetricUtilization, h.Utilization)
	set(analysis.MetricPeakAvgRatio, h.PeakAvgRatio)
	observability.HealthScore.WithLabelValues(analysis.MetricBusiestPct).Set(h.Busiest.Pct)
	observability.HealthBand.WithLabelValues(analysis.MetricBusiestPct).Set(observability.BandValue(string(h.Busiest.Band)))
}

func bandTransitionText(prev, next analysis.Band, res analysis.Result) string {
	var b strings.Builder
	b.WriteString("Refresh load health moved from ")
	b.WriteString(string(prev))
	b.WriteString(" to ")
	b.WriteString(string(next))
	b.WriteString(".\n")
	b.WriteString("Balance score: ")
	b.WriteString(formatFloat(res.Health.LoadBalance.Value))
	b.WriteString(", busiest window ")
	b.WriteString(res.Health.Busiest.Label)
	b.WriteString(" (")
	b.WriteString(formatFloat(res.Health.Busiest.Pct))
	b.WriteString("% of load).")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Service) loadLocation() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to UTC", logx.String("tz", tz))
		return time.UTC
	}
	return loc
}
