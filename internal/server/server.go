// Package server exposes the analysis over a small JSON HTTP API, plus the
// prometheus scrape endpoint and a liveness probe.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schedscope/internal/analysis"
	"schedscope/internal/schedule"
	"schedscope/internal/storage"
	"schedscope/pkg/logx"
)

// AnalysisProvider is the read side of the API, served by the analyzer.
type AnalysisProvider interface {
	Latest() (analysis.Result, bool)
	LatestTasks() ([]analysis.Task, bool)
	History(ctx context.Context, n int) ([]storage.Snapshot, error)
	Thresholds() analysis.Thresholds
	RunOnce(ctx context.Context) error
}

type Config struct {
	Enabled bool
	Addr    string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Service struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	provider AnalysisProvider
	commit   CommitFunc

	ln  net.Listener
	srv *http.Server
}

// CommitFunc pushes one validated schedule to the remote API. Nil disables
// the write path (PUT returns 501).
type CommitFunc func(ctx context.Context, taskID string, s schedule.Schedule) error

func New(cfg Config, provider AnalysisProvider, commit CommitFunc, log logx.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = ":8780"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, provider: provider, commit: commit}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Addr reports the bound listen address once started.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.ln = ln
	s.srv = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped with error", logx.Err(err))
		}
	}()

	s.log.Info("http server started", logx.String("addr", ln.Addr().String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
	}
	s.log.Info("http server stopped")
}

// Handler builds the route table. Exposed separately for tests.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.handleHealthz))
	mux.HandleFunc("GET /api/analysis", s.instrument("analysis", s.handleAnalysis))
	mux.HandleFunc("GET /api/heatmap", s.instrument("heatmap", s.handleHeatmap))
	mux.HandleFunc("GET /api/calendar", s.instrument("calendar", s.handleCalendar))
	mux.HandleFunc("GET /api/history", s.instrument("history", s.handleHistory))
	mux.HandleFunc("POST /api/simulate", s.instrument("simulate", s.handleSimulate))
	mux.HandleFunc("POST /api/refresh", s.instrument("refresh", s.handleRefresh))
	mux.HandleFunc("PUT /api/tasks/{id}/schedule", s.instrument("commit", s.handleCommit))

	mux.HandleFunc("GET /debug/pprof/", hpprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", hpprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", hpprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", hpprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", hpprof.Trace)

	return mux
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.provider.Latest(); !ok {
		writeError(w, http.StatusServiceUnavailable, "no analysis yet")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
