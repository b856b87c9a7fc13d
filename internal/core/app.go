// Package core wires the services together: config, logging, storage, the
// remote API client, the analyzer, alerting, and the HTTP server.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"schedscope/internal/analysis"
	"schedscope/internal/biclient"
	"schedscope/internal/config"
	"schedscope/internal/schedule"
	"schedscope/internal/server"
	"schedscope/internal/services/analyzer"
	"schedscope/internal/services/notifier"
	"schedscope/internal/storage"
	"schedscope/internal/tsxml"
	"schedscope/pkg/logx"
)

type App struct {
	cfgPath string
	mgr     *config.Manager

	log  logx.Logger
	logs *logx.Service

	store  storage.Store
	client *biclient.Client
	notif  *notifier.Service
	anal   *analyzer.Service
	server *server.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
	cfgSub chan *config.Config
}

func NewApp(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{cfgPath: cfgPath, mgr: mgr, log: log, logs: logSvc}

	retention, err := config.ParseDurationField("storage.retention", cfg.Storage.Retention)
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(storage.Config{
		Driver:    cfg.Storage.Driver,
		Path:      cfg.Storage.Path,
		Retention: retention,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if st != nil {
		a.store = st
		log.Info("storage enabled", logx.String("driver", cfg.Storage.Driver))
	}

	apiTimeout, err := config.ParseDurationOrDefault("api.timeout", cfg.API.Timeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	client, err := biclient.New(biclient.Config{
		BaseURL:    cfg.API.BaseURL,
		Username:   cfg.API.Username,
		Password:   cfg.API.Password,
		Site:       cfg.API.Site,
		PageSize:   cfg.API.PageSize,
		RatePerSec: cfg.API.RatePerSec,
		Timeout:    apiTimeout,
	}, log.With(logx.String("comp", "api")))
	if err != nil {
		return nil, err
	}
	a.client = client

	cooldown, err := config.ParseDurationOrDefault("alerts.cooldown", cfg.Alerts.Cooldown, 30*time.Minute)
	if err != nil {
		return nil, err
	}
	notif, err := notifier.New(notifier.Config{
		Enabled:    cfg.Alerts.Enabled,
		Token:      cfg.Alerts.Token,
		ChatID:     cfg.Alerts.ChatID,
		MinLevel:   cfg.Alerts.MinLevel,
		RatePerSec: float64(cfg.Alerts.RatePerSec),
		Cooldown:   cooldown,
	}, log.With(logx.String("comp", "alerts")))
	if err != nil {
		return nil, err
	}
	a.notif = notif

	a.anal = analyzer.New(analyzer.Config{
		Enabled:     cfg.Analyzer.Enabled,
		Spec:        cfg.Analyzer.Spec,
		Timezone:    cfg.Timezone,
		HistorySize: cfg.Analyzer.HistorySize,
		Thresholds:  thresholdsOf(cfg),
	}, client, a.store, notif, log.With(logx.String("comp", "analyzer")))

	a.server = server.New(server.Config{
		Enabled: cfg.Server.Enabled,
		Addr:    cfg.Server.Addr,
	}, a.anal, a.commitSchedule, log.With(logx.String("comp", "http")))

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.notif.Start(runCtx)

	if a.anal.Enabled() {
		if err := a.anal.Start(runCtx); err != nil {
			return fmt.Errorf("start analyzer: %w", err)
		}
	} else {
		a.log.Info("analyzer disabled; only on-demand refreshes will run")
	}

	if a.server.Enabled() {
		if err := a.server.Start(runCtx); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
	}

	a.cfgSub = a.mgr.Subscribe(1)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.mgr.Watch(runCtx)
	}()
	go func() {
		defer a.wg.Done()
		a.applyConfigUpdates()
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd readiness notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("systemd notified: ready")
	}

	a.log.Info("schedscope started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	a.server.Stop(ctx)
	a.anal.Stop(ctx)
	a.notif.Stop(ctx)

	signoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := a.client.SignOut(signoutCtx); err != nil {
		a.log.Debug("sign out failed", logx.Err(err))
	}
	cancel()

	if a.cancel != nil {
		a.cancel()
	}
	if a.cfgSub != nil {
		a.mgr.Unsubscribe(a.cfgSub)
		a.cfgSub = nil
	}
	a.wg.Wait()

	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("schedscope stopped")
	_ = a.logs.Close()
	return nil
}

// applyConfigUpdates handles hot-reloaded configs. Only logging settings
// apply live; everything else needs a restart.
func (a *App) applyConfigUpdates() {
	for cfg := range a.cfgSub {
		if cfg == nil {
			continue
		}
		a.logs.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.Console,
			File: logx.FileConfig{
				Enabled: cfg.Logging.File.Enabled,
				Path:    cfg.Logging.File.Path,
			},
		})
		a.log.Info("logging config applied",
			logx.String("level", cfg.Logging.Level))
	}
}

// commitSchedule pushes a validated edit to the remote API and kicks off a
// fresh analysis so the served views reflect the change.
func (a *App) commitSchedule(ctx context.Context, taskID string, s schedule.Schedule) error {
	doc, err := tsxml.Serialize(s)
	if err != nil {
		return err
	}
	if err := a.client.UpdateSchedule(ctx, taskID, doc); err != nil {
		return err
	}
	go func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := a.anal.RunOnce(refreshCtx); err != nil {
			a.log.Warn("post-commit analysis failed", logx.Err(err))
		}
	}()
	return nil
}

// thresholdsOf overlays configured banding cutoffs on the defaults.
func thresholdsOf(cfg *config.Config) analysis.Thresholds {
	th := analysis.DefaultThresholds()
	for name, tc := range cfg.Thresholds {
		th[name] = analysis.BandSpec{
			Green:          tc.Green,
			Yellow:         tc.Yellow,
			HigherIsBetter: tc.HigherIsBetter,
		}
	}
	return th
}
