// Package notifier delivers band-transition alerts to a Telegram chat. It is
// an async pipeline (small queue, one worker, token-bucket rate limit) with a
// per-message cooldown so a flapping metric cannot spam the channel.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"schedscope/internal/analysis"
	"schedscope/internal/observability"
	"schedscope/pkg/logx"
)

var ErrDisabled = errors.New("notifier disabled")

// Sender posts one message. Satisfied by the Telegram transport; tests
// substitute their own.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type Config struct {
	Enabled    bool
	Token      string
	ChatID     int64
	MinLevel   string // lowest band that alerts: "yellow" or "red"
	RatePerSec float64
	Cooldown   time.Duration
	QueueSize  int
}

type Service struct {
	cfg     Config
	log     logx.Logger
	sender  Sender
	limiter *rate.Limiter

	mu     sync.Mutex
	queue  chan alertJob
	stopWG sync.WaitGroup
	cancel context.CancelFunc

	cmu      sync.Mutex
	cooldown map[string]time.Time
}

type alertJob struct {
	band analysis.Band
	text string
}

// New builds the notifier; when enabled it connects the Telegram transport.
func New(cfg Config, log logx.Logger) (*Service, error) {
	s := newService(cfg, log, nil)
	if !cfg.Enabled {
		return s, nil
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notifier: telegram token is empty")
	}
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	s.sender = &telegramSender{bot: bot, chatID: cfg.ChatID}
	return s, nil
}

// NewWithSender wires a custom transport.
func NewWithSender(cfg Config, sender Sender, log logx.Logger) *Service {
	return newService(cfg, log, sender)
}

func newService(cfg Config, log logx.Logger, sender Sender) *Service {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MinLevel == "" {
		cfg.MinLevel = string(analysis.BandYellow)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:      cfg,
		log:      log,
		sender:   sender,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		cooldown: map[string]time.Time{},
	}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil || !s.cfg.Enabled || s.sender == nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue = make(chan alertJob, s.cfg.QueueSize)
	s.stopWG.Add(1)
	go s.worker(runCtx, s.queue)
	s.log.Info("notifier started", logx.Int64("chat", s.cfg.ChatID))
}

// Stop ends intake and waits for in-flight sends up to ctx's deadline.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	q := s.queue
	cancel := s.cancel
	s.queue = nil
	s.cancel = nil
	s.mu.Unlock()
	if q == nil {
		return
	}
	close(q)

	done := make(chan struct{})
	go func() {
		s.stopWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if cancel != nil {
		cancel()
	}
	s.log.Info("notifier stopped")
}

// Alert enqueues one notification. It never blocks: a full queue drops the
// message with a warning.
func (s *Service) Alert(band analysis.Band, text string) {
	if !s.levelAllows(band) {
		return
	}
	if s.cfg.Cooldown > 0 && !s.cooldownAllow(band, text) {
		s.log.Debug("alert suppressed by cooldown", logx.String("band", string(band)))
		return
	}

	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return
	}
	select {
	case q <- alertJob{band: band, text: text}:
	default:
		s.log.Warn("alert queue full, dropping", logx.String("band", string(band)))
	}
}

func (s *Service) worker(ctx context.Context, q <-chan alertJob) {
	defer s.stopWG.Done()
	for j := range q {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := s.sender.Send(callCtx, prefixFor(j.band)+j.text)
		cancel()
		if err != nil {
			s.log.Warn("alert send failed", logx.String("band", string(j.band)), logx.Err(err))
			continue
		}
		observability.AlertsSent.WithLabelValues(string(j.band)).Inc()
	}
}

func (s *Service) levelAllows(band analysis.Band) bool {
	min := analysis.Band(s.cfg.MinLevel)
	return bandRank(band) >= bandRank(min)
}

func (s *Service) cooldownAllow(band analysis.Band, text string) bool {
	h := fnv.New64a()
	_, _ = h.Write([]byte(band))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(text))
	key := fmt.Sprintf("%x", h.Sum64())

	now := time.Now()
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if until, ok := s.cooldown[key]; ok && now.Before(until) {
		return false
	}
	for k, until := range s.cooldown {
		if !now.Before(until) {
			delete(s.cooldown, k)
		}
	}
	s.cooldown[key] = now.Add(s.cfg.Cooldown)
	return true
}

func bandRank(b analysis.Band) int {
	switch b {
	case analysis.BandRed:
		return 2
	case analysis.BandYellow:
		return 1
	default:
		return 0
	}
}

func prefixFor(b analysis.Band) string {
	switch b {
	case analysis.BandRed:
		return "🚨 "
	case analysis.BandYellow:
		return "⚠️ "
	default:
		return "✅ "
	}
}

type telegramSender struct {
	bot    *tele.Bot
	chatID int64
}

func (t *telegramSender) Send(ctx context.Context, text string) error {
	_, err := t.bot.Send(&tele.Chat{ID: t.chatID}, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}
