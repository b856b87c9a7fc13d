// Package biclient talks to the remote scheduling API: it owns the auth
// token lifecycle, paginates the extract-refresh task listing, and pushes
// committed schedule edits. All calls are context-bound and rate-limited;
// the analysis core never sees this package.
package biclient

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"schedscope/internal/analysis"
	"schedscope/internal/tsxml"
	"schedscope/pkg/logx"
)

var ErrNotSignedIn = errors.New("biclient: not signed in")

type Config struct {
	BaseURL    string
	Username   string
	Password   string
	Site       string
	PageSize   int
	RatePerSec float64
	Timeout    time.Duration
}

type Client struct {
	cfg     Config
	log     logx.Logger
	http    *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	token string
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("biclient: base URL is empty")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:     cfg,
		log:     log,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), int(cfg.RatePerSec)+1),
	}, nil
}

// SignIn acquires a session token.
func (c *Client) SignIn(ctx context.Context) error {
	req := tsxml.SigninRequest{
		Credentials: tsxml.Credentials{
			Name:     c.cfg.Username,
			Password: c.cfg.Password,
			Site:     &tsxml.Site{ContentURL: c.cfg.Site},
		},
	}
	var resp tsxml.SigninResponse
	if err := c.roundTrip(ctx, http.MethodPost, "/api/auth/signin", req, &resp, false); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if resp.Credentials.Token == "" {
		return errors.New("sign in: empty token in response")
	}
	c.mu.Lock()
	c.token = resp.Credentials.Token
	c.mu.Unlock()
	c.log.Debug("signed in", logx.String("site", c.cfg.Site))
	return nil
}

// SignOut invalidates the session token; errors are not fatal.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()
	if token == "" {
		return nil
	}
	return c.roundTrip(ctx, http.MethodPost, "/api/auth/signout", nil, nil, false)
}

// FetchTasks lists every recurring extract-refresh task, following
// pagination until a short page.
func (c *Client) FetchTasks(ctx context.Context) ([]analysis.RawTask, error) {
	var out []analysis.RawTask
	for page := 1; ; page++ {
		path := fmt.Sprintf("/api/tasks/extract-refreshes?pageSize=%d&pageNumber=%d", c.cfg.PageSize, page)
		var resp tsxml.TaskListResponse
		if err := c.roundTrip(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
			return nil, fmt.Errorf("list tasks page %d: %w", page, err)
		}
		for _, item := range resp.Tasks {
			out = append(out, rawTaskOf(item))
		}
		if len(resp.Tasks) < c.cfg.PageSize {
			return out, nil
		}
	}
}

// UpdateSchedule pushes a committed schedule edit for one task.
func (c *Client) UpdateSchedule(ctx context.Context, taskID string, doc *tsxml.Document) error {
	if strings.TrimSpace(taskID) == "" {
		return errors.New("task id is empty")
	}
	req := tsxml.UpdateScheduleRequest{Schedule: doc}
	path := "/api/tasks/" + taskID + "/schedule"
	if err := c.roundTrip(ctx, http.MethodPut, path, req, nil, true); err != nil {
		return fmt.Errorf("update schedule for %s: %w", taskID, err)
	}
	return nil
}

func rawTaskOf(item tsxml.TaskItem) analysis.RawTask {
	raw := analysis.RawTask{
		ID:                  item.ID,
		ItemID:              item.Item.ID,
		ItemType:            item.Item.Type,
		Schedule:            tsxml.RawSchedule(&item.Schedule),
		ConsecutiveFailures: item.ConsecutiveFailedCount,
		Priority:            item.Priority,
	}
	if item.NextRunAt != "" {
		if ts, err := time.Parse(time.RFC3339, item.NextRunAt); err == nil {
			raw.NextRunAt = ts
		}
	}
	return raw
}

// roundTrip performs one rate-limited API call. Token-bearing calls sign in
// lazily on first use and re-authenticate once on a 401.
func (c *Client) roundTrip(ctx context.Context, method, path string, body, into any, authed bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	status, err := c.send(ctx, method, path, body, into, authed)
	if errors.Is(err, ErrNotSignedIn) {
		if err := c.SignIn(ctx); err != nil {
			return err
		}
		status, err = c.send(ctx, method, path, body, into, authed)
	}
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && authed {
		c.log.Debug("session expired; re-authenticating")
		if err := c.SignIn(ctx); err != nil {
			return err
		}
		status, err = c.send(ctx, method, path, body, into, authed)
		if err != nil {
			return err
		}
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, status)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body, into any, authed bool) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := xml.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")
	if authed {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token == "" {
			return 0, ErrNotSignedIn
		}
		req.Header.Set("X-Auth-Token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode >= 400 {
		var apiErr tsxml.ErrorResponse
		if xml.Unmarshal(data, &apiErr) == nil && apiErr.Error.Summary != "" {
			if resp.StatusCode == http.StatusUnauthorized {
				// let the caller retry with a fresh token
				return resp.StatusCode, nil
			}
			return resp.StatusCode, fmt.Errorf("%s %s: api error %s: %s", method, path, apiErr.Error.Code, apiErr.Error.Summary)
		}
		return resp.StatusCode, nil
	}

	if into != nil && len(data) > 0 {
		if err := xml.Unmarshal(data, into); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
