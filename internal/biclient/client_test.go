package biclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"schedscope/internal/schedule"
	"schedscope/internal/tsxml"
	"schedscope/pkg/logx"
)

const signinBody = `<tsResponse><credentials token="tok-1"/></tsResponse>`

func taskPage(ids []string, pageNumber int) string {
	tasks := ""
	for _, id := range ids {
		tasks += fmt.Sprintf(`
<task id=%q priority="50" consecutiveFailedCount="1" nextRunAt="2024-07-08T08:00:00Z">
  <item id="wb-%s" type="workbook"/>
  <schedule frequency="Daily">
    <frequencyDetails start="08:00:00">
      <intervals>
        <interval hours="24"/>
      </intervals>
    </frequencyDetails>
  </schedule>
</task>`, id, id)
	}
	return fmt.Sprintf(`<tsResponse><pagination pageNumber="%d" pageSize="2" totalAvailable="3"/><tasks>%s</tasks></tsResponse>`, pageNumber, tasks)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		BaseURL:  srv.URL,
		Username: "analyst",
		Password: "secret",
		PageSize: 2,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestFetchTasksPaginates(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, signinBody)
	})
	mux.HandleFunc("GET /api/tasks/extract-refreshes", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("pageNumber") {
		case "1":
			fmt.Fprint(w, taskPage([]string{"t1", "t2"}, 1))
		default:
			fmt.Fprint(w, taskPage([]string{"t3"}, 2))
		}
	})

	// No explicit SignIn: the first token-bearing call signs in lazily.
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	tasks, err := c.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks across pages, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != "t1" || got.ItemID != "wb-t1" || got.ItemType != "workbook" {
		t.Fatalf("unexpected task identity: %+v", got)
	}
	if got.ConsecutiveFailures != 1 || got.Priority != 50 {
		t.Fatalf("unexpected task metadata: %+v", got)
	}
	if got.NextRunAt.IsZero() {
		t.Fatal("nextRunAt should have parsed")
	}

	s, err := schedule.Parse(got.Schedule)
	if err != nil {
		t.Fatalf("fetched schedule should validate: %v", err)
	}
	if s.Frequency() != schedule.FreqDaily {
		t.Fatalf("Frequency = %s, want Daily", s.Frequency())
	}
}

func TestFetchTasksReauthenticatesOn401(t *testing.T) {
	t.Parallel()
	var signins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		signins.Add(1)
		fmt.Fprint(w, signinBody)
	})
	var calls atomic.Int32
	mux.HandleFunc("GET /api/tasks/extract-refreshes", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, taskPage([]string{"t1"}, 1))
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()
	if err := c.SignIn(ctx); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := c.FetchTasks(ctx); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if signins.Load() != 2 {
		t.Fatalf("expected a re-auth, got %d signins", signins.Load())
	}
}

func TestFetchTasksFailsWhenSignInFails(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.NewServeMux())
	if _, err := c.FetchTasks(context.Background()); err == nil {
		t.Fatal("expected error when sign in is unavailable")
	}
}

func TestUpdateSchedulePutsDocument(t *testing.T) {
	t.Parallel()
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, signinBody)
	})
	mux.HandleFunc("PUT /api/tasks/t1/schedule", func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()
	if err := c.SignIn(ctx); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	doc, err := tsxml.Serialize(schedule.Weekly{
		StartAt:  schedule.TimeOfDay{Hour: 6, Minute: 0},
		WeekDays: []schedule.Weekday{schedule.Saturday},
	})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := c.UpdateSchedule(ctx, "t1", doc); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	body := string(gotBody)
	if !strings.Contains(body, "<tsRequest>") || !strings.Contains(body, `weekDay="Saturday"`) {
		t.Fatalf("unexpected request body: %s", body)
	}
}
