package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"schedscope/internal/analysis"
	"schedscope/internal/observability"
	"schedscope/internal/schedule"
	"schedscope/pkg/logx"
)

func (s *Service) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.provider.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no analysis yet")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	res, ok := s.provider.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no analysis yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generatedAt": res.GeneratedAt,
		"heatmap":     res.Heatmap,
	})
}

func (s *Service) handleCalendar(w http.ResponseWriter, r *http.Request) {
	tasks, ok := s.provider.LatestTasks()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no analysis yet")
		return
	}
	res, _ := s.provider.Latest()

	year, month := res.GeneratedAt.Year(), res.GeneratedAt.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 9999 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(n)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"month":    int(month),
		"calendar": analysis.BuildMonthlyCalendar(tasks, year, month),
	})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}
	snaps, err := s.provider.History(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

// simulateRequest carries proposed schedule replacements keyed by task id.
type simulateRequest struct {
	Edits []simulateEdit `json:"edits"`
}

type simulateEdit struct {
	TaskID   string       `json:"taskId"`
	Schedule schedule.Raw `json:"schedule"`
}

func (s *Service) handleSimulate(w http.ResponseWriter, r *http.Request) {
	tasks, ok := s.provider.LatestTasks()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no analysis yet")
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Edits) == 0 {
		writeError(w, http.StatusBadRequest, "no edits supplied")
		return
	}

	byID := make(map[string]analysis.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	edits := make([]analysis.Edit, 0, len(req.Edits))
	for _, e := range req.Edits {
		t, ok := byID[e.TaskID]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown task: "+e.TaskID)
			return
		}
		proposed, err := schedule.Parse(e.Schedule)
		if err != nil {
			writeValidationError(w, e.TaskID, err)
			return
		}
		edits = append(edits, analysis.EditFor(t, proposed))
	}

	res, _ := s.provider.Latest()
	preview := analysis.Simulate(res.Distribution, edits, s.provider.Thresholds())
	writeJSON(w, http.StatusOK, preview)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.RunOnce(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	res, _ := s.provider.Latest()
	writeJSON(w, http.StatusOK, map[string]any{"generatedAt": res.GeneratedAt})
}

// commitRequest is the write-path body: the full replacement schedule.
type commitRequest struct {
	Schedule schedule.Raw `json:"schedule"`
}

func (s *Service) handleCommit(w http.ResponseWriter, r *http.Request) {
	if s.commit == nil {
		writeError(w, http.StatusNotImplemented, "schedule commits are disabled")
		return
	}
	taskID := r.PathValue("id")

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validation happens before anything is written remotely.
	parsed, err := schedule.Parse(req.Schedule)
	if err != nil {
		observability.ScheduleCommits.WithLabelValues("rejected").Inc()
		writeValidationError(w, taskID, err)
		return
	}

	if err := s.commit(r.Context(), taskID, parsed); err != nil {
		observability.ScheduleCommits.WithLabelValues("remote_error").Inc()
		s.log.Error("schedule commit failed", logx.String("task", taskID), logx.Err(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	observability.ScheduleCommits.WithLabelValues("ok").Inc()
	s.log.Info("schedule committed", logx.String("task", taskID))
	writeJSON(w, http.StatusOK, map[string]any{"taskId": taskID, "status": "committed"})
}

func (s *Service) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, taskID string, err error) {
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid schedule",
			"taskId": taskID,
			"field":  verr.Field,
			"rule":   verr.Rule,
			"detail": verr.Message,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
