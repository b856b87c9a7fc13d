// Package analysis turns a set of refresh tasks into load-distribution views
// (hourly histogram, weekly heatmap, monthly calendar), banded health KPIs,
// and simulated previews of proposed schedule edits.
//
// Everything here is pure: inputs are immutable values, outputs are freshly
// allocated, and all functions are safe for concurrent use. Results are
// invariant under reordering of the input task or edit lists.
package analysis

import (
	"errors"
	"strings"
	"time"

	"schedscope/internal/schedule"
)

// RawTask is one task record as supplied by the fetch collaborator.
type RawTask struct {
	ID                  string
	ItemID              string
	ItemType            string
	Schedule            schedule.Raw
	ConsecutiveFailures int
	Priority            int
	NextRunAt           time.Time
}

// Task is a validated refresh task with its occurrence expansion cached on
// construction.
type Task struct {
	ID                  string
	ItemID              string
	ItemType            string
	Schedule            schedule.Schedule
	ConsecutiveFailures int
	Priority            int
	NextRunAt           time.Time

	// Derived once from the occurrence engine.
	RunHours   []int
	ActiveDays []schedule.Weekday
}

// TaskError pairs a rejected record with its validation error.
type TaskError struct {
	TaskID string
	Err    *schedule.ValidationError
}

// ParseReport is the outcome of validating a batch of raw records. A record
// with a missing or unparseable start time is skipped (counted, not
// reported); any other invalid record lands in Errors. Neither case aborts
// processing of sibling records.
type ParseReport struct {
	Tasks   []Task
	Skipped int
	Errors  []TaskError
}

// BuildTasks validates raw records and caches each task's occurrence data.
func BuildTasks(raws []RawTask) ParseReport {
	var rep ParseReport
	for _, r := range raws {
		s, err := schedule.Parse(r.Schedule)
		if err != nil {
			var verr *schedule.ValidationError
			if errors.As(err, &verr) && verr.Field == "startTime" {
				// Matches upstream behavior: bad start times are dropped
				// from every aggregate rather than surfaced as errors.
				rep.Skipped++
				continue
			}
			if verr == nil {
				verr = &schedule.ValidationError{Field: "schedule", Rule: "parse", Message: err.Error()}
			}
			rep.Errors = append(rep.Errors, TaskError{TaskID: r.ID, Err: verr})
			continue
		}
		rep.Tasks = append(rep.Tasks, Task{
			ID:                  r.ID,
			ItemID:              r.ItemID,
			ItemType:            r.ItemType,
			Schedule:            s,
			ConsecutiveFailures: r.ConsecutiveFailures,
			Priority:            r.Priority,
			NextRunAt:           r.NextRunAt,
			RunHours:            schedule.RunHours(s),
			ActiveDays:          schedule.EffectiveWeekDays(s),
		})
	}
	return rep
}

// Label is a short human identifier for drill-down views.
func (t Task) Label() string {
	if strings.TrimSpace(t.ItemID) == "" {
		return t.ID
	}
	return t.ItemType + "/" + t.ItemID
}
