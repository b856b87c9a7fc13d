package analysis

import "time"

// TaskDetail is the per-task row of an analysis, ready for drill-down views.
type TaskDetail struct {
	ID                  string    `json:"id"`
	Label               string    `json:"label"`
	ItemType            string    `json:"itemType"`
	Frequency           string    `json:"frequency"`
	RunHours            []int     `json:"runHours"`
	ActiveDays          []string  `json:"activeDays"`
	TaskDays            int       `json:"taskDays"`
	Priority            int       `json:"priority"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	NextRunAt           time.Time `json:"nextRunAt,omitzero"`
}

// Result bundles every view one analysis run produces.
type Result struct {
	GeneratedAt  time.Time          `json:"generatedAt"`
	Distribution HourlyDistribution `json:"hourlyDistribution"`
	Heatmap      []HeatmapCell      `json:"heatmap"`
	Calendar     MonthlyCalendar    `json:"monthlyCalendar"`
	Health       HealthMetrics      `json:"healthMetrics"`
	Tasks        []TaskDetail       `json:"taskDetails"`
	Skipped      int                `json:"skippedTasks"`
}

// Analyze runs the full pipeline over validated tasks for the given calendar
// month. It is pure; the caller stamps GeneratedAt.
func Analyze(tasks []Task, year int, month time.Month, th Thresholds) Result {
	dist := BuildHourlyDistribution(tasks)

	details := make([]TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		days := make([]string, 0, len(t.ActiveDays))
		for _, d := range t.ActiveDays {
			days = append(days, d.String())
		}
		details = append(details, TaskDetail{
			ID:                  t.ID,
			Label:               t.Label(),
			ItemType:            t.ItemType,
			Frequency:           string(t.Schedule.Frequency()),
			RunHours:            t.RunHours,
			ActiveDays:          days,
			TaskDays:            TaskDays(t.Schedule),
			Priority:            t.Priority,
			ConsecutiveFailures: t.ConsecutiveFailures,
			NextRunAt:           t.NextRunAt,
		})
	}

	return Result{
		Distribution: dist,
		Heatmap:      BuildHeatmap(tasks).Cells(),
		Calendar:     BuildMonthlyCalendar(tasks, year, month),
		Health:       ComputeHealth(dist, th),
		Tasks:        details,
	}
}
