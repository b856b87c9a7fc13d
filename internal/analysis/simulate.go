package analysis

import "schedscope/internal/schedule"

// monthlyTaskDaysApprox is the fixed weekly weight used for Monthly
// schedules in the fast-path simulator. Exact per-date counting is only
// available through the monthly calendar; the preview deliberately keeps
// this documented approximation so simulated numbers stay stable.
const monthlyTaskDaysApprox = 4

// TaskDays is the weekly occurrence weight of a schedule: the number of
// weekdays it is active on.
func TaskDays(s schedule.Schedule) int {
	if _, ok := s.(schedule.Monthly); ok {
		return monthlyTaskDaysApprox
	}
	if days := schedule.WeekDaysOf(s); len(days) > 0 {
		return len(days)
	}
	return 7
}

// Edit is one proposed schedule change: the task's current occurrence
// footprint and the proposed one.
type Edit struct {
	TaskID    string
	OldHours  []int
	OldWeight int
	NewHours  []int
	NewWeight int
}

// EditFor builds an Edit from a task's current schedule and a validated
// replacement.
func EditFor(t Task, proposed schedule.Schedule) Edit {
	return Edit{
		TaskID:    t.ID,
		OldHours:  t.RunHours,
		OldWeight: TaskDays(t.Schedule),
		NewHours:  schedule.RunHours(proposed),
		NewWeight: TaskDays(proposed),
	}
}

// MetricDeltas are proposed minus current, per metric. The sign convention
// follows each metric's own direction: LoadBalance and Utilization positive
// means better, BusiestPct and PeakAvgRatio negative means better.
type MetricDeltas struct {
	LoadBalance  float64 `json:"loadBalanceScore"`
	BusiestPct   float64 `json:"busiestWindowPct"`
	Utilization  float64 `json:"utilization"`
	PeakAvgRatio float64 `json:"peakAvgRatio"`
}

// ImpactPreview is the before/after view of a simulated batch of edits.
type ImpactPreview struct {
	Current         HourlyDistribution `json:"currentDistribution"`
	Proposed        HourlyDistribution `json:"proposedDistribution"`
	CurrentMetrics  HealthMetrics      `json:"currentMetrics"`
	ProposedMetrics HealthMetrics      `json:"proposedMetrics"`
	Deltas          MetricDeltas       `json:"deltas"`
}

// Simulate applies a batch of edits to a baseline distribution and
// recomputes the health KPIs on both sides. Subtraction clamps at zero;
// addition and subtraction commute, so the result is independent of edit
// order.
func Simulate(baseline HourlyDistribution, edits []Edit, th Thresholds) ImpactPreview {
	proposed := baseline
	for _, e := range edits {
		for _, h := range e.OldHours {
			proposed[h] -= e.OldWeight
			if proposed[h] < 0 {
				proposed[h] = 0
			}
		}
		for _, h := range e.NewHours {
			proposed[h] += e.NewWeight
		}
	}

	cur := ComputeHealth(baseline, th)
	next := ComputeHealth(proposed, th)

	return ImpactPreview{
		Current:         baseline,
		Proposed:        proposed,
		CurrentMetrics:  cur,
		ProposedMetrics: next,
		Deltas: MetricDeltas{
			LoadBalance:  next.LoadBalance.Value - cur.LoadBalance.Value,
			BusiestPct:   next.Busiest.Pct - cur.Busiest.Pct,
			Utilization:  next.Utilization.Value - cur.Utilization.Value,
			PeakAvgRatio: next.PeakAvgRatio.Value - cur.PeakAvgRatio.Value,
		},
	}
}
