package analysis

import (
	"fmt"
	"time"

	"schedscope/internal/schedule"
)

// HourlyDistribution counts weekly firing slots per hour of day. A slot is
// one (weekday, hour) pair: a task active on 5 weekdays at 2 distinct hours
// contributes 10, not 2.
type HourlyDistribution [24]int

// Total sums all slots.
func (d HourlyDistribution) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Heatmap is the same slot count keyed two-dimensionally, Monday-first.
type Heatmap [7][24]int

// HeatmapCell is one grid entry for presentation.
type HeatmapCell struct {
	Day   schedule.Weekday `json:"day"`
	Hour  int              `json:"hour"`
	Count int              `json:"count"`
}

// MonthlyCalendar maps ISO dates of one month to firing counts.
type MonthlyCalendar map[string]int

// BuildHourlyDistribution accumulates firing slots per hour. Purely
// additive, so the result does not depend on task order.
func BuildHourlyDistribution(tasks []Task) HourlyDistribution {
	var dist HourlyDistribution
	for _, t := range tasks {
		for range t.ActiveDays {
			for _, h := range t.RunHours {
				dist[h]++
			}
		}
	}
	return dist
}

// BuildHeatmap accumulates the same slots keyed by (weekday, hour).
func BuildHeatmap(tasks []Task) Heatmap {
	var hm Heatmap
	for _, t := range tasks {
		for _, d := range t.ActiveDays {
			for _, h := range t.RunHours {
				hm[d][h]++
			}
		}
	}
	return hm
}

// Cells flattens the grid for presentation, row-major Monday-first.
func (hm Heatmap) Cells() []HeatmapCell {
	cells := make([]HeatmapCell, 0, 7*24)
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			cells = append(cells, HeatmapCell{Day: schedule.Weekday(d), Hour: h, Count: hm[d][h]})
		}
	}
	return cells
}

// BuildMonthlyCalendar asks the single firing-date predicate for every day
// of the month; a firing task adds one count per run hour.
func BuildMonthlyCalendar(tasks []Task, year int, month time.Month) MonthlyCalendar {
	cal := make(MonthlyCalendar)
	last := schedule.DaysInMonth(year, month)
	for day := 1; day <= last; day++ {
		key := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		n := 0
		for _, t := range tasks {
			if schedule.FiresOn(t.Schedule, date) {
				n += len(t.RunHours)
			}
		}
		cal[key] = n
	}
	return cal
}
