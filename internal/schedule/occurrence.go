package schedule

import (
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// RunHours expands a schedule into the set of hours-of-day it fires at,
// ascending. For windowed schedules (Hourly, Daily with a sub-day interval)
// it walks the start..end window in interval steps, wrapping past midnight
// when the window ends on the next day; every other schedule fires once, at
// its start hour.
func RunHours(s Schedule) []int {
	switch v := s.(type) {
	case Hourly:
		return walkWindow(v.StartAt, v.EndAt, 1)
	case Daily:
		if v.EndAt != nil && v.IntervalHours < 24 {
			return walkWindow(v.StartAt, *v.EndAt, v.IntervalHours)
		}
		return []int{v.StartAt.Hour}
	default:
		return []int{s.Start().Hour}
	}
}

func walkWindow(start, end TimeOfDay, intervalHours int) []int {
	span := end.Minutes() - start.Minutes()
	if span < 0 {
		span += minutesPerDay // window wraps past midnight
	}
	step := intervalHours * 60

	seen := map[int]bool{}
	var hours []int
	for m := 0; m <= span; m += step {
		h := ((start.Minutes() + m) / 60) % 24
		if !seen[h] {
			seen[h] = true
			hours = append(hours, h)
		}
	}
	sort.Ints(hours)
	return hours
}

// EffectiveWeekDays resolves the weekday selection of a schedule: an empty
// selection means all seven days. Monthly schedules are considered active on
// all weekdays here; their actual firing days come from FiresOn.
func EffectiveWeekDays(s Schedule) []Weekday {
	if days := WeekDaysOf(s); len(days) > 0 {
		out := append([]Weekday(nil), days...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	return AllWeekdays()
}

// FiresOn reports whether the schedule fires on the given calendar date.
// This is the single firing-date predicate; calendar aggregation, drill-down
// filtering and simulation all go through it.
func FiresOn(s Schedule, date time.Time) bool {
	switch v := s.(type) {
	case Monthly:
		return monthlyFiresOn(v, date)
	default:
		wd := WeekdayOf(date)
		for _, d := range EffectiveWeekDays(s) {
			if d == wd {
				return true
			}
		}
		return false
	}
}

func monthlyFiresOn(s Monthly, date time.Time) bool {
	switch mode := s.Mode.(type) {
	case OnDays:
		last := DaysInMonth(date.Year(), date.Month())
		for _, d := range mode.Days {
			if d == LastDay {
				if date.Day() == last {
					return true
				}
				continue
			}
			if int(d) == date.Day() {
				return true
			}
		}
		return false
	case OnOrdinalWeekday:
		if WeekdayOf(date) != mode.Weekday {
			return false
		}
		if mode.Ordinal == Last {
			// Last occurrence iff no further one of this weekday fits in
			// the month. Works for both 4- and 5-occurrence months.
			return date.Day()+7 > DaysInMonth(date.Year(), date.Month())
		}
		occurrence := ((date.Day() - 1) / 7) + 1
		return occurrence == int(mode.Ordinal)
	default:
		return false
	}
}

// DaysInMonth is leap-year aware.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
