package schedule

import (
	"fmt"
	"strings"
)

// Raw is the loosely typed schedule shape as it arrives from the scheduling
// API (or from an edit form). Every field is optional at this level; Parse
// decides which combinations are legal.
type Raw struct {
	Frequency      string   `json:"frequency"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime,omitempty"`
	IntervalHours  int      `json:"intervalHours,omitempty"`
	WeekDays       []string `json:"weekDays,omitempty"`
	MonthDays      []string `json:"monthDays,omitempty"`
	Ordinal        string   `json:"ordinal,omitempty"`
	OrdinalWeekday string   `json:"ordinalWeekday,omitempty"`
}

// ValidationError reports the first invariant a raw schedule violates.
// It is always caller-recoverable: reject the record, keep processing
// its siblings.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, rule, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

var dailyIntervals = map[int]bool{2: true, 4: true, 6: true, 8: true, 12: true, 24: true}

// Parse turns a Raw into a validated Schedule. It is the single canonical
// implementer of every schedule invariant; the serializer and any boundary
// validation delegate here instead of re-encoding the rules.
func Parse(raw Raw) (Schedule, error) {
	start, verr := parseStart(raw.StartTime)
	if verr != nil {
		return nil, verr
	}

	switch Frequency(strings.TrimSpace(raw.Frequency)) {
	case FreqHourly:
		return parseHourly(raw, start)
	case FreqDaily:
		return parseDaily(raw, start)
	case FreqWeekly:
		return parseWeekly(raw, start)
	case FreqMonthly:
		return parseMonthly(raw, start)
	default:
		return nil, invalid("frequency", "oneOf", "unknown frequency %q", raw.Frequency)
	}
}

func parseStart(s string) (TimeOfDay, *ValidationError) {
	if strings.TrimSpace(s) == "" {
		return TimeOfDay{}, invalid("startTime", "required", "startTime is required")
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return TimeOfDay{}, invalid("startTime", "time", "startTime: %v", err)
	}
	return t, nil
}

func parseHourly(raw Raw, start TimeOfDay) (Schedule, error) {
	if raw.IntervalHours != 0 && raw.IntervalHours != 1 {
		return nil, invalid("intervalHours", "fixed", "Hourly requires intervalHours == 1, got %d", raw.IntervalHours)
	}
	if strings.TrimSpace(raw.EndTime) == "" {
		return nil, invalid("endTime", "required", "Hourly requires an endTime")
	}
	end, err := ParseTimeOfDay(raw.EndTime)
	if err != nil {
		return nil, invalid("endTime", "time", "endTime: %v", err)
	}
	if verr := rejectMonthlyFields(raw); verr != nil {
		return nil, verr
	}
	days, verr := parseWeekDays(raw.WeekDays)
	if verr != nil {
		return nil, verr
	}
	return Hourly{StartAt: start, EndAt: end, WeekDays: days}, nil
}

func parseDaily(raw Raw, start TimeOfDay) (Schedule, error) {
	if !dailyIntervals[raw.IntervalHours] {
		return nil, invalid("intervalHours", "oneOf", "Daily intervalHours must be one of 2,4,6,8,12,24, got %d", raw.IntervalHours)
	}
	var end *TimeOfDay
	hasEnd := strings.TrimSpace(raw.EndTime) != ""
	if raw.IntervalHours < 24 {
		if !hasEnd {
			return nil, invalid("endTime", "required", "Daily with intervalHours < 24 requires an endTime")
		}
	} else if hasEnd {
		return nil, invalid("endTime", "absent", "Daily with intervalHours == 24 must not carry an endTime")
	}
	if hasEnd {
		e, err := ParseTimeOfDay(raw.EndTime)
		if err != nil {
			return nil, invalid("endTime", "time", "endTime: %v", err)
		}
		if e.Minute != start.Minute {
			return nil, invalid("endTime", "minuteAligned", "Daily endTime minute must match startTime minute (%02d != %02d)", e.Minute, start.Minute)
		}
		end = &e
	}
	if verr := rejectMonthlyFields(raw); verr != nil {
		return nil, verr
	}
	days, verr := parseWeekDays(raw.WeekDays)
	if verr != nil {
		return nil, verr
	}
	return Daily{StartAt: start, EndAt: end, IntervalHours: raw.IntervalHours, WeekDays: days}, nil
}

func parseWeekly(raw Raw, start TimeOfDay) (Schedule, error) {
	if raw.IntervalHours != 0 {
		return nil, invalid("intervalHours", "absent", "Weekly carries no intervalHours")
	}
	if strings.TrimSpace(raw.EndTime) != "" {
		return nil, invalid("endTime", "absent", "Weekly carries no endTime")
	}
	if verr := rejectMonthlyFields(raw); verr != nil {
		return nil, verr
	}
	if len(raw.WeekDays) == 0 {
		return nil, invalid("weekDays", "required", "Weekly requires at least one weekday")
	}
	days, verr := parseWeekDays(raw.WeekDays)
	if verr != nil {
		return nil, verr
	}
	return Weekly{StartAt: start, WeekDays: days}, nil
}

func parseMonthly(raw Raw, start TimeOfDay) (Schedule, error) {
	if raw.IntervalHours != 0 {
		return nil, invalid("intervalHours", "absent", "Monthly carries no intervalHours")
	}
	if strings.TrimSpace(raw.EndTime) != "" {
		return nil, invalid("endTime", "absent", "Monthly carries no endTime")
	}
	if len(raw.WeekDays) != 0 {
		return nil, invalid("weekDays", "absent", "Monthly selects days via monthDays or ordinal, not weekDays")
	}

	hasDays := len(raw.MonthDays) != 0
	hasOrdinal := strings.TrimSpace(raw.Ordinal) != "" || strings.TrimSpace(raw.OrdinalWeekday) != ""
	switch {
	case hasDays && hasOrdinal:
		return nil, invalid("monthDays", "exclusive", "Monthly accepts either monthDays or an ordinal weekday, not both")
	case hasDays:
		days := make([]MonthDay, 0, len(raw.MonthDays))
		seen := map[MonthDay]bool{}
		for _, s := range raw.MonthDays {
			d, err := ParseMonthDay(s)
			if err != nil {
				return nil, invalid("monthDays", "monthDay", "%v", err)
			}
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
		return Monthly{StartAt: start, Mode: OnDays{Days: days}}, nil
	case hasOrdinal:
		ord, err := ParseOrdinal(raw.Ordinal)
		if err != nil {
			return nil, invalid("ordinal", "oneOf", "%v", err)
		}
		wd, err := ParseWeekday(raw.OrdinalWeekday)
		if err != nil {
			return nil, invalid("ordinalWeekday", "weekday", "%v", err)
		}
		return Monthly{StartAt: start, Mode: OnOrdinalWeekday{Ordinal: ord, Weekday: wd}}, nil
	default:
		return nil, invalid("monthDays", "required", "Monthly requires monthDays or an ordinal weekday")
	}
}

func parseWeekDays(names []string) ([]Weekday, *ValidationError) {
	if len(names) == 0 {
		return nil, nil
	}
	days := make([]Weekday, 0, len(names))
	seen := map[Weekday]bool{}
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, invalid("weekDays", "weekday", "%v", err)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	if len(days) > 7 {
		return nil, invalid("weekDays", "max", "at most 7 weekdays")
	}
	return days, nil
}

func rejectMonthlyFields(raw Raw) *ValidationError {
	if len(raw.MonthDays) != 0 {
		return invalid("monthDays", "absent", "%s carries no monthDays", raw.Frequency)
	}
	if strings.TrimSpace(raw.Ordinal) != "" || strings.TrimSpace(raw.OrdinalWeekday) != "" {
		return invalid("ordinal", "absent", "%s carries no ordinal weekday", raw.Frequency)
	}
	return nil
}
