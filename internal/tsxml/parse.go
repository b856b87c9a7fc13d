package tsxml

import (
	"strconv"
	"strings"

	"schedscope/internal/schedule"
)

// RawSchedule maps a wire document onto the loose Raw shape. It makes no
// legality decisions; those belong to schedule.Parse.
func RawSchedule(doc *Document) schedule.Raw {
	raw := schedule.Raw{
		Frequency: doc.Frequency,
		StartTime: doc.Details.Start,
		EndTime:   doc.Details.End,
	}

	monthly := schedule.Frequency(doc.Frequency) == schedule.FreqMonthly
	for _, iv := range doc.Details.Intervals {
		switch {
		case iv.Hours != "":
			if n, err := strconv.Atoi(strings.TrimSpace(iv.Hours)); err == nil {
				raw.IntervalHours = n
			} else {
				raw.IntervalHours = -1 // force a validation failure downstream
			}
		case monthly && iv.MonthDay != "" && iv.WeekDay != "":
			// The ordinal token travels in the monthDay slot.
			raw.Ordinal = iv.MonthDay
			raw.OrdinalWeekday = iv.WeekDay
		case monthly && iv.MonthDay != "":
			raw.MonthDays = append(raw.MonthDays, iv.MonthDay)
		case iv.WeekDay != "":
			raw.WeekDays = append(raw.WeekDays, iv.WeekDay)
		}
	}
	return raw
}

// ParseSchedule turns a wire document into a validated Schedule,
// delegating every invariant to schedule.Parse.
func ParseSchedule(doc *Document) (schedule.Schedule, error) {
	return schedule.Parse(RawSchedule(doc))
}
