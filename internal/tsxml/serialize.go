package tsxml

import (
	"strconv"

	"schedscope/internal/schedule"
)

// Serialize renders a Schedule into its wire document. It re-validates the
// value through schedule.Parse first (defense in depth against hand-built
// Schedule values) and returns the *schedule.ValidationError unchanged when
// the value would not have parsed.
func Serialize(s schedule.Schedule) (*Document, error) {
	if _, err := schedule.Parse(schedule.ToRaw(s)); err != nil {
		return nil, err
	}

	doc := &Document{
		Frequency: string(s.Frequency()),
		Details:   Details{Start: wireTime(s.Start())},
	}

	switch v := s.(type) {
	case schedule.Hourly:
		doc.Details.End = wireTime(v.EndAt)
		doc.Details.Intervals = append(doc.Details.Intervals, Interval{Hours: "1"})
		appendWeekDays(doc, schedule.EffectiveWeekDays(v))
	case schedule.Daily:
		if v.EndAt != nil {
			doc.Details.End = wireTime(*v.EndAt)
		}
		doc.Details.Intervals = append(doc.Details.Intervals, Interval{Hours: strconv.Itoa(v.IntervalHours)})
		appendWeekDays(doc, schedule.EffectiveWeekDays(v))
	case schedule.Weekly:
		appendWeekDays(doc, schedule.EffectiveWeekDays(v))
	case schedule.Monthly:
		switch mode := v.Mode.(type) {
		case schedule.OnDays:
			for _, d := range mode.Days {
				doc.Details.Intervals = append(doc.Details.Intervals, Interval{MonthDay: d.String()})
			}
		case schedule.OnOrdinalWeekday:
			doc.Details.Intervals = append(doc.Details.Intervals, Interval{
				MonthDay: mode.Ordinal.String(),
				WeekDay:  mode.Weekday.String(),
			})
		}
	}
	return doc, nil
}

// appendWeekDays expands the effective day set into explicit elements; the
// API requires elements, not absence, to mean "all days".
func appendWeekDays(doc *Document, days []schedule.Weekday) {
	for _, d := range days {
		doc.Details.Intervals = append(doc.Details.Intervals, Interval{WeekDay: d.String()})
	}
}
