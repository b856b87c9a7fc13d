package schedule

// ToRaw maps a Schedule back to its loose wire shape. Round-tripping through
// Parse(ToRaw(s)) is how the serializer re-checks invariants without
// re-encoding them.
func ToRaw(s Schedule) Raw {
	raw := Raw{
		Frequency: string(s.Frequency()),
		StartTime: s.Start().String(),
	}
	switch v := s.(type) {
	case Hourly:
		raw.EndTime = v.EndAt.String()
		raw.IntervalHours = 1
		raw.WeekDays = weekdayNamesOf(v.WeekDays)
	case Daily:
		raw.IntervalHours = v.IntervalHours
		if v.EndAt != nil {
			raw.EndTime = v.EndAt.String()
		}
		raw.WeekDays = weekdayNamesOf(v.WeekDays)
	case Weekly:
		raw.WeekDays = weekdayNamesOf(v.WeekDays)
	case Monthly:
		switch mode := v.Mode.(type) {
		case OnDays:
			for _, d := range mode.Days {
				raw.MonthDays = append(raw.MonthDays, d.String())
			}
		case OnOrdinalWeekday:
			raw.Ordinal = mode.Ordinal.String()
			raw.OrdinalWeekday = mode.Weekday.String()
		}
	}
	return raw
}

func weekdayNamesOf(days []Weekday) []string {
	if len(days) == 0 {
		return nil
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return names
}
