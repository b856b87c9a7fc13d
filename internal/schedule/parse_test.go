package schedule

import (
	"errors"
	"testing"
)

func TestParseAcceptsLegalShapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  Raw
		want Frequency
	}{
		{
			name: "hourly window",
			raw:  Raw{Frequency: "Hourly", StartTime: "07:00", EndTime: "10:00"},
			want: FreqHourly,
		},
		{
			name: "hourly explicit interval 1",
			raw:  Raw{Frequency: "Hourly", StartTime: "07:00", EndTime: "10:00", IntervalHours: 1, WeekDays: []string{"Monday", "Friday"}},
			want: FreqHourly,
		},
		{
			name: "daily sub-day interval",
			raw:  Raw{Frequency: "Daily", StartTime: "08:30", EndTime: "20:30", IntervalHours: 4},
			want: FreqDaily,
		},
		{
			name: "daily once per day without end",
			raw:  Raw{Frequency: "Daily", StartTime: "08:00", IntervalHours: 24},
			want: FreqDaily,
		},
		{
			name: "weekly",
			raw:  Raw{Frequency: "Weekly", StartTime: "06:15", WeekDays: []string{"Saturday", "Sunday"}},
			want: FreqWeekly,
		},
		{
			name: "monthly on days with LastDay",
			raw:  Raw{Frequency: "Monthly", StartTime: "23:00", MonthDays: []string{"1", "15", "LastDay"}},
			want: FreqMonthly,
		},
		{
			name: "monthly ordinal weekday",
			raw:  Raw{Frequency: "Monthly", StartTime: "11:05", Ordinal: "Second", OrdinalWeekday: "Monday"},
			want: FreqMonthly,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if s.Frequency() != tt.want {
				t.Fatalf("Frequency = %s, want %s", s.Frequency(), tt.want)
			}
		})
	}
}

func TestParseRejectsIllegalShapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		raw   Raw
		field string
	}{
		{"hourly with interval 2", Raw{Frequency: "Hourly", StartTime: "07:00", EndTime: "10:00", IntervalHours: 2}, "intervalHours"},
		{"hourly without end", Raw{Frequency: "Hourly", StartTime: "07:00"}, "endTime"},
		{"daily bad interval", Raw{Frequency: "Daily", StartTime: "08:00", EndTime: "20:00", IntervalHours: 3}, "intervalHours"},
		{"daily sub-day without end", Raw{Frequency: "Daily", StartTime: "08:00", IntervalHours: 4}, "endTime"},
		{"daily 24h with end", Raw{Frequency: "Daily", StartTime: "08:00", EndTime: "20:00", IntervalHours: 24}, "endTime"},
		{"daily minute mismatch", Raw{Frequency: "Daily", StartTime: "08:30", EndTime: "20:00", IntervalHours: 4}, "endTime"},
		{"weekly without weekdays", Raw{Frequency: "Weekly", StartTime: "06:00"}, "weekDays"},
		{"weekly with end", Raw{Frequency: "Weekly", StartTime: "06:00", EndTime: "08:00", WeekDays: []string{"Monday"}}, "endTime"},
		{"monthly both modes", Raw{Frequency: "Monthly", StartTime: "23:00", MonthDays: []string{"1"}, Ordinal: "First", OrdinalWeekday: "Monday"}, "monthDays"},
		{"monthly neither mode", Raw{Frequency: "Monthly", StartTime: "23:00"}, "monthDays"},
		{"monthly with weekdays", Raw{Frequency: "Monthly", StartTime: "23:00", MonthDays: []string{"1"}, WeekDays: []string{"Monday"}}, "weekDays"},
		{"monthly day out of range", Raw{Frequency: "Monthly", StartTime: "23:00", MonthDays: []string{"32"}}, "monthDays"},
		{"monthly bad ordinal", Raw{Frequency: "Monthly", StartTime: "23:00", Ordinal: "Sixth", OrdinalWeekday: "Monday"}, "ordinal"},
		{"unknown frequency", Raw{Frequency: "Fortnightly", StartTime: "08:00"}, "frequency"},
		{"missing start", Raw{Frequency: "Daily", IntervalHours: 24}, "startTime"},
		{"bad start", Raw{Frequency: "Daily", StartTime: "25:00", IntervalHours: 24}, "startTime"},
		{"bad weekday name", Raw{Frequency: "Weekly", StartTime: "06:00", WeekDays: []string{"Funday"}}, "weekDays"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if err == nil {
				t.Fatalf("expected error for %+v", tt.raw)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("Field = %q, want %q (msg: %s)", verr.Field, tt.field, verr.Message)
			}
			if verr.Rule == "" || verr.Message == "" {
				t.Fatalf("incomplete validation error: %+v", verr)
			}
		})
	}
}

func TestParseNormalizesWeekdayDuplicates(t *testing.T) {
	t.Parallel()
	s, err := Parse(Raw{Frequency: "Weekly", StartTime: "06:00", WeekDays: []string{"Monday", "monday", "Friday"}})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	w, ok := s.(Weekly)
	if !ok {
		t.Fatalf("expected Weekly, got %T", s)
	}
	if len(w.WeekDays) != 2 {
		t.Fatalf("expected deduplicated weekdays, got %v", w.WeekDays)
	}
}
