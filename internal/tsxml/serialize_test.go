package tsxml

import (
	"errors"
	"reflect"
	"testing"

	"schedscope/internal/schedule"
)

func TestSerializeHourly(t *testing.T) {
	t.Parallel()
	s := schedule.Hourly{
		StartAt:  schedule.TimeOfDay{Hour: 7, Minute: 0},
		EndAt:    schedule.TimeOfDay{Hour: 10, Minute: 0},
		WeekDays: []schedule.Weekday{schedule.Monday, schedule.Friday},
	}
	doc, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if doc.Frequency != "Hourly" || doc.Details.Start != "07:00:00" || doc.Details.End != "10:00:00" {
		t.Fatalf("unexpected envelope: %+v", doc)
	}
	want := []Interval{
		{Hours: "1"},
		{WeekDay: "Monday"},
		{WeekDay: "Friday"},
	}
	if !reflect.DeepEqual(doc.Details.Intervals, want) {
		t.Fatalf("Intervals = %+v, want %+v", doc.Details.Intervals, want)
	}
}

func TestSerializeDailyExpandsAllDays(t *testing.T) {
	t.Parallel()
	end := schedule.TimeOfDay{Hour: 20, Minute: 0}
	s := schedule.Daily{
		StartAt:       schedule.TimeOfDay{Hour: 8, Minute: 0},
		EndAt:         &end,
		IntervalHours: 4,
	}
	doc, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if doc.Details.Intervals[0].Hours != "4" {
		t.Fatalf("expected hours interval first, got %+v", doc.Details.Intervals)
	}
	// Empty weekday selection must serialize as all 7 explicit elements.
	if len(doc.Details.Intervals) != 8 {
		t.Fatalf("expected 1 hours + 7 weekday intervals, got %d", len(doc.Details.Intervals))
	}
}

func TestSerializeDailyOncePerDayOmitsEnd(t *testing.T) {
	t.Parallel()
	s := schedule.Daily{StartAt: schedule.TimeOfDay{Hour: 8, Minute: 0}, IntervalHours: 24}
	doc, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if doc.Details.End != "" {
		t.Fatalf("24h Daily must not carry an end time, got %q", doc.Details.End)
	}
}

func TestSerializeWeekly(t *testing.T) {
	t.Parallel()
	s := schedule.Weekly{
		StartAt:  schedule.TimeOfDay{Hour: 6, Minute: 15},
		WeekDays: []schedule.Weekday{schedule.Saturday},
	}
	doc, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if doc.Details.End != "" {
		t.Fatal("Weekly must not carry an end time")
	}
	want := []Interval{{WeekDay: "Saturday"}}
	if !reflect.DeepEqual(doc.Details.Intervals, want) {
		t.Fatalf("Intervals = %+v, want %+v", doc.Details.Intervals, want)
	}
}

func TestSerializeMonthlyOnDays(t *testing.T) {
	t.Parallel()
	s := schedule.Monthly{
		StartAt: schedule.TimeOfDay{Hour: 23, Minute: 0},
		Mode:    schedule.OnDays{Days: []schedule.MonthDay{1, 15, schedule.LastDay}},
	}
	doc, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []Interval{{MonthDay: "1"}, {MonthDay: "15"}, {MonthDay: "LastDay"}}
	if !reflect.DeepEqual(doc.Details.Intervals, want) {
		t.Fatalf("Intervals = %+v, want %+v", doc.Details.Intervals, want)
	}
}

func TestSerializeMonthlyOrdinal(t *testing.T) {
	t.Parallel()
	s := schedule.Monthly{
		StartAt: schedule.TimeOfDay{Hour: 11, Minute: 5},
		Mode:    schedule.OnOrdinalWeekday{Ordinal: schedule.Last, Weekday: schedule.Friday},
	}
	doc, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// The ordinal token rides in the monthDay slot; "Last" here is the
	// ordinal token, not the OnDays "LastDay" literal.
	want := []Interval{{MonthDay: "Last", WeekDay: "Friday"}}
	if !reflect.DeepEqual(doc.Details.Intervals, want) {
		t.Fatalf("Intervals = %+v, want %+v", doc.Details.Intervals, want)
	}
}

func TestSerializeRejectsInvalidValue(t *testing.T) {
	t.Parallel()
	// Hand-built illegal value: Daily with a bogus interval.
	s := schedule.Daily{StartAt: schedule.TimeOfDay{Hour: 8, Minute: 0}, IntervalHours: 3}
	_, err := Serialize(s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *schedule.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *schedule.ValidationError, got %T", err)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	end := schedule.TimeOfDay{Hour: 2, Minute: 0}
	schedules := []schedule.Schedule{
		schedule.Hourly{
			StartAt:  schedule.TimeOfDay{Hour: 7, Minute: 0},
			EndAt:    schedule.TimeOfDay{Hour: 10, Minute: 0},
			WeekDays: []schedule.Weekday{schedule.Monday},
		},
		schedule.Daily{
			StartAt:       schedule.TimeOfDay{Hour: 22, Minute: 0},
			EndAt:         &end,
			IntervalHours: 2,
			WeekDays:      []schedule.Weekday{schedule.Tuesday, schedule.Thursday},
		},
		schedule.Weekly{
			StartAt:  schedule.TimeOfDay{Hour: 6, Minute: 15},
			WeekDays: []schedule.Weekday{schedule.Sunday},
		},
		schedule.Monthly{
			StartAt: schedule.TimeOfDay{Hour: 23, Minute: 0},
			Mode:    schedule.OnDays{Days: []schedule.MonthDay{5, schedule.LastDay}},
		},
		schedule.Monthly{
			StartAt: schedule.TimeOfDay{Hour: 11, Minute: 5},
			Mode:    schedule.OnOrdinalWeekday{Ordinal: schedule.Second, Weekday: schedule.Monday},
		},
	}

	for _, s := range schedules {
		doc, err := Serialize(s)
		if err != nil {
			t.Fatalf("Serialize(%+v): %v", s, err)
		}
		data, err := doc.Encode()
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		back, err := ParseSchedule(decoded)
		if err != nil {
			t.Fatalf("ParseSchedule: %v", err)
		}
		if !reflect.DeepEqual(back, s) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, s)
		}
	}
}
