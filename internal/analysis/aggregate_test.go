package analysis

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"schedscope/internal/schedule"
)

func mustTask(t *testing.T, id string, raw schedule.Raw) Task {
	t.Helper()
	rep := BuildTasks([]RawTask{{ID: id, ItemID: id, ItemType: "workbook", Schedule: raw}})
	if len(rep.Tasks) != 1 {
		t.Fatalf("expected 1 task for %+v, got report %+v", raw, rep)
	}
	return rep.Tasks[0]
}

func TestBuildTasksSkipsMissingStartTime(t *testing.T) {
	t.Parallel()
	rep := BuildTasks([]RawTask{
		{ID: "a", Schedule: schedule.Raw{Frequency: "Daily", IntervalHours: 24}},
		{ID: "b", Schedule: schedule.Raw{Frequency: "Daily", StartTime: "zz:00", IntervalHours: 24}},
		{ID: "c", Schedule: schedule.Raw{Frequency: "Daily", StartTime: "08:00", IntervalHours: 24}},
		{ID: "d", Schedule: schedule.Raw{Frequency: "Weekly", StartTime: "08:00"}},
	})
	if rep.Skipped != 2 {
		t.Fatalf("Skipped = %d, want 2", rep.Skipped)
	}
	if len(rep.Tasks) != 1 || rep.Tasks[0].ID != "c" {
		t.Fatalf("unexpected tasks: %+v", rep.Tasks)
	}
	// Weekly without weekdays is a reported rejection, not a silent skip.
	if len(rep.Errors) != 1 || rep.Errors[0].TaskID != "d" {
		t.Fatalf("unexpected errors: %+v", rep.Errors)
	}
}

func TestHourlyDistributionDailyAllDays(t *testing.T) {
	t.Parallel()
	task := mustTask(t, "t1", schedule.Raw{Frequency: "Daily", StartTime: "08:00", IntervalHours: 24})

	if !reflect.DeepEqual(task.RunHours, []int{8}) {
		t.Fatalf("RunHours = %v, want [8]", task.RunHours)
	}
	if len(task.ActiveDays) != 7 {
		t.Fatalf("ActiveDays = %v, want all 7", task.ActiveDays)
	}

	dist := BuildHourlyDistribution([]Task{task})
	for h, c := range dist {
		want := 0
		if h == 8 {
			want = 7
		}
		if c != want {
			t.Fatalf("dist[%d] = %d, want %d", h, c, want)
		}
	}
}

func TestHourlyDistributionHourlyWindow(t *testing.T) {
	t.Parallel()
	task := mustTask(t, "t1", schedule.Raw{Frequency: "Hourly", StartTime: "07:00", EndTime: "10:00"})

	if !reflect.DeepEqual(task.RunHours, []int{7, 8, 9, 10}) {
		t.Fatalf("RunHours = %v, want [7 8 9 10]", task.RunHours)
	}

	dist := BuildHourlyDistribution([]Task{task})
	for h := 7; h <= 10; h++ {
		if dist[h] != 7 {
			t.Fatalf("dist[%d] = %d, want 7", h, dist[h])
		}
	}
	if dist.Total() != 28 {
		t.Fatalf("Total = %d, want 28", dist.Total())
	}
}

func TestHeatmapCountsPerWeekday(t *testing.T) {
	t.Parallel()
	task := mustTask(t, "t1", schedule.Raw{
		Frequency: "Daily", StartTime: "06:00", EndTime: "18:00",
		IntervalHours: 12, WeekDays: []string{"Monday", "Wednesday"},
	})

	hm := BuildHeatmap([]Task{task})
	if hm[schedule.Monday][6] != 1 || hm[schedule.Monday][18] != 1 {
		t.Fatalf("expected Monday 06 and 18 slots, got %v", hm[schedule.Monday])
	}
	if hm[schedule.Wednesday][6] != 1 {
		t.Fatal("expected Wednesday 06 slot")
	}
	if hm[schedule.Tuesday][6] != 0 {
		t.Fatal("Tuesday must stay empty")
	}
}

func TestMonthlyCalendarOrdinal(t *testing.T) {
	t.Parallel()
	task := mustTask(t, "t1", schedule.Raw{
		Frequency: "Monthly", StartTime: "11:05",
		Ordinal: "Second", OrdinalWeekday: "Monday",
	})

	// July 2024: the second Monday is the 8th.
	cal := BuildMonthlyCalendar([]Task{task}, 2024, time.July)
	if len(cal) != 31 {
		t.Fatalf("expected 31 dates, got %d", len(cal))
	}
	for key, count := range cal {
		want := 0
		if key == "2024-07-08" {
			want = 1
		}
		if count != want {
			t.Fatalf("cal[%s] = %d, want %d", key, count, want)
		}
	}
}

func TestMonthlyCalendarLastDayFebruary(t *testing.T) {
	t.Parallel()
	task := mustTask(t, "t1", schedule.Raw{
		Frequency: "Monthly", StartTime: "23:00", MonthDays: []string{"LastDay"},
	})

	leap := BuildMonthlyCalendar([]Task{task}, 2024, time.February)
	if leap["2024-02-29"] != 1 || leap["2024-02-28"] != 0 {
		t.Fatalf("leap February wrong: %v", leap)
	}
	plain := BuildMonthlyCalendar([]Task{task}, 2023, time.February)
	if plain["2023-02-28"] != 1 {
		t.Fatalf("non-leap February wrong: %v", plain)
	}
	if _, ok := plain["2023-02-29"]; ok {
		t.Fatal("non-leap February must not contain day 29")
	}
}

func TestAggregationOrderInvariant(t *testing.T) {
	t.Parallel()
	tasks := []Task{
		mustTask(t, "a", schedule.Raw{Frequency: "Daily", StartTime: "08:00", IntervalHours: 24}),
		mustTask(t, "b", schedule.Raw{Frequency: "Hourly", StartTime: "22:00", EndTime: "02:00", WeekDays: []string{"Friday"}}),
		mustTask(t, "c", schedule.Raw{Frequency: "Weekly", StartTime: "06:00", WeekDays: []string{"Saturday", "Sunday"}}),
		mustTask(t, "d", schedule.Raw{Frequency: "Monthly", StartTime: "23:00", MonthDays: []string{"1", "15"}}),
	}

	want := BuildHourlyDistribution(tasks)
	wantHM := BuildHeatmap(tasks)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]Task(nil), tasks...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := BuildHourlyDistribution(shuffled); got != want {
			t.Fatalf("distribution depends on task order: %v vs %v", got, want)
		}
		if got := BuildHeatmap(shuffled); got != wantHM {
			t.Fatal("heatmap depends on task order")
		}
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	t.Parallel()
	rep := BuildTasks([]RawTask{
		{ID: "t1", ItemID: "wb-1", ItemType: "workbook", Schedule: schedule.Raw{Frequency: "Daily", StartTime: "08:00", IntervalHours: 24}},
	})
	res := Analyze(rep.Tasks, 2024, time.July, DefaultThresholds())

	if res.Distribution[8] != 7 {
		t.Fatalf("Distribution[8] = %d, want 7", res.Distribution[8])
	}
	if len(res.Heatmap) != 7*24 {
		t.Fatalf("heatmap cells = %d, want %d", len(res.Heatmap), 7*24)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].TaskDays != 7 || res.Tasks[0].Label != "workbook/wb-1" {
		t.Fatalf("unexpected task details: %+v", res.Tasks)
	}
	if res.Health.Utilization.Value != 4 { // 1 of 24 hours busy, rounded
		t.Fatalf("Utilization = %v, want 4", res.Health.Utilization.Value)
	}
}
