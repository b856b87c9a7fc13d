// Package schedule holds the canonical model of a recurring extract-refresh
// schedule and the engine that expands it into concrete firing slots.
//
// A Schedule is a tagged union over the four frequency kinds the scheduling
// API supports. Parse is the single place the per-variant invariants are
// enforced; every Schedule obtained from Parse is legal by construction and
// the engines treat it as total input (they never fail).
package schedule

// Frequency names the four recurrence kinds of the scheduling API.
type Frequency string

const (
	FreqHourly  Frequency = "Hourly"
	FreqDaily   Frequency = "Daily"
	FreqWeekly  Frequency = "Weekly"
	FreqMonthly Frequency = "Monthly"
)

// Schedule is one of Hourly, Daily, Weekly or Monthly.
type Schedule interface {
	Frequency() Frequency
	Start() TimeOfDay

	sealed()
}

// Hourly fires every hour inside the start..end window on the selected
// weekdays. An empty WeekDays slice means all seven days.
type Hourly struct {
	StartAt  TimeOfDay
	EndAt    TimeOfDay
	WeekDays []Weekday
}

// Daily fires every IntervalHours hours. The end of the window is mandatory
// for sub-day intervals and absent for the plain once-a-day (24h) form.
// When present, EndAt shares the start's minute so the interval walk lands
// exactly on the window end.
type Daily struct {
	StartAt       TimeOfDay
	EndAt         *TimeOfDay
	IntervalHours int // one of 2, 4, 6, 8, 12, 24
	WeekDays      []Weekday
}

// Weekly fires once at StartAt on each selected weekday.
type Weekly struct {
	StartAt  TimeOfDay
	WeekDays []Weekday // 1..7 entries, never empty
}

// Monthly fires once at StartAt on the days selected by Mode.
type Monthly struct {
	StartAt TimeOfDay
	Mode    MonthlyMode
}

// MonthlyMode is one of OnDays or OnOrdinalWeekday. The union makes the two
// sub-modes mutually exclusive by construction; no runtime check needed.
type MonthlyMode interface {
	sealedMode()
}

// OnDays selects explicit days of month. LastDay tracks the month length,
// including February in leap years.
type OnDays struct {
	Days []MonthDay // non-empty
}

// OnOrdinalWeekday selects the Nth (or last) occurrence of a weekday.
type OnOrdinalWeekday struct {
	Ordinal Ordinal
	Weekday Weekday
}

func (Hourly) Frequency() Frequency  { return FreqHourly }
func (Daily) Frequency() Frequency   { return FreqDaily }
func (Weekly) Frequency() Frequency  { return FreqWeekly }
func (Monthly) Frequency() Frequency { return FreqMonthly }

func (s Hourly) Start() TimeOfDay  { return s.StartAt }
func (s Daily) Start() TimeOfDay   { return s.StartAt }
func (s Weekly) Start() TimeOfDay  { return s.StartAt }
func (s Monthly) Start() TimeOfDay { return s.StartAt }

func (Hourly) sealed()  {}
func (Daily) sealed()   {}
func (Weekly) sealed()  {}
func (Monthly) sealed() {}

func (OnDays) sealedMode()           {}
func (OnOrdinalWeekday) sealedMode() {}

// WeekDaysOf returns the raw weekday selection of a schedule
// (possibly empty). Monthly schedules carry none.
func WeekDaysOf(s Schedule) []Weekday {
	switch v := s.(type) {
	case Hourly:
		return v.WeekDays
	case Daily:
		return v.WeekDays
	case Weekly:
		return v.WeekDays
	default:
		return nil
	}
}
