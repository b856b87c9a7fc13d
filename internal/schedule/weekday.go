package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the internal weekday representation: Monday=0 .. Sunday=6.
//
// The wire format speaks day names ("Monday") and Go's time package counts
// Sunday-first. Both are translated at the boundary (ParseWeekday, WeekdayOf)
// and translated indices never leak past it.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday accepts the wire day names, case-insensitive.
func ParseWeekday(name string) (Weekday, error) {
	n := strings.TrimSpace(name)
	for i, s := range weekdayNames {
		if strings.EqualFold(n, s) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// WeekdayOf converts from Go's native Sunday-first index.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// AllWeekdays returns Monday..Sunday in order. Callers must not mutate
// the result in place without copying.
func AllWeekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}
