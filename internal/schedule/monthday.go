package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// MonthDay is a day-of-month selector: 1..31 or LastDay.
type MonthDay int

// LastDay selects whatever the final day of the month is (28..31).
const LastDay MonthDay = -1

// lastDayToken is the wire literal for LastDay in OnDays mode. Distinct from
// the ordinal token "Last" used by OnOrdinalWeekday mode.
const lastDayToken = "LastDay"

func (d MonthDay) Valid() bool { return d == LastDay || (d >= 1 && d <= 31) }

func (d MonthDay) String() string {
	if d == LastDay {
		return lastDayToken
	}
	return strconv.Itoa(int(d))
}

// ParseMonthDay accepts "1".."31" and the literal "LastDay".
func ParseMonthDay(s string) (MonthDay, error) {
	t := strings.TrimSpace(s)
	if strings.EqualFold(t, lastDayToken) {
		return LastDay, nil
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 1 || n > 31 {
		return 0, fmt.Errorf("invalid month day %q", s)
	}
	return MonthDay(n), nil
}

// Ordinal is the occurrence selector for OnOrdinalWeekday: First..Fifth
// select the Nth occurrence of the weekday within the month, Last selects
// the final one regardless of whether the month has four or five.
type Ordinal int

const (
	First Ordinal = iota + 1
	Second
	Third
	Fourth
	Fifth

	// Last is the ordinal token "Last"; not to be confused with the OnDays
	// token "LastDay".
	Last Ordinal = -1
)

var ordinalNames = map[Ordinal]string{
	First:  "First",
	Second: "Second",
	Third:  "Third",
	Fourth: "Fourth",
	Fifth:  "Fifth",
	Last:   "Last",
}

func (o Ordinal) Valid() bool { _, ok := ordinalNames[o]; return ok }

func (o Ordinal) String() string {
	if s, ok := ordinalNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Ordinal(%d)", int(o))
}

func ParseOrdinal(s string) (Ordinal, error) {
	t := strings.TrimSpace(s)
	for o, name := range ordinalNames {
		if strings.EqualFold(t, name) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("invalid ordinal %q", s)
}
