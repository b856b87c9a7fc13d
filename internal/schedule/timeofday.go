package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock time in the site-local timezone. The core never
// converts to UTC; the configured IANA zone applies to every TimeOfDay.
type TimeOfDay struct {
	Hour   int // 0..23
	Minute int // 0..59
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS" (seconds are discarded;
// the scheduling API emits them, the model does not carry them).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }
