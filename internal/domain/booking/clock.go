package booking

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day at minute granularity.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "H:MM" or "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q (want HH:MM): %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustClock is ParseClock for package-level defaults.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf truncates t to its local time of day.
func ClockOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

func (c ClockTime) minutes() int { return c.Hour*60 + c.Minute }

func (c ClockTime) Before(o ClockTime) bool { return c.minutes() < o.minutes() }

// Within reports lo <= c <= hi.
func (c ClockTime) Within(lo, hi ClockTime) bool {
	return lo.minutes() <= c.minutes() && c.minutes() <= hi.minutes()
}

// On returns the instant at c on the calendar day of t, in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, t.Location())
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
