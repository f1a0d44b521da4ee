package scheduler

import (
	"time"

	"github.com/example/gym-scheduler/internal/domain/booking"
)

// Mode is the operating strategy for one loop iteration.
type Mode int

const (
	Hibernate Mode = iota
	Eager
	Normal
)

func (m Mode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Normal:
		return "normal"
	default:
		return "hibernate"
	}
}

var Modes = []Mode{Hibernate, Eager, Normal}

func modeNames() []string {
	out := make([]string, 0, len(Modes))
	for _, m := range Modes {
		out = append(out, m.String())
	}
	return out
}

// Windows are the inclusive time-of-day ranges of the active modes. Anything
// outside both is Hibernate.
type Windows struct {
	EagerStart  booking.ClockTime
	EagerEnd    booking.ClockTime
	NormalStart booking.ClockTime
	NormalEnd   booking.ClockTime
}

func DefaultWindows() Windows {
	return Windows{
		EagerStart:  booking.MustClock("06:55"),
		EagerEnd:    booking.MustClock("07:29"),
		NormalStart: booking.MustClock("07:30"),
		NormalEnd:   booking.MustClock("23:59"),
	}
}

// ModeAt resolves the mode for t. Seconds are ignored, so 07:29:59 is still Eager.
func (w Windows) ModeAt(t time.Time) Mode {
	c := booking.ClockOf(t)
	switch {
	case c.Within(w.EagerStart, w.EagerEnd):
		return Eager
	case c.Within(w.NormalStart, w.NormalEnd):
		return Normal
	default:
		return Hibernate
	}
}

// Intervals are the pauses between iterations of the active modes.
type Intervals struct {
	Eager  time.Duration
	Normal time.Duration
}

// SleepFor returns how long to wait after an iteration in mode m ending at now.
// Hibernate sleeps until the next EagerStart, in whole seconds, at least one.
func (w Windows) SleepFor(m Mode, now time.Time, iv Intervals) time.Duration {
	switch m {
	case Eager:
		return iv.Eager
	case Normal:
		return iv.Normal
	}
	target := w.EagerStart.On(now)
	if !now.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	d := target.Sub(now).Truncate(time.Second)
	if d < time.Second {
		d = time.Second
	}
	return d
}
