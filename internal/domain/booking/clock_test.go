package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("6:55")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 6, Minute: 55}, c)
	assert.Equal(t, "06:55", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestClockTime_Within(t *testing.T) {
	lo, hi := MustClock("06:55"), MustClock("07:29")

	assert.True(t, MustClock("06:55").Within(lo, hi))
	assert.True(t, MustClock("07:29").Within(lo, hi))
	assert.False(t, MustClock("06:54").Within(lo, hi))
	assert.False(t, MustClock("07:30").Within(lo, hi))
}

func TestClockTime_On(t *testing.T) {
	now := time.Date(2025, 5, 20, 13, 14, 15, 0, time.Local)
	assert.Equal(t, time.Date(2025, 5, 20, 7, 0, 0, 0, time.Local), MustClock("07:00").On(now))
}

func TestDayFor_AndWeekend(t *testing.T) {
	now := time.Date(2025, 5, 23, 7, 0, 0, 0, time.Local) // Friday

	assert.Equal(t, "2025-05-25", DayFor(now, 2))

	weekend, err := IsWeekend(DayFor(now, 0))
	require.NoError(t, err)
	assert.False(t, weekend)

	weekend, err = IsWeekend(DayFor(now, 1))
	require.NoError(t, err)
	assert.True(t, weekend)

	_, err = IsWeekend("not-a-day")
	assert.Error(t, err)
}
