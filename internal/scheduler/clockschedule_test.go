package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockScheduleWeeklyLaterThisWeek(t *testing.T) {
	now := time.Date(2026, time.August, 3, 8, 0, 0, 0, time.UTC) // Monday
	c := ClockSchedule{Type: "weekly", Weekday: int(time.Wednesday), Hour: 9}

	next := c.nextOccurrence(now)
	require.Equal(t, time.Wednesday, next.Weekday())
	require.True(t, next.After(now))
	require.Equal(t, 9, next.Hour())
}

func TestClockScheduleWeeklyRollsOverWhenAlreadyPassed(t *testing.T) {
	now := time.Date(2026, time.August, 3, 10, 0, 0, 0, time.UTC) // Monday 10:00
	c := ClockSchedule{Type: "weekly", Weekday: int(time.Monday), Hour: 9}

	next := c.nextOccurrence(now)
	require.Equal(t, time.Monday, next.Weekday())
	require.Equal(t, now.AddDate(0, 0, 7).Day(), next.Day())
}

func TestClockScheduleWeeklySameDayNotYetPassed(t *testing.T) {
	now := time.Date(2026, time.August, 3, 8, 0, 0, 0, time.UTC) // Monday 08:00
	c := ClockSchedule{Type: "weekly", Weekday: int(time.Monday), Hour: 9}

	next := c.nextOccurrence(now)
	require.Equal(t, now.Day(), next.Day())
	require.Equal(t, 9, next.Hour())
}

func TestClockScheduleMonthlyLaterThisMonth(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	c := ClockSchedule{Type: "monthly", Day: 15, Hour: 9}

	next := c.nextOccurrence(now)
	require.Equal(t, time.August, next.Month())
	require.Equal(t, 15, next.Day())
}

func TestClockScheduleMonthlyRollsToNextMonth(t *testing.T) {
	now := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	c := ClockSchedule{Type: "monthly", Day: 15, Hour: 9}

	next := c.nextOccurrence(now)
	require.Equal(t, time.September, next.Month())
	require.Equal(t, 15, next.Day())
}

func TestClockScheduleMonthlyDefaultsDayToFirst(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	c := ClockSchedule{Type: "monthly", Hour: 9}

	next := c.nextOccurrence(now)
	require.Equal(t, 1, next.Day())
}

func TestClockScheduleNextRunNeverNegative(t *testing.T) {
	now := time.Date(2026, time.August, 3, 10, 0, 0, 0, time.UTC)
	c := ClockSchedule{Type: "weekly", Weekday: int(time.Monday), Hour: 9}
	require.GreaterOrEqual(t, c.NextRun(now), time.Duration(0))
}
