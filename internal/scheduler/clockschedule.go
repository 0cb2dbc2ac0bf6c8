package scheduler

import "time"

// ClockSchedule describes a weekly or monthly clock-aligned run time for
// the notification job (spec §4.11 / §6 cron.notification.schedule).
type ClockSchedule struct {
	Type    string // "weekly" or "monthly"
	Weekday int    // time.Weekday, used when Type == "weekly"
	Day     int    // day of month, used when Type == "monthly"
	Hour    int
	Minute  int
	Second  int
}

// NextRun returns the duration from now until the next occurrence of the
// schedule. For "weekly" it's the next matching weekday at the given
// clock time; for "monthly" it's the next matching day-of-month. If the
// computed time has already passed today/this-period, it rolls forward
// by one period.
func (c ClockSchedule) NextRun(now time.Time) time.Duration {
	next := c.nextOccurrence(now)
	d := next.Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

func (c ClockSchedule) nextOccurrence(now time.Time) time.Time {
	loc := now.Location()

	if c.Type == "monthly" {
		day := c.Day
		if day <= 0 {
			day = 1
		}
		candidate := time.Date(now.Year(), now.Month(), day, c.Hour, c.Minute, c.Second, 0, loc)
		if !candidate.After(now) {
			candidate = time.Date(now.Year(), now.Month()+1, day, c.Hour, c.Minute, c.Second, 0, loc)
		}
		return candidate
	}

	// weekly (default)
	candidate := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, c.Second, 0, loc)
	daysUntil := (int(time.Weekday(c.Weekday)) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysUntil)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
