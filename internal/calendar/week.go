// Package calendar maps instants to ISO-8601 week identifiers, the unit of
// weekly settlement.
package calendar

import (
	"fmt"
	"time"
)

// Week is the length of one settlement period.
const Week = 7 * 24 * time.Hour

// WeekID returns the ISO week identifier of t, formatted "YYYY-Www".
// Weeks start on Monday and week 1 is the week holding the year's first
// Thursday, so late-December days can belong to the next ISO year and early
// January days to the previous one. t is reduced to its UTC calendar day first.
func WeekID(t time.Time) string {
	year, week := utcDay(t).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// WeekStart returns Monday 00:00 UTC of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	d := utcDay(t)
	sinceMonday := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -sinceMonday)
}

// PreviousWeek returns the identifier and start of the week before the one
// containing now.
func PreviousWeek(now time.Time) (string, time.Time) {
	prev := now.UTC().Add(-Week)
	return WeekID(prev), WeekStart(prev)
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
