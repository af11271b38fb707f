package graph

import "time"

const secondsPerDay = 24 * 60 * 60

// Length returns the scheduling length of a task in whole days.
// Missing endpoints yield a placeholder length of 1 so the task still takes
// part in ordering. Otherwise it is the calendar-day difference between the
// two dates (not an inclusive count), floored at 1.
func Length(start, end *time.Time) int {
	if start == nil || end == nil {
		return 1
	}
	days := daysBetween(*start, *end)
	if days < 1 {
		return 1
	}
	return days
}

// daysBetween counts calendar days from a to b, ignoring time of day and DST.
// It works on Unix day numbers so spans beyond time.Duration's range stay exact.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Unix()/secondsPerDay - da.Unix()/secondsPerDay)
}
