package model

import "time"

// ISODate is the storage layout for calendar dates.
const ISODate = "2006-01-02"

// DateOf returns the calendar date of t (in t's own location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth returns the first day of d's month.
func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// LastOfMonth returns the last calendar day of d's month.
func LastOfMonth(d time.Time) time.Time {
	return FirstOfMonth(d).AddDate(0, 1, -1)
}
