package worklog

import "time"

// DateLayout is the calendar-date layout used for grouping keys and API
// query parameters.
const DateLayout = "2006-01-02"

// StartOfDay returns 00:00:00 of the same day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of the same day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// LocalDate returns the local calendar date key of t.
func LocalDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// DaysBetween returns the local midnights of every calendar day from `from`
// through `to`, inclusive.
func DaysBetween(from, to time.Time) []time.Time {
	start := StartOfDay(from.In(time.Local))
	end := StartOfDay(to.In(time.Local))
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
