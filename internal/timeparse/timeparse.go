// Package timeparse converts the duration strings accepted on the command
// line ("2h30m", "1.5h", "45m") into seconds and back into display form.
package timeparse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned by Parse for strings that are not durations.
var ErrInvalidFormat = errors.New("invalid time format")

var (
	decimalHours = regexp.MustCompile(`^(\d+(?:\.\d+)?)h?$`)
	hoursPart    = regexp.MustCompile(`(\d+)h`)
	minutesPart  = regexp.MustCompile(`(\d+)m`)

	validForms = []*regexp.Regexp{
		regexp.MustCompile(`^\d+(?:\.\d+)?h?$`),
		regexp.MustCompile(`^\d+h\d+m$`),
		regexp.MustCompile(`^\d+h$`),
		regexp.MustCompile(`^\d+m$`),
	}
)

// normalize lower-cases s and drops all whitespace, so "2h 30m" and
// "2H30M" are read the same way.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Valid reports whether s is one of the accepted forms: decimal hours
// ("2.5h", "3"), hours and minutes ("1h15m"), hours only or minutes only.
func Valid(s string) bool {
	n := normalize(s)
	for _, re := range validForms {
		if re.MatchString(n) {
			return true
		}
	}
	return false
}

// Parse converts s to whole seconds. Decimal hours are rounded to the
// nearest second.
func Parse(s string) (int, error) {
	if !Valid(s) {
		return 0, fmt.Errorf("%w: %q (use e.g. 2h30m, 1.5h or 45m)", ErrInvalidFormat, s)
	}
	n := normalize(s)

	if m := decimalHours.FindStringSubmatch(n); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		return int(math.Round(hours * 3600)), nil
	}

	var hours, minutes int
	if m := hoursPart.FindStringSubmatch(n); m != nil {
		hours, _ = strconv.Atoi(m[1])
	}
	if m := minutesPart.FindStringSubmatch(n); m != nil {
		minutes, _ = strconv.Atoi(m[1])
	}
	return hours*3600 + minutes*60, nil
}

// Format renders seconds the way Jira displays time spent: "2h 30m",
// "2h", "45m" or "0m". Leftover seconds are dropped.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "0m"
	}
}

// Describe renders seconds in words, e.g. "2 hours and 30 minutes".
func Describe(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	switch {
	case h > 0 && m > 0:
		return plural(h, "hour") + " and " + plural(m, "minute")
	case h > 0:
		return plural(h, "hour")
	case m > 0:
		return plural(m, "minute")
	default:
		return "0 minutes"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Hours renders seconds as decimal hours with two places ("2.50").
func Hours(seconds int) string {
	return strconv.FormatFloat(float64(seconds)/3600, 'f', 2, 64)
}

// JiraTimestamp formats t in the layout the Jira worklog API expects for
// "started": millisecond precision and a numeric zone offset without colon.
func JiraTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000-0700")
}
