// Package progress compares logged time per day against a weekly workload
// scheme.
package progress

import (
	"strings"
	"time"

	"github.com/Onnokh/bookr/internal/tempo"
	"github.com/Onnokh/bookr/internal/worklog"
)

// Scheme holds the required seconds for each weekday.
type Scheme struct {
	Name     string
	Required [7]int
}

// DefaultScheme requires eight hours Monday through Friday.
func DefaultScheme() Scheme {
	var s Scheme
	s.Name = "Default (8h Mon-Fri)"
	for d := time.Monday; d <= time.Friday; d++ {
		s.Required[d] = 8 * 3600
	}
	return s
}

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// FromTempo builds a Scheme from a Tempo workload scheme. Days the scheme
// does not list require nothing.
func FromTempo(ws tempo.WorkloadScheme) Scheme {
	s := Scheme{Name: ws.Name}
	for _, d := range ws.Days {
		if wd, ok := weekdays[strings.ToUpper(d.Day)]; ok {
			s.Required[wd] = d.RequiredSeconds
		}
	}
	return s
}

// RequiredOn returns the required seconds on t's weekday.
func (s Scheme) RequiredOn(t time.Time) int {
	return s.Required[t.Weekday()]
}

// Day is the progress of a single calendar day.
type Day struct {
	Date     time.Time `json:"date" yaml:"date"`
	Logged   int       `json:"loggedSeconds" yaml:"loggedSeconds"`
	Required int       `json:"requiredSeconds" yaml:"requiredSeconds"`
	// Percent is Logged over Required. A day that requires nothing counts
	// as 100.
	Percent float64 `json:"percent" yaml:"percent"`
	// Over is set when time was logged on a day that requires nothing.
	Over bool `json:"over" yaml:"over"`
}

// Daily computes progress for every calendar day in [from, to].
func Daily(v worklog.View, from, to time.Time, s Scheme) []Day {
	logged := make(map[string]int, len(v.Days))
	for _, d := range v.Days {
		logged[d.Key] = d.Total
	}
	var out []Day
	for _, date := range worklog.DaysBetween(from, to) {
		d := Day{
			Date:     date,
			Logged:   logged[date.Format(worklog.DateLayout)],
			Required: s.RequiredOn(date),
		}
		if d.Required == 0 {
			d.Percent = 100
			d.Over = d.Logged > 0
		} else {
			d.Percent = float64(d.Logged) / float64(d.Required) * 100
		}
		out = append(out, d)
	}
	return out
}

// TotalPercent is the mean of the daily percentages, each capped at 100.
func TotalPercent(days []Day) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, d := range days {
		sum += min(d.Percent, 100)
	}
	return sum / float64(len(days))
}

// Totals sums logged and required seconds over days.
func Totals(days []Day) (logged, required int) {
	for _, d := range days {
		logged += d.Logged
		required += d.Required
	}
	return logged, required
}
