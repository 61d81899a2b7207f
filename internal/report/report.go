// Package report renders reconciled worklog views for the terminal and as
// machine-readable JSON or YAML.
package report

import (
	"fmt"
	"time"

	"github.com/Onnokh/bookr/internal/timeparse"
	"github.com/Onnokh/bookr/internal/worklog"
)

// Report is a titled view over a date range.
type Report struct {
	Title string
	From  time.Time
	To    time.Time
	View  worklog.View
	// Notes are shown under the title, e.g. when a fallback range was used.
	Notes []string
}

// Summary is the aggregate block shown under every report.
type Summary struct {
	TotalSeconds   int     `json:"totalSeconds" yaml:"totalSeconds"`
	Total          string  `json:"total" yaml:"total"`
	Hours          float64 `json:"hours" yaml:"hours"`
	Entries        int     `json:"entries" yaml:"entries"`
	Days           int     `json:"days" yaml:"days"`
	AverageSeconds int     `json:"averagePerDaySeconds" yaml:"averagePerDaySeconds"`
	Issues         int     `json:"issues" yaml:"issues"`
}

// Summarize computes the summary. The average is over every calendar day in
// the range, not only days with worklogs.
func (r *Report) Summarize() Summary {
	s := Summary{
		TotalSeconds: r.View.Total,
		Hours:        float64(r.View.Total) / 3600,
		Entries:      r.View.Count,
		Issues:       r.View.UniqueIssues,
	}
	s.Total = timeparse.Format(r.View.Total)
	if !r.From.IsZero() && !r.To.IsZero() {
		s.Days = len(worklog.DaysBetween(r.From, r.To))
	}
	if s.Days > 0 {
		s.AverageSeconds = r.View.Total / s.Days
	}
	return s
}

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// Formats lists the accepted --output values.
var Formats = []string{"text", "json", "yaml"}

// New returns the renderer for an output format.
func New(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml", "yml":
		return &YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}
