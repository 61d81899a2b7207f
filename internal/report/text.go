package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/Onnokh/bookr/internal/progress"
	"github.com/Onnokh/bookr/internal/timeparse"
	"github.com/Onnokh/bookr/internal/worklog"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	dayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	defaultWidth = 80
	keyWidth     = 12
	timeWidth    = 8
)

// TextRenderer renders a Report for the terminal. Width bounds each line;
// zero means 80 columns.
type TextRenderer struct {
	Width int
}

func (t *TextRenderer) width() int {
	if t.Width > 0 {
		return t.Width
	}
	return defaultWidth
}

func fit(s string, w int) string {
	if w <= 1 {
		return ""
	}
	return truncate.StringWithTail(s, uint(w), "…")
}

func (t *TextRenderer) Render(r *Report) ([]byte, error) {
	var sb strings.Builder
	w := t.width()
	rule := dimStyle.Render(strings.Repeat("─", w))

	sb.WriteString(titleStyle.Render(r.Title))
	sb.WriteString("\n")
	if !r.From.IsZero() && !r.To.IsZero() {
		sb.WriteString(dimStyle.Render(FormatRange(r.From, r.To)))
		sb.WriteString("\n")
	}
	for _, n := range r.Notes {
		sb.WriteString(warnStyle.Render(n))
		sb.WriteString("\n")
	}
	sb.WriteString(rule)
	sb.WriteString("\n")

	if r.View.Count == 0 {
		sb.WriteString("No worklogs found.\n")
	}
	summaryWidth := w - keyWidth - timeWidth - 4
	for _, d := range r.View.Days {
		fmt.Fprintf(&sb, "%s  %s\n",
			dayStyle.Render(d.Date.Format("Mon 02 Jan 2006")),
			timeStyle.Render(timeparse.Format(d.Total)))
		for _, e := range d.Entries {
			key := e.Issue.Key
			if key == "" {
				key = "unknown"
			}
			summary := e.Issue.Summary
			if summary == "" && e.Issue.Key == "" && e.Issue.ID != "" {
				summary = "issue " + e.Issue.ID
			}
			fmt.Fprintf(&sb, "  %s %s %s\n",
				keyStyle.Render(padRight(key, keyWidth)),
				timeStyle.Render(padRight(timeparse.Format(e.Seconds), timeWidth)),
				fit(summary, summaryWidth))
			if e.Comment != "" {
				fmt.Fprintf(&sb, "  %s %s\n",
					strings.Repeat(" ", keyWidth+timeWidth+1),
					dimStyle.Render(fit(e.Comment, summaryWidth)))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule)
	sb.WriteString("\n")
	s := r.Summarize()
	fmt.Fprintf(&sb, "%s %s (%s hours)\n", labelStyle.Render("Total time: "), s.Total, timeparse.Hours(s.TotalSeconds))
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("Entries:    "), s.Entries)
	if s.Days > 1 {
		fmt.Fprintf(&sb, "%s %s over %d days\n", labelStyle.Render("Average/day:"), timeparse.Format(s.AverageSeconds), s.Days)
	}
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("Issues:     "), s.Issues)
	return []byte(sb.String()), nil
}

// padRight pads s with spaces to n display columns, truncating longer input.
func padRight(s string, n int) string {
	s = truncate.String(s, uint(n))
	if gap := n - lipgloss.Width(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// FormatRange renders an inclusive date range, collapsing a single day.
func FormatRange(from, to time.Time) string {
	const layout = "Mon 02 Jan 2006"
	if from.Format(worklog.DateLayout) == to.Format(worklog.DateLayout) {
		return from.Format(layout)
	}
	return from.Format(layout) + " → " + to.Format(layout)
}

// FormatPercent renders a daily percentage, "100+" for time logged on a day
// that requires none.
func FormatPercent(d progress.Day) string {
	if d.Over {
		return "100+%"
	}
	return fmt.Sprintf("%.0f%%", d.Percent)
}

func percentStyle(p float64) lipgloss.Style {
	switch {
	case p >= 100:
		return goodStyle
	case p >= 50:
		return warnStyle
	default:
		return badStyle
	}
}

// RenderProgress renders the per-day progress table and its total line.
func RenderProgress(title string, days []progress.Day, total float64) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	if len(days) > 0 {
		sb.WriteString(dimStyle.Render(FormatRange(days[0].Date, days[len(days)-1].Date)))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%s\n", dimStyle.Render(fmt.Sprintf("%-10s %-11s %8s %8s %7s", "Day", "Date", "Logged", "Required", "Done")))
	for _, d := range days {
		pct := padLeft(FormatPercent(d), 7)
		fmt.Fprintf(&sb, "%-10s %-11s %8s %8s %s\n",
			d.Date.Format("Monday"),
			d.Date.Format(worklog.DateLayout),
			timeparse.Format(d.Logged),
			timeparse.Format(d.Required),
			percentStyle(d.Percent).Render(pct))
	}
	logged, required := progress.Totals(days)
	fmt.Fprintf(&sb, "\n%s %s of %s (%s)\n",
		labelStyle.Render("Total:"),
		timeparse.Format(logged),
		timeparse.Format(required),
		percentStyle(total).Render(fmt.Sprintf("%.1f%%", total)))
	return sb.String()
}

func padLeft(s string, n int) string {
	if gap := n - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// RenderEntry renders the details block shown before deleting a worklog.
func RenderEntry(r worklog.Record) string {
	var sb strings.Builder
	issue := r.Issue.Key
	if issue == "" {
		issue = "issue " + r.Issue.ID
	}
	if r.Issue.Summary != "" {
		issue += " - " + r.Issue.Summary
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Issue:  "), issue)
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Time:   "), timeparse.Format(r.Seconds))
	if r.Comment != "" {
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Comment:"), r.Comment)
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Started:"), r.Started.In(time.Local).Format("Mon 02 Jan 2006 15:04"))
	fmt.Fprintf(&sb, "%s %s (%s)\n", labelStyle.Render("ID:     "), r.ID, r.Provenance)
	return sb.String()
}
