// Package tui provides a Bubble Tea picker for choosing one worklog.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Onnokh/bookr/internal/timeparse"
	"github.com/Onnokh/bookr/internal/worklog"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238"))
)

const cancelLabel = "Cancel"

// maxRows bounds the visible table height.
const maxRows = 12

// Model is the Bubble Tea model of the worklog picker. The last row is a
// cancel choice.
type Model struct {
	title    string
	records  []worklog.Record
	table    table.Model
	chosen   int
	done     bool
	canceled bool
}

// New builds a picker over records in the given order.
func New(title string, records []worklog.Record) Model {
	cols := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Issue", Width: 12},
		{Title: "Time", Width: 8},
		{Title: "Started", Width: 17},
		{Title: "Summary", Width: 36},
	}
	rows := make([]table.Row, 0, len(records)+1)
	for _, r := range records {
		key := r.Issue.Key
		if key == "" {
			key = "unknown"
		}
		rows = append(rows, table.Row{
			r.ID,
			key,
			timeparse.Format(r.Seconds),
			r.Started.Format("Mon 02 Jan 15:04"),
			r.Issue.Summary,
		})
	}
	rows = append(rows, table.Row{"", cancelLabel, "", "", ""})

	// One extra line for the header.
	height := len(rows) + 1
	if height > maxRows {
		height = maxRows
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Bold(false)
	t.SetStyles(s)

	return Model{title: title, records: records, table: t, chosen: -1}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.canceled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			i := m.table.Cursor()
			if i >= 0 && i < len(m.records) {
				m.chosen = i
			} else {
				m.canceled = true
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n")
	sb.WriteString(baseStyle.Render(m.table.View()))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render(fmt.Sprintf("  ↑/↓ move  enter select  q cancel  (%d worklogs)", len(m.records))))
	sb.WriteString("\n")
	return sb.String()
}

// Selected returns the chosen record. ok is false when the picker was
// cancelled or has not finished.
func (m Model) Selected() (worklog.Record, bool) {
	if !m.done || m.canceled || m.chosen < 0 {
		return worklog.Record{}, false
	}
	return m.records[m.chosen], true
}

// Pick runs the picker and returns the chosen record.
func Pick(title string, records []worklog.Record) (worklog.Record, bool, error) {
	p := tea.NewProgram(New(title, records))
	final, err := p.Run()
	if err != nil {
		return worklog.Record{}, false, fmt.Errorf("running picker: %w", err)
	}
	r, ok := final.(Model).Selected()
	return r, ok, nil
}
