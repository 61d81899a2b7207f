package jira

import (
	"encoding/json"
	"time"
)

// TimeLayout is the timestamp format Jira uses for worklog start times.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Status struct {
	Name string `json:"name"`
}

type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary string  `json:"summary"`
	Status  Status  `json:"status"`
	Project Project `json:"project"`
}

type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type Worklog struct {
	ID               string          `json:"id"`
	IssueID          string          `json:"issueId"`
	TimeSpent        string          `json:"timeSpent"`
	TimeSpentSeconds int             `json:"timeSpentSeconds"`
	Started          string          `json:"started"`
	Comment          json.RawMessage `json:"comment,omitempty"`
	Author           User            `json:"author"`
}

// StartedAt parses the worklog start time. ok is false when it is missing
// or malformed.
func (w Worklog) StartedAt() (time.Time, bool) {
	return ParseTime(w.Started)
}

// NewWorklog is the input for creating a native Jira worklog.
type NewWorklog struct {
	Seconds int
	Comment string
	Started time.Time
}

type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Range returns the sprint's start and end. ok is false unless both dates
// are present and parse.
func (s Sprint) Range() (start, end time.Time, ok bool) {
	start, ok1 := ParseTime(s.StartDate)
	end, ok2 := ParseTime(s.EndDate)
	return start, end, ok1 && ok2
}

// ParseTime accepts Jira's worklog timestamps as well as RFC 3339, the
// format the Agile API uses for sprint dates.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
