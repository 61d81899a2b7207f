// Package worklog holds the canonical worklog record shared by both remote
// sources and the reconciliation that turns a batch of records into a
// deduplicated, date-grouped view.
package worklog

import "time"

// Provenance names the system a record was read from.
type Provenance string

const (
	FromJira  Provenance = "jira"
	FromTempo Provenance = "tempo"
)

// IssueRef identifies the issue a worklog belongs to. Key and Summary may be
// empty until the record is enriched.
type IssueRef struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Key     string `json:"key" yaml:"key"`
	Summary string `json:"summary" yaml:"summary"`
}

// Record is one logged span of time regardless of origin.
//
// ID is the time-tracking (Tempo) ID when the record has one, otherwise the
// Jira worklog ID. SecondaryID holds the Jira worklog ID when both exist.
type Record struct {
	ID          string     `json:"id" yaml:"id"`
	SecondaryID string     `json:"secondaryId,omitempty" yaml:"secondaryId,omitempty"`
	Seconds     int        `json:"timeSpentSeconds" yaml:"timeSpentSeconds"`
	Comment     string     `json:"comment,omitempty" yaml:"comment,omitempty"`
	Started     time.Time  `json:"started" yaml:"started"`
	Issue       IssueRef   `json:"issue" yaml:"issue"`
	Provenance  Provenance `json:"source" yaml:"source"`
}

// JiraID returns the Jira worklog ID of r, or "" when only a Tempo ID is
// known.
func (r Record) JiraID() string {
	if r.Provenance == FromJira {
		return r.ID
	}
	return r.SecondaryID
}

// Matches reports whether id is either of r's identifiers.
func (r Record) Matches(id string) bool {
	return id != "" && (r.ID == id || r.SecondaryID == id)
}

// ClampSeconds maps missing or negative durations to 0 so aggregation never
// has to special-case them.
func ClampSeconds(s int) int {
	if s < 0 {
		return 0
	}
	return s
}
