package undo

import (
	"context"
	"errors"

	"github.com/Onnokh/bookr/internal/worklog"
)

// JiraDeleter deletes native Jira worklogs.
type JiraDeleter interface {
	DeleteWorklog(ctx context.Context, issueKeyOrID, worklogID string) error
}

// TempoDeleter deletes time-tracking worklogs.
type TempoDeleter interface {
	DeleteWorklog(ctx context.Context, id string) error
}

// RemoteDeleter routes a delete to the system the record came from. Tempo
// may be nil when no time-tracking token is configured.
type RemoteDeleter struct {
	Jira  JiraDeleter
	Tempo TempoDeleter
}

var errNoTempo = errors.New("worklog was created in Tempo but no Tempo token is configured")

func (d RemoteDeleter) Delete(ctx context.Context, r worklog.Record) error {
	if r.Provenance == worklog.FromTempo {
		if d.Tempo == nil {
			return errNoTempo
		}
		return d.Tempo.DeleteWorklog(ctx, r.ID)
	}
	issue := r.Issue.Key
	if issue == "" {
		issue = r.Issue.ID
	}
	return d.Jira.DeleteWorklog(ctx, issue, r.ID)
}
