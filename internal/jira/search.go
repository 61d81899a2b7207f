package jira

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Onnokh/bookr/internal/worklog"
)

// searchLimit bounds how many issues a date-range search inspects.
const searchLimit = 500

// WorklogSearch reads the current user's worklogs straight from Jira. It is
// the worklog source used when no time-tracking token is configured.
type WorklogSearch struct {
	Client *Client
	Logger zerolog.Logger
}

// FetchForUser finds issues with worklogs by the current user in range and
// returns those worklogs authored by accountID that started in [from, to].
// Issues whose worklogs cannot be read are skipped.
func (s *WorklogSearch) FetchForUser(ctx context.Context, accountID string, from, to time.Time) ([]worklog.Record, error) {
	jql := fmt.Sprintf(`worklogDate >= "%s" AND worklogDate <= "%s" AND worklogAuthor = currentUser() ORDER BY updated DESC`,
		from.Format(worklog.DateLayout), to.Format(worklog.DateLayout))
	issues, err := s.Client.SearchIssues(ctx, jql, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching worklogs: %w", err)
	}
	s.Logger.Debug().Int("issues", len(issues)).Msg("issues with worklogs in range")

	var out []worklog.Record
	for _, is := range issues {
		wls, err := s.Client.IssueWorklogs(ctx, is.Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.Logger.Warn().Err(err).Str("issue", is.Key).Msg("could not fetch worklogs")
			continue
		}
		for _, w := range wls {
			if accountID != "" && w.Author.AccountID != accountID {
				continue
			}
			started, ok := w.StartedAt()
			if !ok || started.Before(from) || started.After(to) {
				continue
			}
			out = append(out, worklog.Record{
				ID:         w.ID,
				Seconds:    worklog.ClampSeconds(w.TimeSpentSeconds),
				Comment:    FlattenADF(w.Comment),
				Started:    started,
				Issue:      worklog.IssueRef{ID: is.ID, Key: is.Key, Summary: is.Fields.Summary},
				Provenance: worklog.FromJira,
			})
		}
	}
	return out, nil
}
