package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/enrich"
	"github.com/Onnokh/bookr/internal/jira"
	"github.com/Onnokh/bookr/internal/logging"
	"github.com/Onnokh/bookr/internal/report"
	"github.com/Onnokh/bookr/internal/worklog"
)

const fallbackDays = 14

var outputFormat string

func addOutputFlag(c *cobra.Command) {
	c.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")
}

// source returns where worklogs are read from: Tempo when configured,
// otherwise a Jira worklog search.
func (a *application) source() worklog.Source {
	if a.tempo != nil {
		return a.tempo
	}
	return &jira.WorklogSearch{Client: a.jira, Logger: logging.Component(a.log, "search")}
}

// loader builds a view loader for the authenticated user.
func (a *application) loader(ctx context.Context) (*worklog.Loader, error) {
	me, err := a.jira.Myself(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	e := enrich.New(a.jira)
	e.Logger = logging.Component(a.log, "enrich")
	return &worklog.Loader{
		Source:   a.source(),
		Enricher: e,
		UserID:   me.AccountID,
		Logger:   logging.Component(a.log, "loader"),
	}, nil
}

// sprintRange returns the active sprint's title and range, or the last
// fallbackDays days with a note when no sprint is active.
func (a *application) sprintRange(ctx context.Context, today time.Time) (title string, from, to time.Time, notes []string, err error) {
	s, err := a.jira.ActiveSprint(ctx)
	if err == nil {
		if start, end, ok := s.Range(); ok {
			return s.Name, worklog.StartOfDay(start.In(time.Local)), worklog.EndOfDay(end.In(time.Local)), nil, nil
		}
		a.log.Debug().Str("sprint", s.Name).Msg("active sprint has no dates")
	} else if !isMissingSprint(err) {
		return "", time.Time{}, time.Time{}, nil, fmt.Errorf("finding active sprint: %w", err)
	}

	from = worklog.StartOfDay(today.AddDate(0, 0, -(fallbackDays - 1)))
	to = worklog.EndOfDay(today)
	note := fmt.Sprintf("No active sprint found; showing the last %d days.", fallbackDays)
	return fmt.Sprintf("Last %d days", fallbackDays), from, to, []string{note}, nil
}

// isMissingSprint reports errors that mean "no sprint to show" rather than
// a failed request. Sites without Jira Software answer the agile API with 404.
func isMissingSprint(err error) bool {
	var apiErr *jira.APIError
	return errors.Is(err, jira.ErrNoActiveSprint) || errors.Is(err, jira.ErrNoBoards) ||
		(errors.As(err, &apiErr) && apiErr.NotFound())
}

func render(cmd *cobra.Command, r *report.Report) error {
	renderer, err := report.New(outputFormat)
	if err != nil {
		return withHint(err, "use --output text, json or yaml")
	}
	b, err := renderer.Render(r)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
