package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/git"
	"github.com/Onnokh/bookr/internal/issue"
	"github.com/Onnokh/bookr/internal/jira"
	"github.com/Onnokh/bookr/internal/ledger"
	"github.com/Onnokh/bookr/internal/tempo"
	"github.com/Onnokh/bookr/internal/timeparse"
	"github.com/Onnokh/bookr/internal/worklog"
)

const timeHint = `use a duration like "2h", "1h30m", "45m" or "1.5"`

var (
	logMessage string
	logDate    string
)

// branch returns the current Git branch; replaced in tests.
var branch = func() (string, error) { return git.Repo{}.CurrentBranch() }

var logCmd = &cobra.Command{
	Use:   "log [ticket] <time>",
	Short: "Log time against a ticket (the default command)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLog,
}

func init() {
	addLogFlags(logCmd)
	rootCmd.AddCommand(logCmd)
}

func addLogFlags(c *cobra.Command) {
	c.Flags().StringVarP(&logMessage, "message", "m", "", "description of the work done")
	c.Flags().StringVarP(&logDate, "date", "d", "", "day to log the time on (YYYY-MM-DD)")
}

// splitLogArgs separates the optional ticket from the duration.
func splitLogArgs(args []string) (ticket, duration string, err error) {
	switch len(args) {
	case 2:
		return args[0], args[1], nil
	case 1:
		if issue.LooksLikeKey(args[0]) && !timeparse.Valid(args[0]) {
			return "", "", withHint(errors.New("no time given"), timeHint)
		}
		return "", args[0], nil
	}
	return "", "", withHint(errors.New("no time given"), timeHint)
}

// startTime is now, or the time of day of now on the given day.
func startTime(date string, now time.Time) (time.Time, error) {
	if date == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(worklog.DateLayout, date, now.Location())
	if err != nil {
		return time.Time{}, withHint(fmt.Errorf("invalid date %q", date), "use the YYYY-MM-DD format, e.g. 2024-01-15")
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, now.Location()), nil
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ticket, duration, err := splitLogArgs(args)
	if err != nil {
		return err
	}
	seconds, err := timeparse.Parse(duration)
	if err != nil {
		return withHint(fmt.Errorf("invalid time %q: %w", duration, err), timeHint)
	}
	if seconds <= 0 {
		return withHint(fmt.Errorf("time must be greater than zero, got %q", duration), timeHint)
	}
	started, err := startTime(logDate, now())
	if err != nil {
		return err
	}

	resolver := issue.Resolver{Issues: app.jira, Branch: branch}
	iss, err := resolver.Resolve(ctx, ticket)
	if err != nil {
		return err
	}
	me, err := app.jira.Myself(ctx)
	if err != nil {
		return fmt.Errorf("fetching current user: %w", err)
	}

	entry := ledger.Entry{
		IssueKey:         iss.Key,
		IssueID:          iss.ID,
		IssueSummary:     iss.Fields.Summary,
		TimeSpent:        timeparse.Format(seconds),
		TimeSpentSeconds: seconds,
		Comment:          logMessage,
		Started:          started,
		Author:           ledger.Author{AccountID: me.AccountID, DisplayName: me.DisplayName},
	}

	if app.tempo != nil {
		rec, err := app.tempo.CreateWorklog(ctx, tempo.NewWorklog{
			IssueID:     iss.ID,
			AccountID:   me.AccountID,
			Seconds:     seconds,
			Started:     started,
			Description: logMessage,
		})
		if err != nil {
			return fmt.Errorf("logging time to %s: %w", iss.Key, err)
		}
		entry.ID, entry.SecondaryID, entry.Source = rec.ID, rec.SecondaryID, worklog.FromTempo
	} else {
		wl, err := app.jira.AddWorklog(ctx, iss.Key, jira.NewWorklog{
			Seconds: seconds,
			Comment: logMessage,
			Started: started,
		})
		if err != nil {
			return fmt.Errorf("logging time to %s: %w", iss.Key, err)
		}
		entry.ID, entry.Source = wl.ID, worklog.FromJira
	}

	app.ledger.Record(entry)
	if n := app.ledger.MaybeCleanup(); n > 0 {
		app.log.Debug().Int("removed", n).Msg("pruned old ledger entries")
	}
	app.log.Info().Str("issue", iss.Key).Str("worklog", entry.ID).Int("seconds", seconds).
		Str("source", string(entry.Source)).Msg("worklog created")

	fmt.Fprintf(out, "%s %s to %s %s\n",
		successStyle.Render("✓ Logged"), timeparse.Describe(seconds), keyStyle.Render(iss.Key), iss.Fields.Summary)
	if logDate != "" {
		fmt.Fprintf(out, "  on %s\n", started.Format("Mon 02 Jan 2006"))
	}
	fmt.Fprintf(out, "  Worklog ID: %s\n", entry.ID)
	fmt.Fprintln(out, hintStyle.Render("  Undo with: bookr undo "+entry.ID))
	return nil
}
