package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/logging"
	"github.com/Onnokh/bookr/internal/prompt"
	"github.com/Onnokh/bookr/internal/report"
	"github.com/Onnokh/bookr/internal/tui"
	"github.com/Onnokh/bookr/internal/undo"
	"github.com/Onnokh/bookr/internal/worklog"
)

var (
	undoYes    bool
	undoSelect bool
	undoDays   int
)

// confirm and pick are replaced in tests.
var (
	confirm = prompt.Confirm
	pick    = tui.Pick
)

var undoCmd = &cobra.Command{
	Use:   "undo [id|last]",
	Short: "Delete a worklog created through bookr",
	Long: `Delete a worklog. Without an ID the most recent worklog logged through
bookr is undone; when there is none, pick one from the last days.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		o := &undo.Orchestrator{
			Ledger:     app.ledger,
			Views:      &lazyViews{app: app},
			Deleter:    app.deleter(),
			Now:        now,
			SearchDays: undoDays,
			Logger:     logging.Component(app.log, "undo"),
			Confirmer: func(r worklog.Record) (bool, error) {
				fmt.Fprint(out, report.RenderEntry(r))
				if undoYes {
					return true, nil
				}
				if !isInteractive() {
					return false, withHint(errNotInteractive, "pass --yes to delete without confirmation")
				}
				return confirm("Delete this worklog?", "")
			},
			Selector: func(candidates []worklog.Record) (worklog.Record, bool, error) {
				if !isInteractive() {
					return worklog.Record{}, false, withHint(errNotInteractive, "pass the worklog ID, e.g. `bookr undo 12345`")
				}
				return pick("Select a worklog to undo", candidates)
			},
		}

		var (
			res undo.Result
			err error
		)
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		if undoSelect {
			res, err = o.Select(ctx)
		} else {
			res, err = o.Undo(ctx, id)
		}
		if err != nil {
			return err
		}
		app.log.Info().Str("outcome", res.Outcome.String()).Str("worklog", res.Record.ID).Msg("undo finished")

		days := undoDays
		if days <= 0 {
			days = undo.DefaultSearchDays
		}
		switch res.Outcome {
		case undo.Deleted:
			fmt.Fprintf(out, "%s worklog %s from %s\n", successStyle.Render("✓ Deleted"), res.Record.ID, keyStyle.Render(issueLabel(res.Record)))
		case undo.AlreadyGone:
			fmt.Fprintf(out, "Worklog %s was already deleted; removed it from the local history.\n", res.Record.ID)
		case undo.Cancelled:
			fmt.Fprintln(out, "Cancelled.")
		case undo.NotFound:
			fmt.Fprintf(out, "No worklog %s found in the local history or the last %d days.\n", id, days)
			fmt.Fprintln(out, hintStyle.Render("  check the worklog ID, or run `bookr undo --select`"))
		case undo.NothingToUndo:
			fmt.Fprintf(out, "Nothing to undo: no worklogs in the last %d days.\n", days)
		}
		return nil
	},
}

func init() {
	undoCmd.Flags().BoolVarP(&undoYes, "yes", "y", false, "delete without asking for confirmation")
	undoCmd.Flags().BoolVarP(&undoSelect, "select", "s", false, "pick the worklog from a list")
	undoCmd.Flags().IntVar(&undoDays, "days", undo.DefaultSearchDays, "how many days back to search and offer for selection")
	rootCmd.AddCommand(undoCmd)
}

func issueLabel(r worklog.Record) string {
	if r.Issue.Key != "" {
		return r.Issue.Key
	}
	return "issue " + r.Issue.ID
}

// deleter routes deletes to Jira or Tempo. Tempo stays nil when no token is
// configured so Tempo records fail with a clear error.
func (a *application) deleter() undo.RemoteDeleter {
	d := undo.RemoteDeleter{Jira: a.jira}
	if a.tempo != nil {
		d.Tempo = a.tempo
	}
	return d
}

// lazyViews builds the view loader on first use, so undoing from the local
// ledger does not touch the remote APIs before the delete.
type lazyViews struct {
	app    *application
	loader *worklog.Loader
}

func (v *lazyViews) get(ctx context.Context) (*worklog.Loader, error) {
	if v.loader != nil {
		return v.loader, nil
	}
	l, err := v.app.loader(ctx)
	if err != nil {
		return nil, err
	}
	v.loader = l
	return l, nil
}

func (v *lazyViews) Today(ctx context.Context, now time.Time) (worklog.View, error) {
	l, err := v.get(ctx)
	if err != nil {
		return worklog.View{}, err
	}
	return l.Today(ctx, now)
}

func (v *lazyViews) LastDays(ctx context.Context, now time.Time, n int) (worklog.View, error) {
	l, err := v.get(ctx)
	if err != nil {
		return worklog.View{}, err
	}
	return l.LastDays(ctx, now, n)
}

