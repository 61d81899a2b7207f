package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/report"
	"github.com/Onnokh/bookr/internal/worklog"
)

var todayWatch bool

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's worklogs and total time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader, err := app.loader(ctx)
		if err != nil {
			return err
		}
		show := func() error {
			t := now()
			view, err := loader.Today(ctx, t)
			if err != nil {
				return err
			}
			return render(cmd, &report.Report{
				Title: "Today",
				From:  worklog.StartOfDay(t),
				To:    worklog.EndOfDay(t),
				View:  view,
			})
		}
		if err := show(); err != nil {
			return err
		}
		if !todayWatch {
			return nil
		}
		return watchLedger(ctx, app.ledgerPath, func() {
			if err := show(); err != nil {
				printError(cmd.ErrOrStderr(), err)
			}
		})
	},
}

func init() {
	addOutputFlag(todayCmd)
	todayCmd.Flags().BoolVarP(&todayWatch, "watch", "w", false, "re-render whenever a worklog is logged or undone")
	rootCmd.AddCommand(todayCmd)
}

// watchLedger calls onChange after every write to the ledger file until ctx
// is cancelled. The directory is watched because the ledger is replaced by
// rename on every write.
func watchLedger(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := ensureDir(dir); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				app.log.Debug().Str("event", ev.Op.String()).Msg("ledger changed")
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			app.log.Warn().Err(err).Msg("ledger watcher error")
		}
	}
}
