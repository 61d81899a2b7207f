package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/jira"
	"github.com/Onnokh/bookr/internal/prompt"
	"github.com/Onnokh/bookr/internal/report"
	"github.com/Onnokh/bookr/internal/worklog"
)

var sprintHistory bool

// pickBoard and pickSprint are replaced in tests.
var (
	pickBoard  = prompt.Select[int]
	pickSprint = prompt.Select[int]
)

var errNotInteractive = errors.New("this needs an interactive terminal")

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Show worklogs for the active sprint",
	Long: `Show worklogs for the active sprint of your first board. Without an
active sprint the last 14 days are shown instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		today := now()

		var (
			title    string
			from, to time.Time
			notes    []string
			err      error
		)
		if sprintHistory {
			title, from, to, err = chooseSprint(ctx)
		} else {
			title, from, to, notes, err = app.sprintRange(ctx, today)
		}
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		loader, err := app.loader(ctx)
		if err != nil {
			return err
		}
		view, err := loader.Load(ctx, from, to)
		if err != nil {
			return err
		}
		return render(cmd, &report.Report{Title: title, From: from, To: to, View: view, Notes: notes})
	},
}

func init() {
	addOutputFlag(sprintCmd)
	sprintCmd.Flags().BoolVar(&sprintHistory, "history", false, "pick a board and an earlier sprint")
	rootCmd.AddCommand(sprintCmd)
}

// chooseSprint lets the user pick a board, then one of its sprints.
func chooseSprint(ctx context.Context) (title string, from, to time.Time, err error) {
	if !isInteractive() {
		return "", from, to, withHint(errNotInteractive, "run `bookr sprint` without --history to see the active sprint")
	}

	boards, err := app.jira.Boards(ctx)
	if err != nil {
		return "", from, to, fmt.Errorf("listing boards: %w", err)
	}
	if len(boards) == 0 {
		return "", from, to, jira.ErrNoBoards
	}
	boardOpts := make([]prompt.Option[int], 0, len(boards))
	for _, b := range boards {
		boardOpts = append(boardOpts, prompt.Option[int]{Label: b.Name, Value: b.ID})
	}
	boardID, err := pickBoard("Board", boardOpts)
	if err != nil {
		return "", from, to, err
	}

	sprints, err := app.jira.Sprints(ctx, boardID)
	if err != nil {
		return "", from, to, fmt.Errorf("listing sprints: %w", err)
	}
	byID := make(map[int]jira.Sprint, len(sprints))
	sprintOpts := make([]prompt.Option[int], 0, len(sprints))
	for _, s := range sprints {
		if _, _, ok := s.Range(); !ok {
			continue
		}
		byID[s.ID] = s
		sprintOpts = append(sprintOpts, prompt.Option[int]{Label: sprintLabel(s), Value: s.ID})
	}
	if len(sprintOpts) == 0 {
		return "", from, to, fmt.Errorf("board %d has no dated sprints", boardID)
	}
	sprintID, err := pickSprint("Sprint", sprintOpts)
	if err != nil {
		return "", from, to, err
	}

	s := byID[sprintID]
	start, end, _ := s.Range()
	return s.Name, worklog.StartOfDay(start.In(time.Local)), worklog.EndOfDay(end.In(time.Local)), nil
}

func sprintLabel(s jira.Sprint) string {
	start, end, _ := s.Range()
	return fmt.Sprintf("%s (%s, %s)", s.Name, s.State, report.FormatRange(start.In(time.Local), end.In(time.Local)))
}
