package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Onnokh/bookr/internal/progress"
	"github.com/Onnokh/bookr/internal/report"
	"github.com/Onnokh/bookr/internal/worklog"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show daily progress against your required hours for the active sprint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		today := now()

		title, from, to, notes, err := app.sprintRange(ctx, today)
		if err != nil {
			return err
		}
		// Days still to come would only drag the total down.
		if end := worklog.EndOfDay(today); to.After(end) {
			to = end
		}

		loader, err := app.loader(ctx)
		if err != nil {
			return err
		}
		view, err := loader.Load(ctx, from, to)
		if err != nil {
			return err
		}

		scheme := app.workloadScheme(ctx, loader.UserID)
		days := progress.Daily(view, from, to, scheme)
		total := progress.TotalPercent(days)
		return renderProgress(cmd, title, scheme, notes, days, total)
	},
}

func init() {
	addOutputFlag(progressCmd)
	rootCmd.AddCommand(progressCmd)
}

// workloadScheme returns the user's Tempo workload scheme, or the default
// scheme when Tempo is not configured or the lookup fails.
func (a *application) workloadScheme(ctx context.Context, accountID string) progress.Scheme {
	if a.tempo == nil {
		return progress.DefaultScheme()
	}
	ws, err := a.tempo.UserWorkloadScheme(ctx, accountID)
	if err != nil {
		a.log.Warn().Err(err).Msg("workload scheme unavailable, using default")
		return progress.DefaultScheme()
	}
	return progress.FromTempo(ws)
}

type progressDocument struct {
	Title        string         `json:"title" yaml:"title"`
	Scheme       string         `json:"scheme" yaml:"scheme"`
	Notes        []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Days         []progress.Day `json:"days" yaml:"days"`
	TotalPercent float64        `json:"totalPercent" yaml:"totalPercent"`
}

func renderProgress(cmd *cobra.Command, title string, scheme progress.Scheme, notes []string, days []progress.Day, total float64) error {
	out := cmd.OutOrStdout()
	doc := progressDocument{Title: title, Scheme: scheme.Name, Notes: notes, Days: days, TotalPercent: total}
	switch outputFormat {
	case "", "text":
		for _, n := range notes {
			fmt.Fprintln(out, hintStyle.Render(n))
		}
		fmt.Fprint(out, report.RenderProgress(title, days, total))
		fmt.Fprintln(out, hintStyle.Render("Scheme: "+scheme.Name))
		return nil
	case "json":
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	case "yaml", "yml":
		b, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	}
	return withHint(fmt.Errorf("unknown output format %q", outputFormat), "use --output text, json or yaml")
}

