package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/config"
	"github.com/Onnokh/bookr/internal/prompt"
	"github.com/Onnokh/bookr/internal/xdg"
)

// initForm is replaced in tests.
var initForm = prompt.InitForm

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up your Jira and Tempo credentials (re-run anytime to edit them)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !isInteractive() {
			return withHint(errNotInteractive, "set JIRA_BASE_URL, JIRA_EMAIL and JIRA_API_TOKEN in the environment instead")
		}

		path, err := xdg.ConfigFile()
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		// Prefill from what is already there; a broken file starts from scratch.
		existing, err := config.Load(path)
		if err != nil {
			existing = config.Defaults()
		}

		creds, err := initForm(prompt.Credentials{
			BaseURL:    existing.JiraBaseURL,
			Email:      existing.JiraEmail,
			JiraToken:  existing.JiraAPIToken,
			TempoToken: existing.TempoAPIToken,
		})
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(out, "Setup cancelled; nothing was saved.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("setup: %w", err)
		}

		cfg := existing
		cfg.JiraBaseURL = creds.BaseURL
		cfg.JiraEmail = creds.Email
		cfg.JiraAPIToken = creds.JiraToken
		cfg.TempoAPIToken = creds.TempoToken
		cfg = config.Merge(&cfg, nil)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(out, "%s %s\n", successStyle.Render("✓ Saved"), path)
		if !cfg.HasTempo() {
			fmt.Fprintln(out, hintStyle.Render("  No Tempo token: worklogs go straight to Jira."))
		}
		fmt.Fprintln(out, "  Log time with: bookr PROJ-123 2h")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
