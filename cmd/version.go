package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/update"
)

// newChecker is replaced in tests.
var newChecker = update.NewChecker

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and check for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bookr %s\n", version)

		// The check is best effort; it never fails the command.
		checker, err := newChecker(version, zerolog.Nop())
		if err != nil {
			return nil
		}
		if res := checker.Check(cmd.Context()); res != nil {
			fmt.Fprintf(out, "%s %s → %s\n", successStyle.Render("Update available:"), res.Current, res.Latest)
			fmt.Fprintln(out, hintStyle.Render("  https://github.com/Onnokh/bookr/releases/latest"))
		}
		return nil
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("bookr {{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
}
