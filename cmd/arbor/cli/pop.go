package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/session"
)

func newPopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "Jump back to the previously used session",
		Long: "Switch to the most recently used session other than the current " +
			"one. Popping does not record history, so repeated pops toggle " +
			"between the two most recent workspaces.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return runPop(cmd.OutOrStdout(), cmd, app)
		},
	}
}

func runPop(w io.Writer, cmd *cobra.Command, app *App) error {
	outcome, err := app.Sessions.Pop(cmd.Context())
	if err != nil {
		return err
	}
	switch outcome {
	case session.OutcomeSwitched:
		fmt.Fprintln(w, "✓ switched to previous session")
	case session.OutcomeOpened:
		fmt.Fprintln(w, "✓ opened previous workspace")
	}
	return nil
}
