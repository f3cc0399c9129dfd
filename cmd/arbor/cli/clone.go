package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	var clonePath string

	cmd := &cobra.Command{
		Use:   "clone <url>",
		Short: "Clone a repository and register it as a project",
		Long: "Clone a repository into the projects directory and record it. " +
			"The clone becomes the project's primary worktree; use 'arbor switch' " +
			"to open per-branch worktrees.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return runClone(cmd.OutOrStdout(), cmd, app, args[0], clonePath)
		},
	}

	cmd.Flags().StringVar(&clonePath, "path", "", "Clone into this directory instead of the projects dir")

	return cmd
}

func runClone(w io.Writer, cmd *cobra.Command, app *App, url, clonePath string) error {
	fmt.Fprintf(w, "Cloning %s...\n", url)

	proj, err := app.Projects.Clone(cmd.Context(), url, clonePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ cloned %s into %s\n", proj.Name, proj.ClonePath)
	fmt.Fprintf(w, "  default branch: %s\n", proj.DefaultBranch)
	fmt.Fprintf(w, "\nRun 'arbor switch --project %s' to open a workspace.\n", proj.DisplayName)
	return nil
}
