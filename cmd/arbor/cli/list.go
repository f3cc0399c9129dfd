package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/project"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects and their worktrees",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return runList(cmd.OutOrStdout(), cmd, app)
		},
	}
	return cmd
}

func runList(w io.Writer, cmd *cobra.Command, app *App) error {
	projects, statuses, err := app.Projects.ListValidated()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects registered. Run 'arbor clone <url>' to add one.")
		return nil
	}

	for i, proj := range projects {
		marker := "✓"
		if statuses[i] != project.StatusValid {
			marker = "✕"
		}
		fmt.Fprintf(w, "%s %s", marker, proj.Name)
		if statuses[i] != project.StatusValid {
			fmt.Fprintf(w, " [%s]", statuses[i])
		}
		fmt.Fprintln(w)

		worktrees, err := app.Worktrees.List(proj.ID)
		if err != nil {
			return err
		}
		for _, wt := range worktrees {
			sessionMark := "○"
			if sess, err := app.Store.GetSessionForWorktree(wt.ID); err == nil && sess != nil {
				if app.Backend.Exists(cmd.Context(), sess.SessionName) {
					sessionMark = "●"
				}
			}
			primary := ""
			if wt.IsPrimary {
				primary = " (primary)"
			}
			fmt.Fprintf(w, "  %s %s%s\n      %s\n", sessionMark, wt.Branch, primary, wt.Path)
		}
	}
	return nil
}
