package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/picker"
)

func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project> [branch]",
		Short: "Delete a project or a single branch worktree",
		Long: "With only a project name, remove the project, all its worktrees, " +
			"sessions, and the clone itself. With a branch, remove just that " +
			"branch's worktree and session. The branch itself is never deleted.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			branch := ""
			if len(args) == 2 {
				branch = args[1]
			}
			return runDelete(cmd.OutOrStdout(), cmd, app, args[0], branch, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func runDelete(w io.Writer, cmd *cobra.Command, app *App, projectName, branch string, force bool) error {
	ctx := cmd.Context()

	proj, err := app.Projects.Resolve(projectName)
	if err != nil {
		return err
	}

	if branch != "" {
		wt, err := app.Store.GetWorktreeByBranch(proj.ID, branch)
		if err != nil {
			return err
		}
		if wt == nil {
			return &apperrors.NotFoundError{Entity: apperrors.EntityWorktree, Name: branch}
		}

		if !force {
			ok, err := picker.Confirm(fmt.Sprintf("Delete worktree for '%s'? Uncommitted changes will be lost.", branch))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(w, "Aborted.")
				return nil
			}
		}

		if err := app.Sessions.KillForWorktree(ctx, wt.ID); err != nil {
			return err
		}
		if err := app.Worktrees.Delete(ctx, wt.ID); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ deleted worktree %s\n", wt.Path)
		return nil
	}

	if !force {
		ok, err := picker.Confirm(fmt.Sprintf("Delete project '%s' and all its worktrees?", proj.Name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	worktrees, err := app.Worktrees.List(proj.ID)
	if err != nil {
		return err
	}
	for _, wt := range worktrees {
		if err := app.Sessions.KillForWorktree(ctx, wt.ID); err != nil {
			return err
		}
	}

	if err := app.Projects.Delete(ctx, proj.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ deleted project %s\n", proj.Name)
	return nil
}
