package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/picker"
	"github.com/arborworks/arbor/cmd/arbor/cli/project"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

func newCleanCmd() *cobra.Command {
	var (
		dryRun bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove records whose directories no longer exist",
		Long: "Re-check every project and worktree against the filesystem and " +
			"drop store records that point at missing or corrupted directories. " +
			"Nothing on disk is deleted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return runClean(cmd.OutOrStdout(), cmd, app, dryRun, force)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report stale records without removing them")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove stale records without confirmation")

	return cmd
}

func runClean(w io.Writer, cmd *cobra.Command, app *App, dryRun, force bool) error {
	ctx := cmd.Context()

	projects, statuses, err := app.Projects.ListValidated()
	if err != nil {
		return err
	}

	var staleProjects []*store.Project
	var staleWorktrees []*store.Worktree
	for i, proj := range projects {
		if statuses[i] != project.StatusValid {
			fmt.Fprintf(w, "✕ %s [%s]\n", proj.Name, statuses[i])
			staleProjects = append(staleProjects, proj)
			continue
		}

		worktrees, err := app.Worktrees.List(proj.ID)
		if err != nil {
			return err
		}
		for _, wt := range worktrees {
			if _, statErr := os.Stat(wt.Path); statErr == nil {
				continue
			}
			fmt.Fprintf(w, "✕ %s: worktree %s is gone (%s)\n", proj.Name, wt.Branch, wt.Path)
			staleWorktrees = append(staleWorktrees, wt)
		}
	}

	total := len(staleProjects) + len(staleWorktrees)
	if total == 0 {
		fmt.Fprintln(w, "✓ everything checks out")
		return nil
	}
	if dryRun {
		fmt.Fprintf(w, "%d stale record(s); rerun without --dry-run to remove them\n", total)
		return nil
	}
	if !force {
		ok, err := picker.Confirm(fmt.Sprintf("Remove %d stale record(s)?", total))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	for _, proj := range staleProjects {
		if err := cleanProjectRecord(cmd, app, proj); err != nil {
			return err
		}
	}
	for _, wt := range staleWorktrees {
		if err := app.Sessions.KillForWorktree(ctx, wt.ID); err != nil {
			return err
		}
		if err := app.Store.DeleteWorktree(wt.ID); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "✓ removed %d stale record(s)\n", total)
	return nil
}

// cleanProjectRecord drops a project row and its cascade. Backend sessions
// for its worktrees are killed first so nothing keeps running unrecorded.
func cleanProjectRecord(cmd *cobra.Command, app *App, proj *store.Project) error {
	worktrees, err := app.Worktrees.List(proj.ID)
	if err != nil {
		return err
	}
	for _, wt := range worktrees {
		if err := app.Sessions.KillForWorktree(cmd.Context(), wt.ID); err != nil {
			return err
		}
	}
	return app.Store.DeleteProject(proj.ID)
}
