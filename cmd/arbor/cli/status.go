package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
	"github.com/arborworks/arbor/cmd/arbor/cli/project"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
	"github.com/arborworks/arbor/cmd/arbor/cli/worktree"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [project]",
		Short: "Show arbor's configuration and health",
		Long: "Without arguments, show the configuration and an overall health " +
			"summary. With a project, show each worktree's branch tracking " +
			"state and session liveness.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 1 {
				return runProjectStatus(cmd.OutOrStdout(), cmd, app, args[0])
			}
			return runStatusCmd(cmd.OutOrStdout(), cmd, app)
		},
	}
}

func runStatusCmd(w io.Writer, cmd *cobra.Command, app *App) error {
	configDir, err := paths.DefaultConfigDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "config:    %s\n", paths.ConfigFile(configDir))
	fmt.Fprintf(w, "store:     %s\n", paths.DBPath(configDir))
	fmt.Fprintf(w, "projects:  %s\n", app.Config.ProjectsDir())
	fmt.Fprintf(w, "worktrees: %s\n", app.Config.WorktreesDir())
	fmt.Fprintf(w, "backend:   %s", app.Backend.Kind())
	if current := app.Backend.CurrentSession(); current != "" {
		fmt.Fprintf(w, " (inside session %s)", current)
	}
	fmt.Fprintln(w)

	projects, statuses, err := app.Projects.ListValidated()
	if err != nil {
		return err
	}
	healthy := 0
	for _, status := range statuses {
		if status == project.StatusValid {
			healthy++
		}
	}
	fmt.Fprintf(w, "registered: %d project(s), %d healthy\n", len(projects), healthy)
	if healthy < len(projects) {
		fmt.Fprintln(w, "Run 'arbor clean' to drop records for missing directories.")
	}
	return nil
}

func runProjectStatus(w io.Writer, cmd *cobra.Command, app *App, name string) error {
	proj, err := app.Projects.Resolve(name)
	if err != nil {
		return err
	}

	status, err := app.Projects.Validate(proj.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s [%s]\n", proj.Name, status)
	fmt.Fprintf(w, "  remote: %s\n", proj.RemoteURL)
	fmt.Fprintf(w, "  clone:  %s\n", proj.ClonePath)
	if proj.LastFetchedAt != "" {
		fmt.Fprintf(w, "  last fetched: %s\n", proj.LastFetchedAt)
	}

	worktrees, err := app.Worktrees.List(proj.ID)
	if err != nil {
		return err
	}
	for _, wt := range worktrees {
		fmt.Fprintf(w, "  %s%s\n", wt.Branch, primarySuffix(wt))
		fmt.Fprintf(w, "      path:    %s\n", wt.Path)
		fmt.Fprintf(w, "      branch:  %s\n", describeBranch(app, proj, wt.Branch))
		fmt.Fprintf(w, "      session: %s\n", describeSession(cmd, app, wt.ID))
	}
	return nil
}

func primarySuffix(wt *store.Worktree) string {
	if wt.IsPrimary {
		return " (primary)"
	}
	return ""
}

func describeBranch(app *App, proj *store.Project, branch string) string {
	status, err := app.Worktrees.ValidateBranch(proj, branch)
	if err != nil {
		return "unknown"
	}
	switch status.State {
	case worktree.BranchTracked:
		return "tracked"
	case worktree.BranchLocalOnly:
		if status.Warning != "" {
			return "local only (" + status.Warning + ")"
		}
		return "local only"
	default:
		return "missing"
	}
}

func describeSession(cmd *cobra.Command, app *App, worktreeID int64) string {
	sess, err := app.Store.GetSessionForWorktree(worktreeID)
	if err != nil || sess == nil {
		return "none"
	}
	if app.Backend.Exists(cmd.Context(), sess.SessionName) {
		return sess.SessionName + " (live)"
	}
	return sess.SessionName + " (dead)"
}
