package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/picker"
	"github.com/arborworks/arbor/cmd/arbor/cli/session"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

func newSwitchCmd() *cobra.Command {
	var (
		projectName  string
		createBranch bool
	)

	cmd := &cobra.Command{
		Use:   "switch [branch]",
		Short: "Switch to a branch workspace",
		Long: "Ensure a worktree and session exist for the branch and enter the " +
			"session. With no branch argument, pick one interactively.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			branch := ""
			if len(args) == 1 {
				branch = args[0]
			}
			return runSwitch(cmd.OutOrStdout(), cmd, app, projectName, branch, createBranch)
		},
	}

	cmd.Flags().StringVarP(&projectName, "project", "p", "", "Project to switch within (host/user/repo or unique suffix)")
	cmd.Flags().BoolVarP(&createBranch, "create", "c", false, "Create the branch if it does not exist")

	return cmd
}

func runSwitch(w io.Writer, cmd *cobra.Command, app *App, projectName, branch string, createBranch bool) error {
	ctx := cmd.Context()

	proj, err := resolveProjectArg(app, projectName)
	if err != nil {
		return err
	}

	if branch == "" {
		branch, err = pickBranch(app, proj)
		if err != nil {
			return err
		}
		if branch == "" {
			fmt.Fprintln(w, "No branch selected.")
			return nil
		}
	}

	if createBranch {
		if err := app.Git.CreateBranch(ctx, proj.ClonePath, branch); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ created branch %s\n", branch)
	}

	wt, err := app.Worktrees.SwitchBranch(ctx, proj.ID, branch, "")
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) && notFound.Entity == apperrors.EntityBranch && !createBranch {
			created, confirmErr := offerBranchCreation(ctx, w, app, proj, branch)
			if confirmErr != nil {
				return confirmErr
			}
			if !created {
				return err
			}
			wt, err = app.Worktrees.SwitchBranch(ctx, proj.ID, branch, "")
		}
		if err != nil {
			return err
		}
	}

	outcome, err := app.Sessions.SwitchTo(ctx, wt.ID)
	if err != nil {
		return err
	}
	reportOutcome(w, outcome, branch)
	return nil
}

// resolveProjectArg maps the --project flag (or its absence) to a project.
// With no flag: a single registered project is used implicitly, several
// prompt for a choice.
func resolveProjectArg(app *App, name string) (*store.Project, error) {
	if name != "" {
		return app.Projects.Resolve(name)
	}

	projects, err := app.Projects.List()
	if err != nil {
		return nil, err
	}
	switch len(projects) {
	case 0:
		return nil, &apperrors.NotFoundError{
			Entity: apperrors.EntityProject,
			Name:   "(none registered)",
			Hint:   "clone one first with: arbor clone <url>",
		}
	case 1:
		return projects[0], nil
	}

	items := make([]picker.Item, 0, len(projects))
	for _, p := range projects {
		items = append(items, picker.Item{
			Display: fmt.Sprintf("%s (%s)", p.DisplayName, p.Name),
			Value:   strconv.FormatInt(p.ID, 10),
		})
	}
	selected, err := app.Picker.Pick(items, picker.Options{Title: "Select a project"})
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, &apperrors.InvalidInputError{Field: "project", Value: "(none selected)"}
	}
	id, err := strconv.ParseInt(selected[0], 10, 64)
	if err != nil {
		return nil, &apperrors.InvalidInputError{Field: "project", Value: selected[0]}
	}
	return app.Projects.Get(id)
}

// pickBranch prompts over the branches visible from the primary clone.
// An empty return means the user cancelled.
func pickBranch(app *App, proj *store.Project) (string, error) {
	branches, err := app.Git.ListBranches(proj.ClonePath)
	if err != nil {
		return "", err
	}

	items := make([]picker.Item, 0, len(branches))
	for _, b := range branches {
		items = append(items, picker.Item{Display: b, Value: b})
	}
	selected, err := app.Picker.Pick(items, picker.Options{Title: "Select a branch"})
	if err != nil {
		return "", err
	}
	if len(selected) == 0 {
		return "", nil
	}
	return selected[0], nil
}

// offerBranchCreation asks whether to create a missing branch. Declining,
// or a non-interactive terminal, reports false so the caller surfaces the
// original not-found error.
func offerBranchCreation(ctx context.Context, w io.Writer, app *App, proj *store.Project, branch string) (bool, error) {
	confirmed, err := picker.Confirm(fmt.Sprintf("Branch '%s' does not exist. Create it?", branch))
	if err != nil || !confirmed {
		return false, err
	}
	if err := app.Git.CreateBranch(ctx, proj.ClonePath, branch); err != nil {
		return false, err
	}
	fmt.Fprintf(w, "✓ created branch %s\n", branch)
	return true, nil
}

func reportOutcome(w io.Writer, outcome session.Outcome, branch string) {
	switch outcome {
	case session.OutcomeSwitched:
		fmt.Fprintf(w, "✓ switched to %s\n", branch)
	case session.OutcomeOpened:
		fmt.Fprintf(w, "✓ opened workspace for %s\n", branch)
	}
}
