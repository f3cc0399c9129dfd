package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [project]",
		Short: "Fetch remote refs for one project or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runFetch(cmd.OutOrStdout(), cmd, app, name)
		},
	}
}

func runFetch(w io.Writer, cmd *cobra.Command, app *App, name string) error {
	ctx := cmd.Context()

	if name != "" {
		proj, err := app.Projects.Resolve(name)
		if err != nil {
			return err
		}
		if err := app.Projects.Fetch(ctx, proj.ID); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ fetched %s\n", proj.Name)
		return nil
	}

	projects, err := app.Projects.List()
	if err != nil {
		return err
	}
	for _, proj := range projects {
		if err := app.Projects.Fetch(ctx, proj.ID); err != nil {
			fmt.Fprintf(w, "✕ %s: %v\n", proj.Name, err)
			continue
		}
		fmt.Fprintf(w, "✓ fetched %s\n", proj.Name)
	}
	return nil
}
