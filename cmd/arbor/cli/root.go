// Package cli implements the arbor command tree.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const gettingStarted = `

Getting Started:
  Clone a repository with 'arbor clone <url>', then jump between branch
  workspaces with 'arbor switch'. Each branch gets its own git worktree
  and its own terminal session.

`

const accessibilityHelp = `
Environment Variables:
  ACCESSIBLE    Set to any value (e.g., ACCESSIBLE=1) to enable accessibility
                mode. This uses simpler text prompts instead of interactive
                TUI elements, which works better with screen readers.
`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arbor",
		Short: "Git worktree workspace manager",
		Long:  "Manage per-branch git worktrees and their terminal sessions" + gettingStarted + accessibilityHelp,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCloneCmd())
	cmd.AddCommand(newSwitchCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newPopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("arbor %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
