package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
)

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the arbor log file",
		Long: "Print the trailing lines of the arbor log. With --follow, keep " +
			"printing new lines until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, err := paths.DefaultConfigDir()
			if err != nil {
				return err
			}
			logPath := filepath.Join(paths.LogsDir(configDir), "arbor.log")
			return runLogs(cmd.Context(), cmd.OutOrStdout(), logPath, lines, follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new log lines as they arrive")
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of trailing lines to show")

	return cmd
}

func runLogs(ctx context.Context, w io.Writer, logPath string, lines int, follow bool) error {
	f, err := os.Open(logPath) //nolint:gosec // path derives from the config dir
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "No log file yet at %s\n", logPath)
			return nil
		}
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	offset, err := printTail(w, f, lines)
	if err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return followLog(ctx, w, f, offset)
}

// printTail prints the last n lines of f and returns the end offset so a
// follower can pick up from there.
func printTail(w io.Writer, f *os.File, n int) (int64, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var kept []string
	for scanner.Scan() {
		kept = append(kept, scanner.Text())
		if len(kept) > n {
			kept = kept[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading log file: %w", err)
	}

	for _, line := range kept {
		fmt.Fprintln(w, line)
	}
	return f.Seek(0, io.SeekEnd)
}

// followLog polls the file for growth and copies new bytes to w until the
// context is cancelled. Truncation or rotation is not chased; restart the
// command to reattach.
func followLog(ctx context.Context, w io.Writer, f *os.File, offset int64) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("watching log file: %w", err)
		}
		if info.Size() <= offset {
			continue
		}

		n, err := io.Copy(w, io.NewSectionReader(f, offset, info.Size()-offset))
		if err != nil {
			return fmt.Errorf("reading log file: %w", err)
		}
		offset += n
	}
}
