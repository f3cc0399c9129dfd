package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arborworks/arbor/cmd/arbor/cli"
	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := apperrors.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		cancel()
		os.Exit(1)
	}
	cancel() // Cleanup on successful exit
}
