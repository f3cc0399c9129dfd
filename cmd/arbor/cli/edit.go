package cli

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/config"
	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
	"github.com/arborworks/arbor/cmd/arbor/cli/picker"
)

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in your editor",
		Long: "Open the arbor config in $VISUAL or $EDITOR, creating it with " +
			"defaults first if needed, and validate the result.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, err := paths.DefaultConfigDir()
			if err != nil {
				return err
			}
			return runEdit(cmd.OutOrStdout(), configDir)
		},
	}
}

// configEditor prefers $VISUAL over $EDITOR, falling back to vi.
func configEditor() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

func runEdit(w io.Writer, configDir string) error {
	configPath := paths.ConfigFile(configDir)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configDir, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(w, "Created default config at %s\n", configPath)
	}

	before, err := hashFile(configPath)
	if err != nil {
		return err
	}

	editor := configEditor()
	for {
		if err := openInEditor(editor, configPath); err != nil {
			return err
		}

		after, err := hashFile(configPath)
		if err != nil {
			return err
		}
		if bytes.Equal(before, after) {
			fmt.Fprintln(w, "No changes made.")
			return nil
		}

		if _, err := config.Load(configDir); err != nil {
			fmt.Fprintf(w, "✕ %v\n", err)
			again, confirmErr := picker.Confirm("The config has errors. Edit again?")
			if confirmErr != nil {
				return confirmErr
			}
			if again {
				continue
			}
			return &apperrors.InvalidInputError{Field: "config", Value: configPath}
		}

		fmt.Fprintf(w, "✓ config saved: %s\n", configPath)
		return nil
	}
}

func hashFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path derives from the config dir
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func openInEditor(editor, path string) error {
	cmd := exec.Command(editor, path) //nolint:gosec // editor comes from the user's own environment
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor %s: %w", editor, err)
	}
	return nil
}
