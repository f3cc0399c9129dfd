// Package paths resolves the directories arbor reads and writes. Nothing
// here consults environment override variables: the resolved config
// directory is passed explicitly to whoever needs it.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppDirName is the directory name used under the platform config dir.
	AppDirName = "arbor"

	// DBFileName is the metadata store file inside the config dir.
	DBFileName = "arbor.db"

	// LogsDirName is the log directory inside the config dir.
	LogsDirName = "logs"

	// ConfigFileName is the TOML configuration file inside the config dir.
	ConfigFileName = "config.toml"
)

// DefaultConfigDir returns the per-user configuration directory,
// e.g. ~/.config/arbor on Linux.
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining user config dir: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// DBPath returns the metadata store path inside configDir.
func DBPath(configDir string) string {
	return filepath.Join(configDir, DBFileName)
}

// LogsDir returns the log directory inside configDir.
func LogsDir(configDir string) string {
	return filepath.Join(configDir, LogsDirName)
}

// ConfigFile returns the TOML config path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// ExpandTilde resolves a leading "~/" against the user's home directory.
// Paths without the prefix are returned unchanged.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// SanitizeBranch maps a branch name onto a single filesystem path segment.
// Separators and shell-hostile characters become hyphens; "feature/foo"
// and "feature-foo" intentionally collide because both occupy the same
// directory slot.
func SanitizeBranch(branch string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-", "#", "-", "%", "-", "&", "-",
	)
	return replacer.Replace(branch)
}
