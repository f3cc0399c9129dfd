// Package config loads and saves the arbor TOML configuration.
//
// The config directory is always passed in explicitly; there is no
// process-wide override or package-level state. Callers resolve the
// directory once (flag or paths.DefaultConfigDir) and hand the loaded
// Config to each manager constructor.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
)

// Config is the parsed configuration file.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Session   SessionConfig   `toml:"session"`
}

// WorkspaceConfig sets where clones and worktrees live.
type WorkspaceConfig struct {
	// ProjectsDir is the base directory for cloned projects.
	ProjectsDir string `toml:"projects_dir"`

	// WorktreesDir is the base directory for non-primary worktrees.
	WorktreesDir string `toml:"worktrees_dir"`
}

// SessionConfig selects the session backend.
type SessionConfig struct {
	// Backend is one of "auto", "tmux", "zellij", "screen",
	// "code", "cursor", "zed".
	Backend string `toml:"backend"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			ProjectsDir:  "~/arbor/projects",
			WorktreesDir: "~/arbor/worktrees",
		},
		Session: SessionConfig{
			Backend: "auto",
		},
	}
}

// Load reads the config file inside configDir, returning defaults when the
// file does not exist.
func Load(configDir string) (*Config, error) {
	path := paths.ConfigFile(configDir)

	data, err := os.ReadFile(path) //nolint:gosec // path derives from the config dir
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to the config file inside configDir, creating the
// directory if needed.
func Save(configDir string, cfg *Config) error {
	if err := paths.EnsureDir(configDir); err != nil {
		return err
	}

	f, err := os.Create(paths.ConfigFile(configDir))
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ProjectsDir returns the absolute projects directory.
func (c *Config) ProjectsDir() string {
	return paths.ExpandTilde(c.Workspace.ProjectsDir)
}

// WorktreesDir returns the absolute worktrees directory.
func (c *Config) WorktreesDir() string {
	return paths.ExpandTilde(c.Workspace.WorktreesDir)
}

// WorktreePath returns the default path for a project's branch worktree.
func (c *Config) WorktreePath(projectName, branch string) string {
	return filepath.Join(c.WorktreesDir(), projectName, paths.SanitizeBranch(branch))
}

// ClonePath returns the default clone path for a project name.
func (c *Config) ClonePath(projectName string) string {
	return filepath.Join(c.ProjectsDir(), projectName)
}
