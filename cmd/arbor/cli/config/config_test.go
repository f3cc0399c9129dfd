package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Workspace.ProjectsDir = "/srv/projects"
	cfg.Session.Backend = "zellij"
	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestWorktreePathSanitizesBranch(t *testing.T) {
	cfg := Default()
	cfg.Workspace.WorktreesDir = "/work"

	got := cfg.WorktreePath("github.com/acme/widgets", "feature/login")
	assert.Equal(t, filepath.Join("/work", "github.com/acme/widgets", "feature-login"), got)
}

func TestClonePath(t *testing.T) {
	cfg := Default()
	cfg.Workspace.ProjectsDir = "/proj"

	assert.Equal(t, filepath.Join("/proj", "github.com/acme/widgets"),
		cfg.ClonePath("github.com/acme/widgets"))
}
