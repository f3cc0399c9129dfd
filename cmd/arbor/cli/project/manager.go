// Package project owns Project identity: clone, deletion, and validation
// of store records against filesystem reality.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/config"
	"github.com/arborworks/arbor/cmd/arbor/cli/logging"
	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

// Status classifies a project record against the filesystem.
type Status int

const (
	// StatusValid means the clone exists and matches the record.
	StatusValid Status = iota

	// StatusStale means the clone path no longer exists.
	StatusStale

	// StatusCorrupted means the path exists but is not the recorded
	// repository (no .git entry, or a different remote URL).
	StatusCorrupted
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusStale:
		return "stale"
	case StatusCorrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

// Git is the slice of the git collaborator the project manager uses.
type Git interface {
	Clone(ctx context.Context, url, path string) error
	DefaultBranch(path string) (string, error)
	RemoteURL(path string) (string, error)
	RemoveWorktree(ctx context.Context, repoPath, worktreePath string) error
	Fetch(ctx context.Context, path string) error
}

// Manager owns project lifecycle.
type Manager struct {
	store *store.Store
	git   Git
	cfg   *config.Config
}

// NewManager wires a project manager to its collaborators.
func NewManager(st *store.Store, git Git, cfg *config.Config) *Manager {
	return &Manager{store: st, git: git, cfg: cfg}
}

// ParseName derives the canonical "host/user/repo" slug from a clone URL:
// the last three slash-delimited segments with a trailing ".git" stripped.
// scp-style SSH addresses (git@host:user/repo) are normalized first so
// both URL forms of the same repository canonicalize identically.
func ParseName(url string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(url), ".git")

	if i := strings.Index(trimmed, "://"); i >= 0 {
		trimmed = trimmed[i+3:]
	}
	if rest, ok := strings.CutPrefix(trimmed, "git@"); ok {
		// scp style separates host from path with a colon.
		trimmed = strings.Replace(rest, ":", "/", 1)
	}

	parts := strings.Split(trimmed, "/")
	var segments []string
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}

	if len(segments) < 3 {
		return "", &apperrors.InvalidInputError{Field: "repository URL", Value: url}
	}
	return strings.Join(segments[len(segments)-3:], "/"), nil
}

// DisplayName is the repository basename of a canonical project name.
func DisplayName(projectName string) string {
	return path.Base(projectName)
}

// Clone clones url, registers the project, and registers the clone
// directory as its primary worktree. The two inserts are one transaction;
// a project without a primary worktree never exists.
func (m *Manager) Clone(ctx context.Context, url, clonePath string) (*store.Project, error) {
	name, err := ParseName(url)
	if err != nil {
		return nil, err
	}

	if clonePath == "" {
		clonePath = m.cfg.ClonePath(name)
		logging.Debug("using default clone path", slog.String("path", clonePath))
	}

	if _, err := os.Stat(clonePath); err == nil {
		return nil, &apperrors.AlreadyExistsError{Entity: "repository", Path: clonePath}
	}

	if err := paths.EnsureDir(filepath.Dir(clonePath)); err != nil {
		return nil, err
	}

	logging.Info("cloning repository",
		slog.String("project", name), slog.String("url", url))

	if err := m.git.Clone(ctx, url, clonePath); err != nil {
		return nil, err
	}

	defaultBranch, err := m.git.DefaultBranch(clonePath)
	if err != nil {
		return nil, err
	}

	project, _, err := m.store.CreateProjectWithPrimary(store.CreateProject{
		Name:          name,
		DisplayName:   DisplayName(name),
		RemoteURL:     url,
		ClonePath:     clonePath,
		DefaultBranch: defaultBranch,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, &apperrors.AlreadyExistsError{Entity: "repository", Path: name}
		}
		return nil, err
	}
	return project, nil
}

// Get fetches a project by id.
func (m *Manager) Get(id int64) (*store.Project, error) {
	return m.store.GetProject(id)
}

// List returns all projects.
func (m *Manager) List() ([]*store.Project, error) {
	return m.store.ListProjects()
}

// Resolve finds a project by canonical name or unique suffix. Multiple
// suffix matches are an AmbiguousMatchError naming the candidates.
func (m *Manager) Resolve(name string) (*store.Project, error) {
	matches, err := m.store.FindProjectsBySuffix(name)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, &apperrors.NotFoundError{
			Entity: apperrors.EntityProject,
			Name:   name,
			Hint:   "list projects with: arbor list",
		}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = p.Name
		}
		return nil, &apperrors.AmbiguousMatchError{Name: name, Matches: names}
	}
}

// Delete removes a project: non-primary worktrees physically first (git
// worktree metadata lives inside the primary clone's .git directory),
// then the clone directory, then the store row, which cascades to the
// remaining worktree and session rows.
func (m *Manager) Delete(ctx context.Context, projectID int64) error {
	project, err := m.store.GetProject(projectID)
	if err != nil {
		return err
	}

	worktrees, err := m.store.ListWorktrees(projectID)
	if err != nil {
		return err
	}

	logging.Debug("deleting project",
		slog.String("project", project.Name), slog.Int("worktrees", len(worktrees)))

	for _, wt := range worktrees {
		if wt.IsPrimary {
			continue
		}
		if err := m.git.RemoveWorktree(ctx, project.ClonePath, wt.Path); err != nil {
			return fmt.Errorf("removing worktree %s: %w", wt.Path, err)
		}
	}

	if _, err := os.Stat(project.ClonePath); err == nil {
		if err := os.RemoveAll(project.ClonePath); err != nil {
			return fmt.Errorf("removing clone directory %s: %w", project.ClonePath, err)
		}
	}

	return m.store.DeleteProject(projectID)
}

// Validate classifies a project record against the filesystem: Stale when
// the clone path is gone, Corrupted when the path is not the recorded
// repository, Valid otherwise.
func (m *Manager) Validate(projectID int64) (Status, error) {
	project, err := m.store.GetProject(projectID)
	if err != nil {
		return StatusStale, err
	}

	if _, err := os.Stat(project.ClonePath); err != nil {
		return StatusStale, nil
	}

	if _, err := os.Stat(filepath.Join(project.ClonePath, ".git")); err != nil {
		return StatusCorrupted, nil
	}

	url, err := m.git.RemoteURL(project.ClonePath)
	if err != nil || url != project.RemoteURL {
		return StatusCorrupted, nil
	}
	return StatusValid, nil
}

// ListValidated returns every project with its validation status.
func (m *Manager) ListValidated() ([]*store.Project, []Status, error) {
	projects, err := m.store.ListProjects()
	if err != nil {
		return nil, nil, err
	}

	statuses := make([]Status, len(projects))
	for i, p := range projects {
		status, err := m.Validate(p.ID)
		if err != nil {
			return nil, nil, err
		}
		statuses[i] = status
	}
	return projects, statuses, nil
}

// Fetch runs a pruning fetch on the primary clone and stamps
// last_fetched_at. Fetch policy beyond this manual trigger is out of
// scope.
func (m *Manager) Fetch(ctx context.Context, projectID int64) error {
	project, err := m.store.GetProject(projectID)
	if err != nil {
		return err
	}
	if err := m.git.Fetch(ctx, project.ClonePath); err != nil {
		return err
	}
	return m.store.TouchProjectFetched(projectID)
}
