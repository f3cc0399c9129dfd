// Package worktree owns Worktree identity within a project:
// branch-tracking status resolution and reconciliation between store rows
// and actual git worktrees.
package worktree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/config"
	"github.com/arborworks/arbor/cmd/arbor/cli/logging"
	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

// BranchState classifies a branch for the switch flow.
type BranchState int

const (
	// BranchTracked means the local branch exists and its upstream
	// resolves on the remote-tracking refs.
	BranchTracked BranchState = iota

	// BranchLocalOnly means the local branch exists without a resolvable
	// upstream; proceeding is allowed but may deserve a warning.
	BranchLocalOnly

	// BranchNotFound means no local ref exists for the branch.
	BranchNotFound
)

// BranchStatus is the result of validating a branch. Warning is non-empty
// only for LocalOnly states that deserve a user-visible note.
type BranchStatus struct {
	State   BranchState
	Warning string
}

// Git is the slice of the git collaborator the worktree manager uses.
type Git interface {
	BranchExistsLocal(path, branch string) (bool, error)
	Upstream(path, branch string) (string, error)
	UpstreamResolves(path, upstream string) (bool, error)
	AddWorktree(ctx context.Context, repoPath, branch, path string) error
	RemoveWorktree(ctx context.Context, repoPath, worktreePath string) error
}

// Manager owns worktree lifecycle within projects.
type Manager struct {
	store *store.Store
	git   Git
	cfg   *config.Config
}

// NewManager wires a worktree manager to its collaborators.
func NewManager(st *store.Store, git Git, cfg *config.Config) *Manager {
	return &Manager{store: st, git: git, cfg: cfg}
}

// Get fetches a worktree by id.
func (m *Manager) Get(id int64) (*store.Worktree, error) {
	return m.store.GetWorktree(id)
}

// List returns a project's worktrees.
func (m *Manager) List(projectID int64) ([]*store.Worktree, error) {
	return m.store.ListWorktrees(projectID)
}

// Ensure returns the worktree for (projectID, branch), creating the git
// worktree and store row when none is recorded. Idempotent: an existing
// row is returned unchanged with no filesystem check. A path that exists
// on disk without a store row fails with AlreadyExists rather than
// silently adopting a foreign directory.
func (m *Manager) Ensure(ctx context.Context, projectID int64, branch, wtPath string) (*store.Worktree, error) {
	existing, err := m.store.GetWorktreeByBranch(projectID, branch)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logging.Debug("worktree already recorded",
			slog.Int64("worktree_id", existing.ID), slog.String("branch", branch))
		return existing, nil
	}

	project, err := m.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	if wtPath == "" {
		wtPath = m.cfg.WorktreePath(project.Name, branch)
	}

	if _, err := os.Stat(wtPath); err == nil {
		return nil, &apperrors.AlreadyExistsError{Entity: "worktree", Path: wtPath}
	}

	if err := paths.EnsureDir(filepath.Dir(wtPath)); err != nil {
		return nil, err
	}

	logging.Info("creating worktree",
		slog.String("branch", branch), slog.String("path", wtPath))

	if err := m.git.AddWorktree(ctx, project.ClonePath, branch, wtPath); err != nil {
		return nil, err
	}

	wt, err := m.store.CreateWorktree(store.CreateWorktree{
		ProjectID: projectID,
		Branch:    branch,
		Path:      wtPath,
		IsPrimary: false,
	})
	if err != nil && store.IsUniqueViolation(err) {
		// A concurrent invocation won the insert race; surface it as
		// AlreadyExists and let the user retry.
		return nil, &apperrors.AlreadyExistsError{Entity: "worktree", Path: wtPath}
	}
	return wt, err
}

// ValidateBranch classifies branch against the project's primary clone.
// NotFound when no local ref exists; LocalOnly (with a warning when the
// configured upstream no longer resolves) when local exists without a
// live upstream; Tracked otherwise.
func (m *Manager) ValidateBranch(project *store.Project, branch string) (BranchStatus, error) {
	localExists, err := m.git.BranchExistsLocal(project.ClonePath, branch)
	if err != nil {
		return BranchStatus{}, err
	}
	if !localExists {
		return BranchStatus{State: BranchNotFound}, nil
	}

	upstream, err := m.git.Upstream(project.ClonePath, branch)
	if err != nil {
		return BranchStatus{}, err
	}
	if upstream == "" {
		return BranchStatus{State: BranchLocalOnly}, nil
	}

	resolves, err := m.git.UpstreamResolves(project.ClonePath, upstream)
	if err != nil {
		return BranchStatus{}, err
	}
	if !resolves {
		return BranchStatus{State: BranchLocalOnly, Warning: "remote branch was deleted"}, nil
	}
	return BranchStatus{State: BranchTracked}, nil
}

// SwitchBranch validates the branch and ensures its worktree. Tracked and
// LocalOnly both proceed (LocalOnly logs its warning); NotFound fails so
// the caller can offer branch creation explicitly; this manager never
// creates branches.
func (m *Manager) SwitchBranch(ctx context.Context, projectID int64, branch, wtPath string) (*store.Worktree, error) {
	project, err := m.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	status, err := m.ValidateBranch(project, branch)
	if err != nil {
		return nil, err
	}

	switch status.State {
	case BranchTracked:
		return m.Ensure(ctx, projectID, branch, wtPath)
	case BranchLocalOnly:
		if status.Warning != "" {
			logging.Warn(status.Warning, slog.String("branch", branch))
		}
		return m.Ensure(ctx, projectID, branch, wtPath)
	default:
		return nil, apperrors.NewBranchNotFound(branch)
	}
}

// Delete removes a worktree physically and from the store. The primary
// worktree is never deletable on its own; delete the project instead.
func (m *Manager) Delete(ctx context.Context, worktreeID int64) error {
	wt, err := m.store.GetWorktree(worktreeID)
	if err != nil {
		return err
	}
	if wt.IsPrimary {
		return apperrors.ErrPrimaryWorktree
	}

	project, err := m.store.GetProject(wt.ProjectID)
	if err != nil {
		return err
	}

	if err := m.git.RemoveWorktree(ctx, project.ClonePath, wt.Path); err != nil {
		return fmt.Errorf("removing worktree %s: %w", wt.Path, err)
	}
	return m.store.DeleteWorktree(worktreeID)
}
