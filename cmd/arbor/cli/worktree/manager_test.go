package worktree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/config"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

// fakeGit satisfies Git with controllable branch state.
type fakeGit struct {
	localBranches  map[string]bool
	upstreams      map[string]string
	resolving      map[string]bool
	addedWorktrees []string
	removedPaths   []string
	addWorktreeErr error
}

func (f *fakeGit) BranchExistsLocal(_, branch string) (bool, error) {
	return f.localBranches[branch], nil
}

func (f *fakeGit) Upstream(_, branch string) (string, error) {
	return f.upstreams[branch], nil
}

func (f *fakeGit) UpstreamResolves(_, upstream string) (bool, error) {
	return f.resolving[upstream], nil
}

func (f *fakeGit) AddWorktree(_ context.Context, _, branch, path string) error {
	if f.addWorktreeErr != nil {
		return f.addWorktreeErr
	}
	f.addedWorktrees = append(f.addedWorktrees, branch)
	return os.MkdirAll(path, 0o755)
}

func (f *fakeGit) RemoveWorktree(_ context.Context, _, worktreePath string) error {
	f.removedPaths = append(f.removedPaths, worktreePath)
	return os.RemoveAll(worktreePath)
}

func newTestManager(t *testing.T) (*Manager, *store.Store, *fakeGit, *store.Project) {
	t.Helper()
	base := t.TempDir()

	st, err := store.Open(filepath.Join(base, "arbor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.Workspace.ProjectsDir = filepath.Join(base, "projects")
	cfg.Workspace.WorktreesDir = filepath.Join(base, "worktrees")

	clonePath := filepath.Join(base, "projects", "github.com", "acme", "widgets")
	require.NoError(t, os.MkdirAll(clonePath, 0o755))

	proj, _, err := st.CreateProjectWithPrimary(store.CreateProject{
		Name:          "github.com/acme/widgets",
		DisplayName:   "widgets",
		RemoteURL:     "https://github.com/acme/widgets",
		ClonePath:     clonePath,
		DefaultBranch: "main",
	})
	require.NoError(t, err)

	git := &fakeGit{
		localBranches: map[string]bool{},
		upstreams:     map[string]string{},
		resolving:     map[string]bool{},
	}
	return NewManager(st, git, cfg), st, git, proj
}

func TestEnsureCreatesWorktree(t *testing.T) {
	mgr, _, git, proj := newTestManager(t)

	wt, err := mgr.Ensure(context.Background(), proj.ID, "feature/login", "")
	require.NoError(t, err)

	assert.Equal(t, "feature/login", wt.Branch)
	assert.False(t, wt.IsPrimary)
	assert.Contains(t, wt.Path, filepath.Join("widgets", "feature-login"))
	assert.DirExists(t, wt.Path)
	assert.Equal(t, []string{"feature/login"}, git.addedWorktrees)
}

func TestEnsureIsIdempotent(t *testing.T) {
	mgr, _, git, proj := newTestManager(t)

	first, err := mgr.Ensure(context.Background(), proj.ID, "feature", "")
	require.NoError(t, err)

	second, err := mgr.Ensure(context.Background(), proj.ID, "feature", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, git.addedWorktrees, 1, "no second git worktree add")
}

func TestEnsureRefusesForeignDirectory(t *testing.T) {
	mgr, _, _, proj := newTestManager(t)

	occupied := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.MkdirAll(occupied, 0o755))

	_, err := mgr.Ensure(context.Background(), proj.ID, "feature", occupied)
	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestValidateBranch(t *testing.T) {
	mgr, _, git, proj := newTestManager(t)

	git.localBranches["tracked"] = true
	git.upstreams["tracked"] = "origin/tracked"
	git.resolving["origin/tracked"] = true

	git.localBranches["local-only"] = true

	git.localBranches["orphaned"] = true
	git.upstreams["orphaned"] = "origin/orphaned"

	status, err := mgr.ValidateBranch(proj, "tracked")
	require.NoError(t, err)
	assert.Equal(t, BranchTracked, status.State)

	status, err = mgr.ValidateBranch(proj, "local-only")
	require.NoError(t, err)
	assert.Equal(t, BranchLocalOnly, status.State)
	assert.Empty(t, status.Warning)

	status, err = mgr.ValidateBranch(proj, "orphaned")
	require.NoError(t, err)
	assert.Equal(t, BranchLocalOnly, status.State)
	assert.NotEmpty(t, status.Warning)

	status, err = mgr.ValidateBranch(proj, "missing")
	require.NoError(t, err)
	assert.Equal(t, BranchNotFound, status.State)
}

func TestSwitchBranchNotFound(t *testing.T) {
	mgr, _, _, proj := newTestManager(t)

	_, err := mgr.SwitchBranch(context.Background(), proj.ID, "missing", "")
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, apperrors.EntityBranch, notFound.Entity)
}

func TestSwitchBranchLocalOnlyProceeds(t *testing.T) {
	mgr, _, _, proj := newTestManager(t)

	// No upstream configured at all; still switchable.
	mgrGit := mgr.git.(*fakeGit)
	mgrGit.localBranches["scratch"] = true

	wt, err := mgr.SwitchBranch(context.Background(), proj.ID, "scratch", "")
	require.NoError(t, err)
	assert.Equal(t, "scratch", wt.Branch)
}

func TestDeleteWorktree(t *testing.T) {
	mgr, st, git, proj := newTestManager(t)

	wt, err := mgr.Ensure(context.Background(), proj.ID, "feature", "")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(context.Background(), wt.ID))
	assert.Equal(t, []string{wt.Path}, git.removedPaths)

	gone, err := st.GetWorktreeByBranch(proj.ID, "feature")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeletePrimaryWorktreeRefused(t *testing.T) {
	mgr, st, _, proj := newTestManager(t)

	worktrees, err := st.ListWorktrees(proj.ID)
	require.NoError(t, err)
	require.Len(t, worktrees, 1)
	require.True(t, worktrees[0].IsPrimary)

	err = mgr.Delete(context.Background(), worktrees[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrPrimaryWorktree)
}
