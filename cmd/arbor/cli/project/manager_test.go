package project

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

// fakeGit satisfies Git without touching a real repository.
type fakeGit struct {
	cloneErr      error
	defaultBranch string
	remoteURL     string
	removedPaths  []string
	fetched       []string
}

func (f *fakeGit) Clone(_ context.Context, _, path string) error {
	if f.cloneErr != nil {
		return f.cloneErr
	}
	return os.MkdirAll(filepath.Join(path, ".git"), 0o755)
}

func (f *fakeGit) DefaultBranch(string) (string, error) {
	if f.defaultBranch == "" {
		return "main", nil
	}
	return f.defaultBranch, nil
}

func (f *fakeGit) RemoteURL(string) (string, error) {
	return f.remoteURL, nil
}

func (f *fakeGit) RemoveWorktree(_ context.Context, _, worktreePath string) error {
	f.removedPaths = append(f.removedPaths, worktreePath)
	return os.RemoveAll(worktreePath)
}

func (f *fakeGit) Fetch(_ context.Context, path string) error {
	f.fetched = append(f.fetched, path)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *store.Store, *fakeGit, string) {
	t.Helper()
	base := t.TempDir()

	st, err := store.Open(filepath.Join(base, "arbor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.Workspace.ProjectsDir = filepath.Join(base, "projects")
	cfg.Workspace.WorktreesDir = filepath.Join(base, "worktrees")

	git := &fakeGit{}
	return NewManager(st, git, cfg), st, git, base
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "https", url: "https://github.com/acme/widgets", want: "github.com/acme/widgets"},
		{name: "https with .git", url: "https://github.com/acme/widgets.git", want: "github.com/acme/widgets"},
		{name: "ssh scp style", url: "git@github.com:acme/widgets.git", want: "github.com/acme/widgets"},
		{name: "ssh url style", url: "ssh://git@github.com/acme/widgets", want: "github.com/acme/widgets"},
		{name: "nested group", url: "https://gitlab.com/org/group/widgets", want: "org/group/widgets"},
		{name: "trailing whitespace", url: " https://github.com/acme/widgets \n", want: "github.com/acme/widgets"},
		{name: "too few segments", url: "https://github.com/widgets", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseName(tt.url)
			if tt.wantErr {
				var invalid *apperrors.InvalidInputError
				assert.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "widgets", DisplayName("github.com/acme/widgets"))
}

func TestCloneRegistersProjectWithPrimary(t *testing.T) {
	mgr, st, _, base := newTestManager(t)

	proj, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", "")
	require.NoError(t, err)

	assert.Equal(t, "github.com/acme/widgets", proj.Name)
	assert.Equal(t, "widgets", proj.DisplayName)
	assert.Equal(t, "main", proj.DefaultBranch)
	assert.Equal(t, filepath.Join(base, "projects", "github.com", "acme", "widgets"), proj.ClonePath)

	worktrees, err := st.ListWorktrees(proj.ID)
	require.NoError(t, err)
	require.Len(t, worktrees, 1)
	assert.True(t, worktrees[0].IsPrimary)
	assert.Equal(t, "main", worktrees[0].Branch)
	assert.Equal(t, proj.ClonePath, worktrees[0].Path)
}

func TestCloneRefusesExistingPath(t *testing.T) {
	mgr, _, _, base := newTestManager(t)

	clonePath := filepath.Join(base, "occupied")
	require.NoError(t, os.MkdirAll(clonePath, 0o755))

	_, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", clonePath)
	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestCloneRefusesDuplicateProject(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	_, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", "")
	require.NoError(t, err)

	// Same canonical name from the other URL form, different path.
	_, err = mgr.Clone(context.Background(), "git@github.com:acme/widgets.git", "")
	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestCloneRejectsBadURL(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	_, err := mgr.Clone(context.Background(), "not-a-url", "")
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestResolve(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	_, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", "")
	require.NoError(t, err)
	_, err = mgr.Clone(context.Background(), "https://gitlab.com/other/widgets", "")
	require.NoError(t, err)

	proj, err := mgr.Resolve("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/widgets", proj.Name)

	_, err = mgr.Resolve("widgets")
	var ambiguous *apperrors.AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Matches, 2)

	_, err = mgr.Resolve("nothing")
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestValidate(t *testing.T) {
	mgr, _, git, base := newTestManager(t)
	git.remoteURL = "https://github.com/acme/widgets"

	proj, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", "")
	require.NoError(t, err)

	status, err := mgr.Validate(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusValid, status)

	// A directory that lost its .git entry is corrupted, not stale.
	require.NoError(t, os.RemoveAll(filepath.Join(proj.ClonePath, ".git")))
	status, err = mgr.Validate(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCorrupted, status)

	// A vanished directory is stale.
	require.NoError(t, os.RemoveAll(proj.ClonePath))
	status, err = mgr.Validate(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStale, status)

	// A repository whose remote no longer matches the record is corrupted.
	other, err := mgr.Clone(context.Background(), "https://github.com/acme/gadgets", filepath.Join(base, "gadgets"))
	require.NoError(t, err)
	git.remoteURL = "https://github.com/someone/else"
	status, err = mgr.Validate(other.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCorrupted, status)
}

func TestDeleteRemovesCloneAndRows(t *testing.T) {
	mgr, st, git, base := newTestManager(t)

	proj, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", "")
	require.NoError(t, err)

	// A non-primary worktree with a real directory.
	wtPath := filepath.Join(base, "worktrees", "widgets", "feature")
	require.NoError(t, os.MkdirAll(wtPath, 0o755))
	_, err = st.CreateWorktree(store.CreateWorktree{
		ProjectID: proj.ID,
		Branch:    "feature",
		Path:      wtPath,
	})
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(context.Background(), proj.ID))

	assert.Equal(t, []string{wtPath}, git.removedPaths)
	assert.NoDirExists(t, proj.ClonePath)

	projects, err := st.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestFetchStampsTimestamp(t *testing.T) {
	mgr, st, git, _ := newTestManager(t)

	proj, err := mgr.Clone(context.Background(), "https://github.com/acme/widgets", "")
	require.NoError(t, err)
	require.Empty(t, proj.LastFetchedAt)

	require.NoError(t, mgr.Fetch(context.Background(), proj.ID))
	assert.Equal(t, []string{proj.ClonePath}, git.fetched)

	got, err := st.GetProject(proj.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.LastFetchedAt)
}
