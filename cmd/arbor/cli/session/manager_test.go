package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/backend"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

// fakeBackend tracks live sessions in memory. inside/current simulate
// running within a session so tests exercise the switch path instead of
// the process-replacing attach.
type fakeBackend struct {
	kind     backend.Kind
	live     map[string]bool
	created  []string
	switched []string
	opened   []string
	deleted  []string
	inside   bool
	current  string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{kind: backend.KindTmux, live: map[string]bool{}, inside: true}
}

func (f *fakeBackend) Kind() backend.Kind { return f.kind }

func (f *fakeBackend) Create(_ context.Context, name, _ string) error {
	f.created = append(f.created, name)
	f.live[name] = true
	return nil
}

func (f *fakeBackend) Attach(_ context.Context, name string) error {
	return backend.ErrAttachUnsupported
}

func (f *fakeBackend) Switch(_ context.Context, name string) error {
	f.switched = append(f.switched, name)
	f.current = name
	return nil
}

func (f *fakeBackend) OpenWorkspace(_ context.Context, workingDir string) error {
	f.opened = append(f.opened, workingDir)
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	delete(f.live, name)
	return nil
}

func (f *fakeBackend) Exists(_ context.Context, name string) bool { return f.live[name] }

func (f *fakeBackend) ListActive(context.Context) []string {
	names := make([]string, 0, len(f.live))
	for name := range f.live {
		names = append(names, name)
	}
	return names
}

func (f *fakeBackend) IsInsideSession() bool { return f.inside }

func (f *fakeBackend) CurrentSession() string { return f.current }

func newTestManager(t *testing.T) (*Manager, *store.Store, *fakeBackend, *store.Worktree) {
	t.Helper()
	base := t.TempDir()

	st, err := store.Open(filepath.Join(base, "arbor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	proj, _, err := st.CreateProjectWithPrimary(store.CreateProject{
		Name:          "github.com/acme/widgets",
		DisplayName:   "widgets",
		RemoteURL:     "https://github.com/acme/widgets",
		ClonePath:     filepath.Join(base, "clone"),
		DefaultBranch: "main",
	})
	require.NoError(t, err)

	wtPath := filepath.Join(base, "wt-feature")
	require.NoError(t, os.MkdirAll(wtPath, 0o755))
	wt, err := st.CreateWorktree(store.CreateWorktree{
		ProjectID: proj.ID,
		Branch:    "feature",
		Path:      wtPath,
	})
	require.NoError(t, err)

	be := newFakeBackend()
	return NewManager(st, be), st, be, wt
}

func TestSwitchToCreatesSession(t *testing.T) {
	mgr, st, be, wt := newTestManager(t)

	outcome, err := mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSwitched, outcome)

	sess, err := st.GetSessionForWorktree(wt.ID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, GenerateName("github.com/acme/widgets", "feature"), sess.SessionName)
	assert.Equal(t, "tmux", sess.Backend)

	assert.Equal(t, []string{sess.SessionName}, be.created)
	assert.Equal(t, []string{sess.SessionName}, be.switched)
}

func TestSwitchToReusesLiveSession(t *testing.T) {
	mgr, _, be, wt := newTestManager(t)

	_, err := mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)
	_, err = mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)

	assert.Len(t, be.created, 1, "live session must be reused, not recreated")
	assert.Len(t, be.switched, 2)
}

func TestSwitchToRecreatesDeadSessionUnderSameName(t *testing.T) {
	mgr, st, be, wt := newTestManager(t)

	_, err := mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)
	sess, err := st.GetSessionForWorktree(wt.ID)
	require.NoError(t, err)

	// Simulate the backend session dying out from under the row.
	delete(be.live, sess.SessionName)

	_, err = mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{sess.SessionName, sess.SessionName}, be.created)

	after, err := st.GetSessionForWorktree(wt.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, after.ID, "row is kept, not replaced")
}

func TestSwitchToStaleWorktreePath(t *testing.T) {
	mgr, _, _, wt := newTestManager(t)

	require.NoError(t, os.RemoveAll(wt.Path))

	_, err := mgr.SwitchTo(context.Background(), wt.ID)
	var stale *apperrors.StaleStateError
	require.ErrorAs(t, err, &stale)
	assert.NotEmpty(t, apperrors.Hint(err))
}

func TestSwitchToEditorOpensWorkspace(t *testing.T) {
	mgr, _, be, wt := newTestManager(t)
	be.kind = backend.KindCode
	be.inside = false

	outcome, err := mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOpened, outcome)
	assert.Equal(t, []string{wt.Path}, be.opened, "one switch opens exactly one workspace")

	_, err = mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{wt.Path, wt.Path}, be.opened)
}

func TestPopEmptyHistory(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	_, err := mgr.Pop(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoPreviousSession)
}

func TestPopTogglesBetweenSessions(t *testing.T) {
	mgr, st, be, wtA := newTestManager(t)

	base := filepath.Dir(wtA.Path)
	wtBPath := filepath.Join(base, "wt-other")
	require.NoError(t, os.MkdirAll(wtBPath, 0o755))
	wtB, err := st.CreateWorktree(store.CreateWorktree{
		ProjectID: wtA.ProjectID,
		Branch:    "other",
		Path:      wtBPath,
	})
	require.NoError(t, err)

	// Activate a, then b; the fake backend tracks the current session.
	_, err = mgr.SwitchTo(context.Background(), wtA.ID)
	require.NoError(t, err)
	_, err = mgr.SwitchTo(context.Background(), wtB.ID)
	require.NoError(t, err)

	sessA, err := st.GetSessionForWorktree(wtA.ID)
	require.NoError(t, err)
	sessB, err := st.GetSessionForWorktree(wtB.ID)
	require.NoError(t, err)

	// From b, pop lands on a.
	outcome, err := mgr.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSwitched, outcome)
	assert.Equal(t, sessA.SessionName, be.current)

	// Pop again: history was not appended, so it toggles back to b.
	_, err = mgr.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessB.SessionName, be.current)
}

func TestPopRevivesDeadTarget(t *testing.T) {
	mgr, st, be, wtA := newTestManager(t)

	_, err := mgr.SwitchTo(context.Background(), wtA.ID)
	require.NoError(t, err)
	sessA, err := st.GetSessionForWorktree(wtA.ID)
	require.NoError(t, err)

	// Leave the current session so the pop target is a itself.
	be.current = "somewhere-else"
	delete(be.live, sessA.SessionName)

	createdBefore := len(be.created)
	_, err = mgr.Pop(context.Background())
	require.NoError(t, err)
	assert.Len(t, be.created, createdBefore+1, "dead pop target is recreated")
	assert.True(t, be.live[sessA.SessionName])
}

func TestKillForWorktree(t *testing.T) {
	mgr, st, be, wt := newTestManager(t)

	// Nothing recorded yet: a no-op, not an error.
	require.NoError(t, mgr.KillForWorktree(context.Background(), wt.ID))

	_, err := mgr.SwitchTo(context.Background(), wt.ID)
	require.NoError(t, err)
	sess, err := st.GetSessionForWorktree(wt.ID)
	require.NoError(t, err)

	require.NoError(t, mgr.KillForWorktree(context.Background(), wt.ID))
	assert.Equal(t, []string{sess.SessionName}, be.deleted)
	assert.False(t, be.live[sess.SessionName])
}
