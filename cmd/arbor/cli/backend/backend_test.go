package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

// stubEditor puts a fake editor CLI named command on PATH that appends its
// arguments to a file, and returns that file's path.
func stubEditor(t *testing.T, command string) string {
	t.Helper()
	dir := t.TempDir()
	calls := filepath.Join(dir, "calls")
	script := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %s\n", calls)
	require.NoError(t, os.WriteFile(filepath.Join(dir, command), []byte(script), 0o755))
	t.Setenv("PATH", dir)
	return calls
}

func TestKindIsEditor(t *testing.T) {
	assert.True(t, KindCode.IsEditor())
	assert.True(t, KindCursor.IsEditor())
	assert.True(t, KindZed.IsEditor())
	assert.False(t, KindTmux.IsEditor())
	assert.False(t, KindZellij.IsEditor())
	assert.False(t, KindScreen.IsEditor())
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New("emacsclient")
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewBuildsRequestedKind(t *testing.T) {
	be, err := New("tmux")
	require.NoError(t, err)
	assert.Equal(t, KindTmux, be.Kind())

	be, err = New("code")
	require.NoError(t, err)
	assert.Equal(t, KindCode, be.Kind())
}

func TestEditorDegradedOperations(t *testing.T) {
	ed := NewEditor(KindZed)

	assert.ErrorIs(t, ed.Attach(t.Context(), "any"), ErrAttachUnsupported)
	assert.NoError(t, ed.Delete(t.Context(), "any"))
	assert.Nil(t, ed.ListActive(t.Context()))
	assert.False(t, ed.IsInsideSession())
	assert.Empty(t, ed.CurrentSession())
}

func TestEditorCreateDoesNotOpenWorkspace(t *testing.T) {
	calls := stubEditor(t, "code")
	ed := NewEditor(KindCode)

	require.NoError(t, ed.Create(t.Context(), "widgets_main_ab12", t.TempDir()))
	_, err := os.Stat(calls)
	assert.True(t, os.IsNotExist(err), "create must not launch the editor")

	// The single launch belongs to OpenWorkspace.
	require.NoError(t, ed.OpenWorkspace(t.Context(), t.TempDir()))
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(calls)
		return err == nil && len(data) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEditorSwitchChecksAvailability(t *testing.T) {
	stubEditor(t, "cursor")
	ed := NewEditor(KindCursor)
	assert.NoError(t, ed.Switch(t.Context(), "any"))

	t.Setenv("PATH", t.TempDir())
	var unavailable *apperrors.BackendUnavailableError
	assert.ErrorAs(t, ed.Switch(t.Context(), "any"), &unavailable)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Empty(t, splitLines(""))
	assert.Empty(t, splitLines("\n\n"))
}
