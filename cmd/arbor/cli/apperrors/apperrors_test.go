package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHintFromRemediation(t *testing.T) {
	err := &StaleStateError{Entity: EntityWorktree, Path: "/gone"}
	assert.Contains(t, Hint(err), "arbor clean")
}

func TestHintFromNotFound(t *testing.T) {
	err := NewBranchNotFound("feature")
	assert.Contains(t, Hint(err), "arbor switch --create feature")
}

func TestHintSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("switching: %w", &BackendUnavailableError{
		Backend:     "tmux",
		InstallHint: "install tmux with your package manager",
	})
	assert.Contains(t, Hint(err), "install tmux")
	assert.Contains(t, Hint(err), "config file")
}

func TestHintAbsent(t *testing.T) {
	assert.Empty(t, Hint(errors.New("plain")))
	assert.Empty(t, Hint(&NotFoundError{Entity: EntitySession, Name: "x"}))
}

func TestStoreErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := &StoreError{Op: "create project", Err: inner}
	assert.ErrorIs(t, err, inner)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "branch not found: feature",
		(&NotFoundError{Entity: EntityBranch, Name: "feature"}).Error())
	assert.Equal(t, "worktree already exists at /w",
		(&AlreadyExistsError{Entity: "worktree", Path: "/w"}).Error())
	assert.Equal(t, `name "widgets" matches 2 projects`,
		(&AmbiguousMatchError{Name: "widgets", Matches: []string{"a", "b"}}).Error())
}
