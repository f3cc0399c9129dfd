// Package apperrors defines the error taxonomy shared by the arbor CLI.
//
// Errors that a user can act on carry a remediation hint. Commands print
// the hint below the error message; everything else propagates wrapped
// with fmt.Errorf("...: %w", err) as usual.
package apperrors

import (
	"errors"
	"fmt"
)

// Entity names used by NotFoundError.
const (
	EntityProject  = "project"
	EntityWorktree = "worktree"
	EntityBranch   = "branch"
	EntitySession  = "session"
)

// ErrNoPreviousSession is returned by pop when the history is empty or
// contains nothing besides the current session.
var ErrNoPreviousSession = errors.New("no previous session in history")

// NotFoundError reports that a named entity does not exist.
type NotFoundError struct {
	Entity string
	Name   string
	Hint   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Name)
}

// NewBranchNotFound builds the NotFoundError for a missing branch. The hint
// names the create-branch flow because arbor never creates branches
// implicitly.
func NewBranchNotFound(branch string) *NotFoundError {
	return &NotFoundError{
		Entity: EntityBranch,
		Name:   branch,
		Hint:   fmt.Sprintf("create it with: arbor switch --create %s", branch),
	}
}

// AlreadyExistsError reports that a path or record already exists where a
// new one was to be created.
type AlreadyExistsError struct {
	Entity string // "repository" or "worktree"
	Path   string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists at %s", e.Entity, e.Path)
}

// StaleStateError reports that a store record references a filesystem path
// that no longer exists.
type StaleStateError struct {
	Entity string
	Path   string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s path no longer exists: %s", e.Entity, e.Path)
}

func (e *StaleStateError) RemediationHint() string {
	return "remove the stale entry with: arbor clean"
}

// BackendUnavailableError reports that the configured session backend's
// external tool is missing.
type BackendUnavailableError struct {
	Backend     string
	InstallHint string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("session backend %q is not available", e.Backend)
}

func (e *BackendUnavailableError) RemediationHint() string {
	return e.InstallHint + ", or change the backend in the arbor config file"
}

// InvalidInputError reports malformed user input, currently only clone URLs.
type InvalidInputError struct {
	Field string
	Value string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Value)
}

// AmbiguousMatchError reports that a short project name matched more than
// one project.
type AmbiguousMatchError struct {
	Name    string
	Matches []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("name %q matches %d projects", e.Name, len(e.Matches))
}

func (e *AmbiguousMatchError) RemediationHint() string {
	return "use the full host/user/repo name"
}

// StoreError wraps persistence-layer failures so callers can distinguish
// them from domain conditions.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ErrPrimaryWorktree guards the primary worktree from independent deletion.
var ErrPrimaryWorktree = errors.New("cannot delete the primary worktree; delete the project instead")

// Hint returns the remediation hint attached to err, if any.
func Hint(err error) string {
	var hinted interface{ RemediationHint() string }
	if errors.As(err, &hinted) {
		return hinted.RemediationHint()
	}
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Hint != "" {
		return nf.Hint
	}
	return ""
}
