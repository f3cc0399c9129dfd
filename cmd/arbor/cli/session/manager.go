// Package session owns Session identity and the create/recreate/reuse
// state machine that reconciles store rows with live backend sessions.
//
// A worktree's session state is observed across two independent signals:
// whether a store row exists, and whether the backend reports the named
// session alive. The row is identity; the backend is truth about
// liveness. A dead session under a recorded name is recreated under that
// same name, never duplicated.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/backend"
	"github.com/arborworks/arbor/cmd/arbor/cli/logging"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

// Outcome reports how a switch terminated. A successful multiplexer
// attach replaces the process image and never produces an Outcome at all;
// commands therefore run SwitchTo as their final action.
type Outcome int

const (
	// OutcomeSwitched means the enclosing session was retargeted and the
	// process continues.
	OutcomeSwitched Outcome = iota

	// OutcomeOpened means an editor workspace was opened in a detached
	// child and the process continues.
	OutcomeOpened

	// OutcomeAttachFailed means a multiplexer attach returned, which only
	// happens on failure; the accompanying error is non-nil.
	OutcomeAttachFailed
)

// Manager drives sessions for worktrees.
type Manager struct {
	store   *store.Store
	backend backend.Backend
	history *History
}

// NewManager wires a session manager to its store and backend.
func NewManager(st *store.Store, be backend.Backend) *Manager {
	return &Manager{store: st, backend: be, history: NewHistory(st)}
}

// Backend exposes the wired backend for command-level status output.
func (m *Manager) Backend() backend.Backend {
	return m.backend
}

// History exposes the activation history.
func (m *Manager) History() *History {
	return m.history
}

// SwitchTo creates or revives the session for a worktree, records the
// activation, and terminates in the backend: switch when already inside a
// session of this kind, attach (process-replacing) or open-workspace when
// outside.
func (m *Manager) SwitchTo(ctx context.Context, worktreeID int64) (Outcome, error) {
	wt, err := m.store.GetWorktree(worktreeID)
	if err != nil {
		return OutcomeAttachFailed, err
	}

	// The path must be reconciled before any session work.
	if _, err := os.Stat(wt.Path); err != nil {
		return OutcomeAttachFailed, &apperrors.StaleStateError{
			Entity: apperrors.EntityWorktree,
			Path:   wt.Path,
		}
	}

	sess, err := m.ensureSession(ctx, wt)
	if err != nil {
		return OutcomeAttachFailed, err
	}

	if err := m.history.Record(sess.ID); err != nil {
		return OutcomeAttachFailed, err
	}
	if err := m.store.TouchWorktree(wt.ID); err != nil {
		return OutcomeAttachFailed, err
	}
	if err := m.store.TouchSession(sess.ID); err != nil {
		return OutcomeAttachFailed, err
	}

	return m.enter(ctx, sess.SessionName, wt.Path)
}

// ensureSession resolves the session state machine for a worktree:
// no row means create backend session and insert one; row and alive means
// reuse; row and dead means recreate the backend session under the stored
// name.
func (m *Manager) ensureSession(ctx context.Context, wt *store.Worktree) (*store.Session, error) {
	sess, err := m.store.GetSessionForWorktree(wt.ID)
	if err != nil {
		return nil, err
	}

	if sess != nil {
		if !m.backend.Exists(ctx, sess.SessionName) {
			logging.Warn("recreating dead session",
				slog.String("session", sess.SessionName))
			if err := m.backend.Create(ctx, sess.SessionName, wt.Path); err != nil {
				return nil, fmt.Errorf("recreating session %s: %w", sess.SessionName, err)
			}
		}
		return sess, nil
	}

	project, err := m.store.GetProject(wt.ProjectID)
	if err != nil {
		return nil, err
	}

	name := GenerateName(project.Name, wt.Branch)
	logging.Debug("creating session",
		slog.String("session", name), slog.String("path", wt.Path))

	if err := m.backend.Create(ctx, name, wt.Path); err != nil {
		return nil, err
	}

	return m.store.CreateSession(store.CreateSession{
		WorktreeID:  wt.ID,
		SessionName: name,
		Backend:     string(m.backend.Kind()),
	})
}

// enter performs the terminal attach/switch/open dispatch.
func (m *Manager) enter(ctx context.Context, name, workingDir string) (Outcome, error) {
	if m.backend.IsInsideSession() {
		if err := m.backend.Switch(ctx, name); err != nil {
			return OutcomeAttachFailed, err
		}
		return OutcomeSwitched, nil
	}

	if m.backend.Kind().IsEditor() {
		if err := m.backend.OpenWorkspace(ctx, workingDir); err != nil {
			return OutcomeAttachFailed, err
		}
		return OutcomeOpened, nil
	}

	// Attach replaces the process; reaching the lines below means it failed.
	err := m.backend.Attach(ctx, name)
	if err == nil {
		err = fmt.Errorf("attach to %s returned unexpectedly", name)
	}
	return OutcomeAttachFailed, err
}

// Pop switches to the most recently activated session other than the
// current one. The target is revived first if its backend session died;
// history is not appended, so alternating pops toggle between the two
// most recent sessions.
func (m *Manager) Pop(ctx context.Context) (Outcome, error) {
	current := m.backend.CurrentSession()

	prev, err := m.history.Previous(current)
	if err != nil {
		return OutcomeAttachFailed, err
	}

	wt, err := m.store.GetWorktree(prev.WorktreeID)
	if err != nil {
		return OutcomeAttachFailed, err
	}
	if _, err := os.Stat(wt.Path); err != nil {
		return OutcomeAttachFailed, &apperrors.StaleStateError{
			Entity: apperrors.EntityWorktree,
			Path:   wt.Path,
		}
	}

	if !m.backend.Exists(ctx, prev.SessionName) && !m.backend.Kind().IsEditor() {
		logging.Warn("recreating dead session",
			slog.String("session", prev.SessionName))
		if err := m.backend.Create(ctx, prev.SessionName, wt.Path); err != nil {
			return OutcomeAttachFailed, err
		}
	}

	if err := m.store.TouchSession(prev.ID); err != nil {
		return OutcomeAttachFailed, err
	}

	return m.enter(ctx, prev.SessionName, wt.Path)
}

// KillForWorktree deletes the backend session recorded for a worktree, if
// any. Used by deletion flows before the store row cascades away.
func (m *Manager) KillForWorktree(ctx context.Context, worktreeID int64) error {
	sess, err := m.store.GetSessionForWorktree(worktreeID)
	if err != nil || sess == nil {
		return err
	}
	return m.backend.Delete(ctx, sess.SessionName)
}
