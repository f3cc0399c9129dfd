package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/logging"
)

// Editor drives editor windows (VS Code, Cursor, Zed). Editors have no
// attach/detach concept: create and switch degrade to availability
// checks, delete is a no-op, and the status probes report conservative
// defaults because window state cannot be observed from outside. The one
// real action, OpenWorkspace, is invoked by the terminal dispatch so a
// single switch opens a single window.
type Editor struct {
	kind    Kind
	command string
}

// NewEditor returns the backend for an editor kind. The kind doubles as
// the CLI command name (code, cursor, zed).
func NewEditor(kind Kind) *Editor {
	return &Editor{kind: kind, command: string(kind)}
}

func (e *Editor) Kind() Kind { return e.kind }

func (e *Editor) installHint() string {
	switch e.kind {
	case KindCode:
		return "install VS Code and run 'Install code command in PATH'"
	case KindCursor:
		return "install Cursor from https://cursor.sh and enable its shell command"
	case KindZed:
		return "install Zed from https://zed.dev and enable the zed CLI"
	default:
		return "install the editor CLI"
	}
}

// Create only verifies the editor CLI is installed; the session name
// exists in the metadata store alone. The workspace itself is opened by
// OpenWorkspace during the terminal dispatch, never here, so creating and
// entering a session spawns exactly one window.
func (e *Editor) Create(_ context.Context, name, _ string) error {
	logging.Debug("registering editor session",
		slog.String("editor", e.command), slog.String("session", name))
	return checkAvailable(e.command, e.installHint())
}

// Attach is meaningless for editors.
func (e *Editor) Attach(context.Context, string) error {
	return fmt.Errorf("%s has no attach concept: %w", e.command, ErrAttachUnsupported)
}

// Switch carries no path, so it degrades to an availability check; the
// caller opens the workspace through OpenWorkspace.
func (e *Editor) Switch(context.Context, string) error {
	return checkAvailable(e.command, e.installHint())
}

// OpenWorkspace spawns the editor detached on workingDir and returns; the
// editor outlives the CLI process.
func (e *Editor) OpenWorkspace(_ context.Context, workingDir string) error {
	if err := checkAvailable(e.command, e.installHint()); err != nil {
		return err
	}

	cmd := exec.Command(e.command, workingDir)
	if err := cmd.Start(); err != nil {
		return &apperrors.BackendUnavailableError{Backend: e.command, InstallHint: e.installHint()}
	}
	// Detach: the editor process is not waited on.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("releasing editor process: %w", err)
	}
	return nil
}

// Delete is a no-op: closing an editor window is not modeled.
func (e *Editor) Delete(context.Context, string) error { return nil }

// Exists reports true when the editor CLI is available. Window state is
// unobservable, so the conservative answer keeps recreation paths from
// looping.
func (e *Editor) Exists(context.Context, string) bool {
	return commandAvailable(e.command)
}

// ListActive cannot enumerate editor windows.
func (e *Editor) ListActive(context.Context) []string { return nil }

// IsInsideSession is always false: an editor process cannot be detected
// from outside.
func (e *Editor) IsInsideSession() bool { return false }

// CurrentSession is always empty for editors.
func (e *Editor) CurrentSession() string { return "" }
