// Package backend abstracts the external system that materializes
// sessions: a terminal multiplexer (tmux, zellij, GNU screen) or an editor
// (VS Code, Cursor, Zed).
//
// Session names are opaque strings. Multiplexer backends own real session
// processes; editor backends degrade per operation: create and switch
// only check the editor CLI is installed, delete is a no-op, the status
// probes report conservative defaults. OpenWorkspace is where an editor
// actually launches.
package backend

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindTmux   Kind = "tmux"
	KindZellij Kind = "zellij"
	KindScreen Kind = "screen"
	KindCode   Kind = "code"
	KindCursor Kind = "cursor"
	KindZed    Kind = "zed"

	// KindAuto selects the first available multiplexer.
	KindAuto Kind = "auto"
)

// IsEditor reports whether the kind opens editor windows instead of
// multiplexer sessions.
func (k Kind) IsEditor() bool {
	return k == KindCode || k == KindCursor || k == KindZed
}

// Backend is the session-backend collaborator contract. Create, Switch and
// Delete return errors; the status probes (Exists, ListActive,
// IsInsideSession, CurrentSession) are best-effort and degrade to safe
// defaults rather than failing a larger operation.
type Backend interface {
	// Kind returns the backend identity.
	Kind() Kind

	// Create creates a detached session named name rooted at workingDir.
	// Editor backends only verify their CLI is installed; their workspace
	// is opened through OpenWorkspace.
	Create(ctx context.Context, name, workingDir string) error

	// Attach attaches the calling process to the session. For multiplexer
	// backends a successful attach replaces the process image and never
	// returns; any return is a failure. Editor backends cannot attach and
	// return ErrAttachUnsupported.
	Attach(ctx context.Context, name string) error

	// Switch switches the enclosing session to name without touching the
	// calling process. Editor backends degrade this to an availability
	// check; the caller opens the workspace instead.
	Switch(ctx context.Context, name string) error

	// OpenWorkspace opens workingDir as a workspace. Only editor backends
	// implement it meaningfully; multiplexers return ErrAttachUnsupported.
	OpenWorkspace(ctx context.Context, workingDir string) error

	// Delete kills the session. A no-op for editor backends.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the backend considers the session live.
	Exists(ctx context.Context, name string) bool

	// ListActive returns the names of live sessions, best-effort.
	ListActive(ctx context.Context) []string

	// IsInsideSession reports whether the calling process runs inside a
	// session of this backend. Always false for editors.
	IsInsideSession() bool

	// CurrentSession returns the enclosing session's name, or "" when
	// outside one or undeterminable.
	CurrentSession() string
}

// ErrAttachUnsupported marks operations a backend kind cannot perform.
var ErrAttachUnsupported = fmt.Errorf("backend does not support this operation")

// New builds the backend for the configured kind string. "auto" probes for
// the first available multiplexer (tmux, zellij, screen, in that order).
func New(kind string) (Backend, error) {
	k := Kind(kind)
	if kind == "" {
		k = KindAuto
	}

	if k == KindAuto {
		detected, err := detect()
		if err != nil {
			return nil, err
		}
		k = detected
	}

	switch k {
	case KindTmux:
		return NewTmux(), nil
	case KindZellij:
		return NewZellij(), nil
	case KindScreen:
		return NewScreen(), nil
	case KindCode, KindCursor, KindZed:
		return NewEditor(k), nil
	default:
		return nil, &apperrors.InvalidInputError{Field: "session backend", Value: kind}
	}
}

func detect() (Kind, error) {
	for _, k := range []Kind{KindTmux, KindZellij, KindScreen} {
		if commandAvailable(string(k)) {
			return k, nil
		}
	}
	return "", &apperrors.BackendUnavailableError{
		Backend:     "auto",
		InstallHint: "install tmux (brew install tmux / apt install tmux)",
	}
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func checkAvailable(command, installHint string) error {
	if !commandAvailable(command) {
		return &apperrors.BackendUnavailableError{Backend: command, InstallHint: installHint}
	}
	return nil
}
