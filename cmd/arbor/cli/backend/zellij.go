package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

const zellijInstallHint = "install with: brew install zellij or cargo install zellij"

// Zellij drives zellij sessions.
type Zellij struct{}

// NewZellij returns the zellij backend.
func NewZellij() *Zellij { return &Zellij{} }

func (z *Zellij) Kind() Kind { return KindZellij }

// Create starts a detached zellij session at workingDir. Zellij has no
// native detached-create, so the session is spawned in its own process
// group and given a moment to register before returning.
func (z *Zellij) Create(ctx context.Context, name, workingDir string) error {
	if err := checkAvailable("zellij", zellijInstallHint); err != nil {
		return err
	}
	if z.Exists(ctx, name) {
		return nil
	}

	script := fmt.Sprintf(`cd %q && (setsid zellij --session %q >/dev/null 2>&1 &)`, workingDir, name)
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("creating zellij session %s: %w", name, err)
	}

	// Session registration is asynchronous.
	time.Sleep(500 * time.Millisecond)
	return nil
}

// Attach replaces the calling process with "zellij attach". On success
// this call does not return.
func (z *Zellij) Attach(ctx context.Context, name string) error {
	if !z.Exists(ctx, name) {
		return &apperrors.NotFoundError{Entity: apperrors.EntitySession, Name: name}
	}

	zellijPath, err := exec.LookPath("zellij")
	if err != nil {
		return &apperrors.BackendUnavailableError{Backend: "zellij", InstallHint: zellijInstallHint}
	}

	if err := syscall.Exec(zellijPath, []string{"zellij", "attach", name}, os.Environ()); err != nil {
		return fmt.Errorf("exec zellij attach: %w", err)
	}
	return nil // unreachable: exec does not return on success
}

// Switch is not supported from inside zellij without detaching; callers
// fall back to attach from outside.
func (z *Zellij) Switch(ctx context.Context, name string) error {
	return fmt.Errorf("zellij cannot switch sessions from inside one; detach first: %w", ErrAttachUnsupported)
}

func (z *Zellij) OpenWorkspace(context.Context, string) error {
	return ErrAttachUnsupported
}

// Delete kills the session. Missing sessions are ignored.
func (z *Zellij) Delete(ctx context.Context, name string) error {
	if !z.Exists(ctx, name) {
		return nil
	}
	cmd := exec.CommandContext(ctx, "zellij", "kill-session", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("killing zellij session %s: %s: %w", name,
			strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Exists probes the session list. Failures read as not-alive.
func (z *Zellij) Exists(ctx context.Context, name string) bool {
	for _, active := range z.ListActive(ctx) {
		if active == name {
			return true
		}
	}
	return false
}

// ListActive returns live session names. Zellij suffixes each line with
// session metadata, so only the first field counts; exited sessions are
// skipped.
func (z *Zellij) ListActive(ctx context.Context) []string {
	cmd := exec.CommandContext(ctx, "zellij", "list-sessions", "--no-formatting")
	output, err := cmd.Output()
	if err != nil {
		return nil
	}

	var names []string
	for _, line := range splitLines(string(output)) {
		if strings.Contains(line, "EXITED") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}

// IsInsideSession reports whether the process runs inside zellij.
func (z *Zellij) IsInsideSession() bool {
	return os.Getenv("ZELLIJ") != ""
}

// CurrentSession returns the enclosing session's name, or "".
func (z *Zellij) CurrentSession() string {
	return os.Getenv("ZELLIJ_SESSION_NAME")
}
