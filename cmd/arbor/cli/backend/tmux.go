package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
	"github.com/arborworks/arbor/cmd/arbor/cli/logging"
)

const tmuxInstallHint = "install with: brew install tmux (macOS) or apt install tmux (Linux)"

// Tmux drives tmux sessions.
type Tmux struct{}

// NewTmux returns the tmux backend.
func NewTmux() *Tmux { return &Tmux{} }

func (t *Tmux) Kind() Kind { return KindTmux }

func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	if err := checkAvailable("tmux", tmuxInstallHint); err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, "tmux", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %s: %w", strings.Join(args, " "),
			strings.TrimSpace(string(output)), err)
	}
	return string(output), nil
}

// Create creates a detached session rooted at workingDir. Creating a name
// that already exists is a no-op so recreation paths stay idempotent.
func (t *Tmux) Create(ctx context.Context, name, workingDir string) error {
	if t.Exists(ctx, name) {
		logging.Debug("tmux session already exists", slog.String("session", name))
		return nil
	}
	_, err := t.run(ctx, "new-session", "-d", "-s", name, "-c", workingDir)
	return err
}

// Attach replaces the calling process with "tmux attach-session". On
// success this call does not return.
func (t *Tmux) Attach(ctx context.Context, name string) error {
	if !t.Exists(ctx, name) {
		return &apperrors.NotFoundError{Entity: apperrors.EntitySession, Name: name}
	}

	tmuxPath, err := exec.LookPath("tmux")
	if err != nil {
		return &apperrors.BackendUnavailableError{Backend: "tmux", InstallHint: tmuxInstallHint}
	}

	logging.Info("attaching to tmux session", slog.String("session", name))
	if err := syscall.Exec(tmuxPath, []string{"tmux", "attach-session", "-t", name}, os.Environ()); err != nil {
		return fmt.Errorf("exec tmux attach: %w", err)
	}
	return nil // unreachable: exec does not return on success
}

// Switch retargets the enclosing tmux client.
func (t *Tmux) Switch(ctx context.Context, name string) error {
	if !t.Exists(ctx, name) {
		return &apperrors.NotFoundError{Entity: apperrors.EntitySession, Name: name}
	}
	_, err := t.run(ctx, "switch-client", "-t", name)
	return err
}

func (t *Tmux) OpenWorkspace(context.Context, string) error {
	return ErrAttachUnsupported
}

// Delete kills the session. Missing sessions are ignored.
func (t *Tmux) Delete(ctx context.Context, name string) error {
	if !t.Exists(ctx, name) {
		return nil
	}
	_, err := t.run(ctx, "kill-session", "-t", name)
	return err
}

// Exists probes "tmux has-session". Any failure, including a missing tmux
// binary, reads as not-alive.
func (t *Tmux) Exists(ctx context.Context, name string) bool {
	cmd := exec.CommandContext(ctx, "tmux", "has-session", "-t", name)
	return cmd.Run() == nil
}

// ListActive returns the live session names, or nil when the server is
// down or tmux is missing.
func (t *Tmux) ListActive(ctx context.Context) []string {
	cmd := exec.CommandContext(ctx, "tmux", "list-sessions", "-F", "#{session_name}")
	output, err := cmd.Output()
	if err != nil {
		return nil
	}
	return splitLines(string(output))
}

// IsInsideSession reports whether the process runs inside tmux.
func (t *Tmux) IsInsideSession() bool {
	return os.Getenv("TMUX") != ""
}

// CurrentSession returns the enclosing session's name, or "".
func (t *Tmux) CurrentSession() string {
	if !t.IsInsideSession() {
		return ""
	}
	cmd := exec.Command("tmux", "display-message", "-p", "#{session_name}")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
