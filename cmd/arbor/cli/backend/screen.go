package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

const screenInstallHint = "install with: apt install screen or brew install screen"

// Screen drives GNU screen sessions. Screen lacks a switch-client
// equivalent, so Switch always fails and callers must detach first.
type Screen struct{}

// NewScreen returns the GNU screen backend.
func NewScreen() *Screen { return &Screen{} }

func (s *Screen) Kind() Kind { return KindScreen }

// Create starts a detached screen session whose shell begins in workingDir.
func (s *Screen) Create(ctx context.Context, name, workingDir string) error {
	if err := checkAvailable("screen", screenInstallHint); err != nil {
		return err
	}
	if s.Exists(ctx, name) {
		return nil
	}

	cmd := exec.CommandContext(ctx, "screen", "-dmS", name,
		"sh", "-c", fmt.Sprintf("cd %q && exec ${SHELL:-sh}", workingDir))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("creating screen session %s: %s: %w", name,
			strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Attach replaces the calling process with "screen -r". On success this
// call does not return.
func (s *Screen) Attach(ctx context.Context, name string) error {
	if !s.Exists(ctx, name) {
		return &apperrors.NotFoundError{Entity: apperrors.EntitySession, Name: name}
	}

	screenPath, err := exec.LookPath("screen")
	if err != nil {
		return &apperrors.BackendUnavailableError{Backend: "screen", InstallHint: screenInstallHint}
	}

	if err := syscall.Exec(screenPath, []string{"screen", "-r", name}, os.Environ()); err != nil {
		return fmt.Errorf("exec screen attach: %w", err)
	}
	return nil // unreachable: exec does not return on success
}

// Switch is unsupported: screen cannot move a client between sessions.
func (s *Screen) Switch(context.Context, string) error {
	return fmt.Errorf("screen cannot switch sessions; detach and reattach: %w", ErrAttachUnsupported)
}

func (s *Screen) OpenWorkspace(context.Context, string) error {
	return ErrAttachUnsupported
}

// Delete quits the session. Missing sessions are ignored.
func (s *Screen) Delete(ctx context.Context, name string) error {
	if !s.Exists(ctx, name) {
		return nil
	}
	cmd := exec.CommandContext(ctx, "screen", "-S", name, "-X", "quit")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("killing screen session %s: %s: %w", name,
			strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Exists reports whether the session shows up in "screen -ls".
func (s *Screen) Exists(ctx context.Context, name string) bool {
	for _, active := range s.ListActive(ctx) {
		if active == name {
			return true
		}
	}
	return false
}

// ListActive parses "screen -ls" output. Lines look like
// "\t12345.name\t(Detached)"; the name is everything after the first dot
// of the second field. screen exits non-zero when no sessions exist, so
// output is parsed regardless of the exit code.
func (s *Screen) ListActive(ctx context.Context) []string {
	cmd := exec.CommandContext(ctx, "screen", "-ls")
	output, _ := cmd.Output()

	var names []string
	for _, line := range splitLines(string(output)) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pidName := fields[0]
		if _, name, ok := strings.Cut(pidName, "."); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IsInsideSession reports whether the process runs inside screen.
func (s *Screen) IsInsideSession() bool {
	return os.Getenv("STY") != ""
}

// CurrentSession returns the enclosing session's name from STY
// ("pid.name"), or "".
func (s *Screen) CurrentSession() string {
	sty := os.Getenv("STY")
	if sty == "" {
		return ""
	}
	if _, name, ok := strings.Cut(sty, "."); ok {
		return name
	}
	return ""
}
