package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandExecutor abstracts subprocess execution so tests can inject
// pre-recorded responses instead of shelling out to git.
type CommandExecutor interface {
	// Run executes a command in dir and returns stdout, stderr and any error.
	Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr []byte, err error)

	// Output executes a command in dir and returns stdout, or an error
	// carrying stderr context.
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// RealExecutor executes commands with os/exec.
type RealExecutor struct{}

// NewRealExecutor returns an executor backed by os/exec.
func NewRealExecutor() *RealExecutor { return &RealExecutor{} }

// Run executes a command and returns stdout, stderr and any error.
func (e *RealExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), err
}

// Output executes a command and returns stdout. On failure the error
// message includes trimmed stderr.
func (e *RealExecutor) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	stdout, stderr, err := e.Run(ctx, dir, name, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %s: %w", name, strings.Join(args, " "), msg, err)
	}
	return stdout, nil
}

// MockExecutor records invocations and replays configured responses.
// It is only used by tests.
type MockExecutor struct {
	mu        sync.Mutex
	responses map[string]mockResponse
	calls     []string
}

type mockResponse struct {
	stdout []byte
	stderr []byte
	err    error
}

// NewMockExecutor returns an empty mock. Commands without a configured
// response succeed with empty output.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{responses: make(map[string]mockResponse)}
}

// Respond configures the response for a command line, matched on
// "name arg1 arg2 ...".
func (m *MockExecutor) Respond(commandLine string, stdout string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[commandLine] = mockResponse{stdout: []byte(stdout), err: err}
}

// Calls returns the command lines executed so far.
func (m *MockExecutor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockExecutor) lookup(name string, args []string) mockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	line := strings.Join(append([]string{name}, args...), " ")
	m.calls = append(m.calls, line)
	return m.responses[line]
}

// Run replays the configured response for the command.
func (m *MockExecutor) Run(_ context.Context, _ string, name string, args ...string) ([]byte, []byte, error) {
	resp := m.lookup(name, args)
	return resp.stdout, resp.stderr, resp.err
}

// Output replays the configured response for the command.
func (m *MockExecutor) Output(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	resp := m.lookup(name, args)
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.stdout, nil
}
