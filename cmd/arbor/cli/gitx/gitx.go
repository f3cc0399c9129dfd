// Package gitx is the git collaborator: pure functions over a repository
// path with no state beyond the filesystem. Reads (refs, remotes,
// upstreams) go through go-git; mutations that need full git fidelity
// (clone, worktree add/remove, fetch) shell out through a CommandExecutor
// so tests can intercept them.
package gitx

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Service provides git operations with an injected executor.
type Service struct {
	executor CommandExecutor
}

// NewService returns a Service backed by real subprocess execution.
func NewService() *Service {
	return &Service{executor: NewRealExecutor()}
}

// NewServiceWithExecutor returns a Service with a custom executor,
// primarily for tests.
func NewServiceWithExecutor(executor CommandExecutor) *Service {
	return &Service{executor: executor}
}

// Clone clones url into path. The parent directory must exist; the target
// itself must not.
func (s *Service) Clone(ctx context.Context, url, path string) error {
	if _, err := s.executor.Output(ctx, "", "git", "clone", url, path); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// Open opens the repository at path.
func (s *Service) Open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// RemoteURL returns the fetch URL of origin, falling back to the first
// configured remote.
func (s *Service) RemoteURL(path string) (string, error) {
	repo, err := s.Open(path)
	if err != nil {
		return "", err
	}

	remote, err := repo.Remote(gogit.DefaultRemoteName)
	if err != nil {
		remotes, rerr := repo.Remotes()
		if rerr != nil || len(remotes) == 0 {
			return "", fmt.Errorf("repository at %s has no remotes", path)
		}
		remote = remotes[0]
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remote.Config().Name)
	}
	return urls[0], nil
}

// DefaultBranch determines the default branch of the repository at path:
// origin/HEAD when present, then HEAD, then main or master.
func (s *Service) DefaultBranch(path string) (string, error) {
	repo, err := s.Open(path)
	if err != nil {
		return "", err
	}

	if ref, err := repo.Reference("refs/remotes/origin/HEAD", false); err == nil &&
		ref.Type() == plumbing.SymbolicReference {
		return strings.TrimPrefix(ref.Target().Short(), "origin/"), nil
	}

	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short(), nil
	}

	for _, candidate := range []string{"main", "master"} {
		if _, err := repo.Reference(plumbing.NewBranchReferenceName(candidate), true); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not determine default branch of %s", path)
}

// Fetch runs "git fetch --prune" in the repository at path.
func (s *Service) Fetch(ctx context.Context, path string) error {
	if _, err := s.executor.Output(ctx, path, "git", "fetch", "--prune"); err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	return nil
}
