package gitx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// BranchExistsLocal reports whether refs/heads/<branch> resolves in the
// repository at path.
func (s *Service) BranchExistsLocal(path, branch string) (bool, error) {
	repo, err := s.Open(path)
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	return err == nil, nil
}

// BranchExistsRemote reports whether refs/remotes/origin/<branch> resolves
// in the repository at path. This consults remote-tracking refs only; it
// never touches the network.
func (s *Service) BranchExistsRemote(path, branch string) (bool, error) {
	repo, err := s.Open(path)
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	return err == nil, nil
}

// Upstream returns the configured upstream of a local branch as
// "remote/branch", or an empty string when the branch has no upstream.
func (s *Service) Upstream(path, branch string) (string, error) {
	repo, err := s.Open(path)
	if err != nil {
		return "", err
	}

	cfg, err := repo.Config()
	if err != nil {
		return "", fmt.Errorf("reading repository config: %w", err)
	}

	branchCfg, ok := cfg.Branches[branch]
	if !ok || branchCfg.Remote == "" || branchCfg.Merge == "" {
		return "", nil
	}
	return branchCfg.Remote + "/" + branchCfg.Merge.Short(), nil
}

// UpstreamResolves reports whether the given "remote/branch" upstream still
// resolves on the remote-tracking refs.
func (s *Service) UpstreamResolves(path, upstream string) (bool, error) {
	remote, branch, ok := strings.Cut(upstream, "/")
	if !ok {
		return false, nil
	}

	repo, err := s.Open(path)
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	return err == nil, nil
}

// ListBranches returns the union of local and origin remote-tracking
// branch names, deduplicated and sorted. Used by the interactive switch
// flow.
func (s *Service) ListBranches(path string) ([]string, error) {
	repo, err := s.Open(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	local, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing local branches: %w", err)
	}
	_ = local.ForEach(func(ref *plumbing.Reference) error {
		seen[ref.Name().Short()] = struct{}{}
		return nil
	})

	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		name := ref.Name().Short() // e.g. "origin/feature/foo"
		name = strings.TrimPrefix(name, "origin/")
		if name == "HEAD" {
			return nil
		}
		seen[name] = struct{}{}
		return nil
	})

	branches := make([]string, 0, len(seen))
	for name := range seen {
		branches = append(branches, name)
	}
	sort.Strings(branches)
	return branches, nil
}

// CreateBranch creates a local branch at HEAD via "git branch". Only the
// explicit --create switch flow calls this; nothing in arbor creates
// branches implicitly.
func (s *Service) CreateBranch(ctx context.Context, path, branch string) error {
	if _, err := s.executor.Output(ctx, path, "git", "branch", branch); err != nil {
		return fmt.Errorf("creating branch %s: %w", branch, err)
	}
	return nil
}
