package gitx

import (
	"context"
	"fmt"
	"os"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

// AddWorktree creates a git worktree for branch at path, rooted in the
// repository at repoPath. When the branch exists only as
// origin/<branch>, a tracking local branch is created as part of the add;
// when it exists nowhere, BranchNotFound is returned; branch creation is
// always an explicit, separate step.
func (s *Service) AddWorktree(ctx context.Context, repoPath, branch, path string) error {
	localExists, err := s.BranchExistsLocal(repoPath, branch)
	if err != nil {
		return err
	}

	if localExists {
		if _, err := s.executor.Output(ctx, repoPath, "git", "worktree", "add", path, branch); err != nil {
			return fmt.Errorf("adding worktree at %s: %w", path, err)
		}
		return nil
	}

	remoteExists, err := s.BranchExistsRemote(repoPath, branch)
	if err != nil {
		return err
	}
	if !remoteExists {
		return apperrors.NewBranchNotFound(branch)
	}

	if _, err := s.executor.Output(ctx, repoPath,
		"git", "worktree", "add", "--track", "-b", branch, path, "origin/"+branch); err != nil {
		return fmt.Errorf("adding worktree at %s: %w", path, err)
	}
	return nil
}

// RemoveWorktree removes the worktree at worktreePath from the repository
// at repoPath, then prunes stale worktree metadata. A directory git no
// longer knows about is removed directly so clean can repair half-finished
// state.
func (s *Service) RemoveWorktree(ctx context.Context, repoPath, worktreePath string) error {
	_, removeErr := s.executor.Output(ctx, repoPath,
		"git", "worktree", "remove", "--force", worktreePath)
	if removeErr != nil {
		if _, err := os.Stat(worktreePath); err == nil {
			if err := os.RemoveAll(worktreePath); err != nil {
				return fmt.Errorf("removing worktree directory %s: %w", worktreePath, err)
			}
		}
	}

	if _, err := s.executor.Output(ctx, repoPath, "git", "worktree", "prune"); err != nil {
		return fmt.Errorf("pruning worktrees: %w", err)
	}
	return nil
}
