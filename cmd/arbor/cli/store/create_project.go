package store

import (
	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

// CreateProjectWithPrimary inserts a project row and its primary worktree
// row in one transaction. A project record without a primary worktree is
// an invalid state, so the two inserts never land separately.
func (s *Store) CreateProjectWithPrimary(create CreateProject) (*Project, *Worktree, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, &apperrors.StoreError{Op: "begin create project", Err: err}
	}

	res, err := tx.Exec(
		`INSERT INTO projects (name, display_name, remote_url, clone_path, default_branch)
		 VALUES (?, ?, ?, ?, ?)`,
		create.Name, create.DisplayName, create.RemoteURL, create.ClonePath, create.DefaultBranch,
	)
	if err != nil {
		tx.Rollback() //nolint:errcheck // error path
		return nil, nil, &apperrors.StoreError{Op: "insert project", Err: err}
	}
	projectID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback() //nolint:errcheck // error path
		return nil, nil, &apperrors.StoreError{Op: "insert project", Err: err}
	}

	if _, err := tx.Exec(
		`INSERT INTO worktrees (project_id, branch, path, is_primary)
		 VALUES (?, ?, ?, 1)`,
		projectID, create.DefaultBranch, create.ClonePath,
	); err != nil {
		tx.Rollback() //nolint:errcheck // error path
		return nil, nil, &apperrors.StoreError{Op: "insert primary worktree", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, &apperrors.StoreError{Op: "commit create project", Err: err}
	}

	project, err := s.GetProject(projectID)
	if err != nil {
		return nil, nil, err
	}
	worktree, err := s.GetWorktreeByBranch(projectID, create.DefaultBranch)
	if err != nil {
		return nil, nil, err
	}
	return project, worktree, nil
}
