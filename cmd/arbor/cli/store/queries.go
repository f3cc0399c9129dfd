package store

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/arborworks/arbor/cmd/arbor/cli/apperrors"
)

const projectColumns = "id, name, display_name, remote_url, clone_path, default_branch, created_at, last_fetched_at"

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	var lastFetched sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &p.RemoteURL, &p.ClonePath,
		&p.DefaultBranch, &p.CreatedAt, &lastFetched)
	if err != nil {
		return nil, err
	}
	p.LastFetchedAt = lastFetched.String
	return &p, nil
}

// CreateProject inserts a new project row and returns it.
func (s *Store) CreateProject(create CreateProject) (*Project, error) {
	res, err := s.db.Exec(
		`INSERT INTO projects (name, display_name, remote_url, clone_path, default_branch)
		 VALUES (?, ?, ?, ?, ?)`,
		create.Name, create.DisplayName, create.RemoteURL, create.ClonePath, create.DefaultBranch,
	)
	if err != nil {
		return nil, &apperrors.StoreError{Op: "insert project", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &apperrors.StoreError{Op: "insert project", Err: err}
	}
	return s.GetProject(id)
}

// GetProject fetches a project by id.
func (s *Store) GetProject(id int64) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Entity: apperrors.EntityProject, Name: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get project", Err: err}
	}
	return p, nil
}

// GetProjectByName fetches a project by its canonical name.
func (s *Store) GetProjectByName(name string) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(
		"SELECT "+projectColumns+" FROM projects WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{
			Entity: apperrors.EntityProject,
			Name:   name,
			Hint:   "list projects with: arbor list",
		}
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get project by name", Err: err}
	}
	return p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.db.Query("SELECT " + projectColumns + " FROM projects ORDER BY name")
	if err != nil {
		return nil, &apperrors.StoreError{Op: "list projects", Err: err}
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, &apperrors.StoreError{Op: "scan project", Err: err}
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StoreError{Op: "list projects", Err: err}
	}
	return projects, nil
}

// FindProjectsBySuffix returns projects whose canonical name equals name or
// ends with "/"+name, supporting short-name resolution in commands.
func (s *Store) FindProjectsBySuffix(name string) ([]*Project, error) {
	rows, err := s.db.Query(
		"SELECT "+projectColumns+" FROM projects WHERE name = ? OR name LIKE ? ORDER BY name",
		name, "%/"+name)
	if err != nil {
		return nil, &apperrors.StoreError{Op: "find projects", Err: err}
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, &apperrors.StoreError{Op: "scan project", Err: err}
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StoreError{Op: "find projects", Err: err}
	}
	return projects, nil
}

// DeleteProject removes a project row; the schema cascades to worktrees and
// sessions.
func (s *Store) DeleteProject(id int64) error {
	if _, err := s.db.Exec("DELETE FROM projects WHERE id = ?", id); err != nil {
		return &apperrors.StoreError{Op: "delete project", Err: err}
	}
	return nil
}

// TouchProjectFetched stamps last_fetched_at with the current time.
func (s *Store) TouchProjectFetched(id int64) error {
	if _, err := s.db.Exec(
		"UPDATE projects SET last_fetched_at = datetime('now') WHERE id = ?", id); err != nil {
		return &apperrors.StoreError{Op: "touch project", Err: err}
	}
	return nil
}

const worktreeColumns = "id, project_id, branch, path, is_primary, created_at, last_accessed_at"

func scanWorktree(row interface{ Scan(...any) error }) (*Worktree, error) {
	var w Worktree
	var primary int64
	err := row.Scan(&w.ID, &w.ProjectID, &w.Branch, &w.Path, &primary,
		&w.CreatedAt, &w.LastAccessedAt)
	if err != nil {
		return nil, err
	}
	w.IsPrimary = primary != 0
	return &w, nil
}

// CreateWorktree inserts a new worktree row and returns it.
func (s *Store) CreateWorktree(create CreateWorktree) (*Worktree, error) {
	primary := 0
	if create.IsPrimary {
		primary = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO worktrees (project_id, branch, path, is_primary)
		 VALUES (?, ?, ?, ?)`,
		create.ProjectID, create.Branch, create.Path, primary,
	)
	if err != nil {
		return nil, &apperrors.StoreError{Op: "insert worktree", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &apperrors.StoreError{Op: "insert worktree", Err: err}
	}
	return s.GetWorktree(id)
}

// GetWorktree fetches a worktree by id.
func (s *Store) GetWorktree(id int64) (*Worktree, error) {
	w, err := scanWorktree(s.db.QueryRow(
		"SELECT "+worktreeColumns+" FROM worktrees WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Entity: apperrors.EntityWorktree, Name: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get worktree", Err: err}
	}
	return w, nil
}

// GetWorktreeByBranch fetches the worktree for (projectID, branch), or nil
// when none is recorded.
func (s *Store) GetWorktreeByBranch(projectID int64, branch string) (*Worktree, error) {
	w, err := scanWorktree(s.db.QueryRow(
		"SELECT "+worktreeColumns+" FROM worktrees WHERE project_id = ? AND branch = ?",
		projectID, branch))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get worktree by branch", Err: err}
	}
	return w, nil
}

// ListWorktrees returns all worktrees of a project ordered by branch.
func (s *Store) ListWorktrees(projectID int64) ([]*Worktree, error) {
	rows, err := s.db.Query(
		"SELECT "+worktreeColumns+" FROM worktrees WHERE project_id = ? ORDER BY branch",
		projectID)
	if err != nil {
		return nil, &apperrors.StoreError{Op: "list worktrees", Err: err}
	}
	defer rows.Close()

	var worktrees []*Worktree
	for rows.Next() {
		w, err := scanWorktree(rows)
		if err != nil {
			return nil, &apperrors.StoreError{Op: "scan worktree", Err: err}
		}
		worktrees = append(worktrees, w)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StoreError{Op: "list worktrees", Err: err}
	}
	return worktrees, nil
}

// DeleteWorktree removes a worktree row; the schema cascades to its session.
func (s *Store) DeleteWorktree(id int64) error {
	if _, err := s.db.Exec("DELETE FROM worktrees WHERE id = ?", id); err != nil {
		return &apperrors.StoreError{Op: "delete worktree", Err: err}
	}
	return nil
}

// TouchWorktree stamps last_accessed_at with the current time.
func (s *Store) TouchWorktree(id int64) error {
	if _, err := s.db.Exec(
		"UPDATE worktrees SET last_accessed_at = datetime('now') WHERE id = ?", id); err != nil {
		return &apperrors.StoreError{Op: "touch worktree", Err: err}
	}
	return nil
}

const sessionColumns = "id, worktree_id, session_name, backend, created_at, last_attached_at"

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.WorktreeID, &sess.SessionName, &sess.Backend,
		&sess.CreatedAt, &sess.LastAttachedAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// CreateSession inserts a new session row and returns it.
func (s *Store) CreateSession(create CreateSession) (*Session, error) {
	res, err := s.db.Exec(
		`INSERT INTO sessions (worktree_id, session_name, backend)
		 VALUES (?, ?, ?)`,
		create.WorktreeID, create.SessionName, create.Backend,
	)
	if err != nil {
		return nil, &apperrors.StoreError{Op: "insert session", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &apperrors.StoreError{Op: "insert session", Err: err}
	}
	return s.GetSession(id)
}

// GetSession fetches a session by id.
func (s *Store) GetSession(id int64) (*Session, error) {
	sess, err := scanSession(s.db.QueryRow(
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Entity: apperrors.EntitySession, Name: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get session", Err: err}
	}
	return sess, nil
}

// GetSessionForWorktree fetches the session bound to a worktree, or nil
// when none is recorded.
func (s *Store) GetSessionForWorktree(worktreeID int64) (*Session, error) {
	sess, err := scanSession(s.db.QueryRow(
		"SELECT "+sessionColumns+" FROM sessions WHERE worktree_id = ?", worktreeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get session for worktree", Err: err}
	}
	return sess, nil
}

// ListSessions returns every session row.
func (s *Store) ListSessions() ([]*Session, error) {
	rows, err := s.db.Query("SELECT " + sessionColumns + " FROM sessions ORDER BY id")
	if err != nil {
		return nil, &apperrors.StoreError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, &apperrors.StoreError{Op: "scan session", Err: err}
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StoreError{Op: "list sessions", Err: err}
	}
	return sessions, nil
}

// TouchSession stamps last_attached_at with the current time.
func (s *Store) TouchSession(id int64) error {
	if _, err := s.db.Exec(
		"UPDATE sessions SET last_attached_at = datetime('now') WHERE id = ?", id); err != nil {
		return &apperrors.StoreError{Op: "touch session", Err: err}
	}
	return nil
}

// AppendHistory records a session activation. History rows are append-only;
// nothing in arbor deletes them directly.
func (s *Store) AppendHistory(sessionID int64) error {
	if _, err := s.db.Exec(
		"INSERT INTO session_history (session_id) VALUES (?)", sessionID); err != nil {
		return &apperrors.StoreError{Op: "append history", Err: err}
	}
	return nil
}

// PreviousSession returns the most recently activated session whose name
// differs from currentName. An empty currentName excludes nothing. Returns
// apperrors.ErrNoPreviousSession when the history holds no such session.
func (s *Store) PreviousSession(currentName string) (*Session, error) {
	query := `
		SELECT s.id, s.worktree_id, s.session_name, s.backend, s.created_at, s.last_attached_at
		FROM sessions s
		INNER JOIN session_history h ON s.id = h.session_id
		WHERE ? = '' OR s.session_name != ?
		ORDER BY h.accessed_at DESC, h.id DESC
		LIMIT 1`

	sess, err := scanSession(s.db.QueryRow(query, currentName, currentName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNoPreviousSession
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "previous session", Err: err}
	}
	return sess, nil
}

// IsUniqueViolation reports whether err is a SQLite uniqueness-constraint
// failure. Concurrent invocations racing on the same insert resolve this
// way; the loser surfaces it as AlreadyExists and the user retries.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		err = storeErr.Err
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
