package store

// Project is a cloned repository registered with arbor. Name is the
// canonical "host/user/repo" slug and is unique across the store.
type Project struct {
	ID            int64
	Name          string
	DisplayName   string
	RemoteURL     string
	ClonePath     string
	DefaultBranch string
	CreatedAt     string
	LastFetchedAt string // empty when the project has never been fetched
}

// Worktree is one checked-out branch of a Project. The primary worktree is
// the original clone directory and cannot be deleted on its own.
type Worktree struct {
	ID             int64
	ProjectID      int64
	Branch         string
	Path           string
	IsPrimary      bool
	CreatedAt      string
	LastAccessedAt string
}

// Session binds a Worktree to a backend session. At most one per worktree.
type Session struct {
	ID             int64
	WorktreeID     int64
	SessionName    string
	Backend        string
	CreatedAt      string
	LastAttachedAt string
}

// CreateProject carries the fields for a new Project row.
type CreateProject struct {
	Name          string
	DisplayName   string
	RemoteURL     string
	ClonePath     string
	DefaultBranch string
}

// CreateWorktree carries the fields for a new Worktree row.
type CreateWorktree struct {
	ProjectID int64
	Branch    string
	Path      string
	IsPrimary bool
}

// CreateSession carries the fields for a new Session row.
type CreateSession struct {
	WorktreeID  int64
	SessionName string
	Backend     string
}
