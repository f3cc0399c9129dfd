package cli

import (
	"fmt"
	"path/filepath"

	"github.com/arborworks/arbor/cmd/arbor/cli/backend"
	"github.com/arborworks/arbor/cmd/arbor/cli/config"
	"github.com/arborworks/arbor/cmd/arbor/cli/gitx"
	"github.com/arborworks/arbor/cmd/arbor/cli/logging"
	"github.com/arborworks/arbor/cmd/arbor/cli/paths"
	"github.com/arborworks/arbor/cmd/arbor/cli/picker"
	"github.com/arborworks/arbor/cmd/arbor/cli/project"
	"github.com/arborworks/arbor/cmd/arbor/cli/session"
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
	"github.com/arborworks/arbor/cmd/arbor/cli/worktree"
)

// App holds one command invocation's wired collaborators. Commands open
// it at the start of RunE and close it before process exit or exec.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Git       *gitx.Service
	Backend   backend.Backend
	Picker    picker.Picker
	Projects  *project.Manager
	Worktrees *worktree.Manager
	Sessions  *session.Manager
}

// openApp loads configuration, opens the metadata store, and wires the
// managers together. Collaborators are injected here and nowhere else.
func openApp() (*App, error) {
	configDir, err := paths.DefaultConfigDir()
	if err != nil {
		return nil, err
	}

	if err := paths.EnsureDir(configDir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Logging is best effort; a read-only log dir must not block commands.
	if err := paths.EnsureDir(paths.LogsDir(configDir)); err == nil {
		_ = logging.Init(filepath.Join(paths.LogsDir(configDir), "arbor.log"))
	}

	st, err := store.Open(paths.DBPath(configDir))
	if err != nil {
		return nil, err
	}

	be, err := backend.New(cfg.Session.Backend)
	if err != nil {
		st.Close()
		return nil, err
	}

	git := gitx.NewService()
	pick := picker.NewTerminal()

	projects := project.NewManager(st, git, cfg)
	worktrees := worktree.NewManager(st, git, cfg)
	sessions := session.NewManager(st, be)

	return &App{
		Config:    cfg,
		Store:     st,
		Git:       git,
		Backend:   be,
		Picker:    pick,
		Projects:  projects,
		Worktrees: worktrees,
		Sessions:  sessions,
	}, nil
}

// Close releases the store and flushes logs. Safe to call once.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	logging.Close()
}
