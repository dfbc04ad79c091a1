// Package app provides the dependency injection container for the application.
package app

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/runoshun/prdflow/internal/domain"
	"github.com/runoshun/prdflow/internal/infra/config"
	"github.com/runoshun/prdflow/internal/infra/git"
	"github.com/runoshun/prdflow/internal/infra/sessionstore"
	"github.com/runoshun/prdflow/internal/logging"
	"github.com/runoshun/prdflow/internal/session"
)

// Config holds the application paths.
type Config struct {
	RepoRoot     string // Root directory of the git repository
	DataDir      string // Path to <repo>/.prdflow
	SessionsRoot string // Path to the sessions directory
}

// newConfig creates a Config from the git client and loaded settings.
func newConfig(gitClient *git.Client, appCfg *config.Config) Config {
	repoRoot := gitClient.RepoRoot()
	dataDir := filepath.Join(repoRoot, ".prdflow")
	sessionsRoot := appCfg.SessionsRoot
	if sessionsRoot == "" {
		sessionsRoot = filepath.Join(dataDir, "sessions")
	}
	return Config{
		RepoRoot:     repoRoot,
		DataDir:      dataDir,
		SessionsRoot: sessionsRoot,
	}
}

// Container provides dependency injection for the application.
type Container struct {
	Store    domain.SessionStore
	Clock    domain.Clock
	Sessions *session.Manager
	Logger   zerolog.Logger
	Config   Config
}

// New creates a new Container by detecting the git repository from the
// given directory.
func New(dir string) (*Container, error) {
	gitClient, err := git.NewClient(dir)
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(gitClient.RepoRoot(), ".prdflow")
	appCfg, err := config.NewLoader(dataDir).Load()
	if err != nil {
		// Fall back to defaults; a broken config file must not brick the tool.
		appCfg = config.Default()
	}

	logging.Init(appCfg.Log.Level)
	logger := log.Logger

	cfg := newConfig(gitClient, appCfg)
	store := sessionstore.New(logger)
	manager := session.NewManager(store, domain.RealClock{}, logger)

	return &Container{
		Store:    store,
		Clock:    domain.RealClock{},
		Sessions: manager,
		Logger:   logger,
		Config:   cfg,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, store domain.SessionStore, clock domain.Clock, logger zerolog.Logger) *Container {
	return &Container{
		Store:    store,
		Clock:    clock,
		Sessions: session.NewManager(store, clock, logger),
		Logger:   logger,
		Config:   cfg,
	}
}
