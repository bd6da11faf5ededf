package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/halden/nextstep/internal/config"
	"github.com/halden/nextstep/internal/db"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/query"
)

// App is the composition root: it owns the config, the single-instance lock,
// the store handle, and the reactive layers built on top of it. Components
// receive their dependencies from here, never from globals.
type App struct {
	Config     config.Config
	DB         *db.DB
	Projection *query.Projection
	Aggregator *query.Aggregator
	Policy     db.ProjectDeletePolicy
	DataDir    string

	lockFile *flock.Flock
}

// New creates a new application instance. Pass an empty dataDir to use the
// default location.
func New(dataDir string) (*App, error) {
	if dataDir == "" {
		dataDir = db.DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg, err := config.LoadOrCreate(filepath.Join(dataDir, config.DefaultConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir, "nextstep.db")
	}

	policy, err := db.ParseProjectDeletePolicy(cfg.ProjectDeletePolicy)
	if err != nil {
		return nil, err
	}

	initialKind, err := model.ParseFilterKind(cfg.DefaultFilter)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Policy: policy, DataDir: dataDir}

	// Single running instance; a second one would fight over the store.
	if err := a.acquireLock(); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		a.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	a.Projection = query.NewProjection(database,
		query.WithFirstDayOfWeek(cfg.FirstDay()),
		query.WithInitialKind(initialKind))
	a.Aggregator = query.NewAggregator(database)

	return a, nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "nextstep.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of nextstep is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.Projection != nil {
		a.Projection.Close()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
