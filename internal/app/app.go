package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ide-go/internal/api"
	"ide-go/internal/auth"
	"ide-go/internal/config"
	"ide-go/internal/database"
	"ide-go/internal/fs"
	"ide-go/internal/git"
	"ide-go/internal/ide"
	"ide-go/internal/lint"
)

// IDEApp is the application layer between the CLI and FileService.
// It constructs all dependencies from config, exposes the HTTP handler and
// the administrative operations, and manages the DB lifecycle on Close.
type IDEApp struct {
	cfg      *config.Config
	db       *database.SQLiteDatabase
	auth     *auth.Static
	provider *git.Provider
	manager  *ide.Manager
	linter   ide.Linter
	service  *ide.FileService
	logger   *slog.Logger
	adapter  *slogAdapter
	runID    string
	logFile  *os.File
}

// NewIDEApp creates a fully wired IDEApp from the given config.
// The caller must call Close when done.
func NewIDEApp(cfg *config.Config) (*IDEApp, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run \"ide db migrate\"): %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID, cfg.LogLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	linter, err := lint.NewLinterFromConfig(cfg.Lint, adapter)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating linter: %w", err)
	}

	provider := git.NewProvider(git.Options{
		Binary:        cfg.VCS.Binary,
		Timeout:       cfg.VCS.Timeout.Or(config.DefaultVCSTimeout),
		DefaultBranch: cfg.VCS.DefaultBranch,
	}, adapter)
	manager := ide.NewManager(cfg.RepoPath, provider, fs.NewIgnoreMatcher(cfg.Workspace.Hide), systemAuthor(cfg), adapter)

	users := auth.NewStatic(cfg.Users)
	svc := ide.NewFileService(manager, users, linter, db, adapter, ide.RealClock{}, ide.UUIDGenerator{})

	return &IDEApp{
		cfg:      cfg,
		db:       db,
		auth:     users,
		provider: provider,
		manager:  manager,
		linter:   linter,
		service:  svc,
		logger:   logger,
		adapter:  adapter,
		runID:    runID,
		logFile:  logFile,
	}, nil
}

func systemAuthor(cfg *config.Config) ide.Author {
	return ide.Author{Name: cfg.VCS.SystemName, Email: cfg.VCS.SystemEmail}
}

// Logger returns the application logger.
func (a *IDEApp) Logger() *slog.Logger {
	return a.logger
}

// RunID identifies this process in log lines.
func (a *IDEApp) RunID() string {
	return a.runID
}

// Handler returns the HTTP API served by "ide serve".
func (a *IDEApp) Handler() http.Handler {
	return api.NewServer(a.service, a.auth, a.adapter)
}

// HTTPServer wraps Handler in an http.Server using the configured listener
// and timeouts.
func (a *IDEApp) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         a.cfg.Server.Listen,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Or(config.DefaultHTTPTimeout),
		WriteTimeout: a.cfg.Server.WriteTimeout.Or(config.DefaultHTTPTimeout),
		ErrorLog:     slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}
}

// ReloadUsers swaps in the user table of a reloaded config. Other settings
// need a restart.
func (a *IDEApp) ReloadUsers(cfg *config.Config) {
	a.auth.Replace(cfg.Users)
	a.logger.Info("user table reloaded", "users", len(cfg.Users))
}

// CreateProject initialises a project's master repository on behalf of the
// system identity. The operation is audited like any other.
func (a *IDEApp) CreateProject(ctx context.Context, team, project string) error {
	op := NewOperator(systemAuthor(a.cfg), team)
	svc := ide.NewFileService(a.manager, op, a.linter, a.db, a.adapter, ide.RealClock{}, ide.UUIDGenerator{})
	_, err := svc.Dispatch(op.Context(ctx), ide.CreateRequest{Target: ide.Target{Team: team, Project: project}})
	return err
}

// GetHistory returns the most recent audited operations, newest first.
func (a *IDEApp) GetHistory(ctx context.Context, filter database.OperationFilter) ([]*ide.OperationRecord, error) {
	return a.db.ListOperations(ctx, filter)
}

// VCSVersion reports the version of the configured git binary.
func (a *IDEApp) VCSVersion(ctx context.Context) (string, error) {
	return a.provider.Version(ctx)
}

// Close closes the database and the log file.
func (a *IDEApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
