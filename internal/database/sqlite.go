package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"ide-go/internal/database/migrations"
	"ide-go/internal/ide"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const memoryPath = ":memory:"

// SQLiteDatabase is the audit store: one row per dispatched operation.
type SQLiteDatabase struct {
	db   *sqlx.DB
	path string
}

// OperationFilter narrows ListOperations. Zero fields match everything.
type OperationFilter struct {
	Team    string
	Project string
	User    string
	Limit   int
}

// NewSQLiteDatabase opens the database at path (or ":memory:").
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an already configured connection.
func NewSQLiteDatabaseFromDB(db *sqlx.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens a SQLite connection with the PRAGMAs the store relies
// on. An in-memory database is pinned to one connection, since every new
// connection would otherwise get its own empty database.
func OpenConnection(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	return db, nil
}

// RecordOperation stores one audit record.
func (s *SQLiteDatabase) RecordOperation(ctx context.Context, rec *ide.OperationRecord) error {
	row := *rec
	row.StartedAt = row.StartedAt.UTC()
	row.FinishedAt = row.FinishedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO operations
			(id, operation, team, project, user_name, parameters, status, error, started_at, finished_at)
		VALUES
			(:id, :operation, :team, :project, :user_name, :parameters, :status, :error, :started_at, :finished_at)`,
		&row)
	if err != nil {
		return fmt.Errorf("recording operation %s: %w", rec.ID, err)
	}
	return nil
}

// ListOperations returns matching records, newest first.
func (s *SQLiteDatabase) ListOperations(ctx context.Context, filter OperationFilter) ([]*ide.OperationRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Team != "" {
		where = append(where, "team = ?")
		args = append(args, filter.Team)
	}
	if filter.Project != "" {
		where = append(where, "project = ?")
		args = append(args, filter.Project)
	}
	if filter.User != "" {
		where = append(where, "user_name = ?")
		args = append(args, filter.User)
	}

	query := `SELECT id, operation, team, project, user_name, parameters, status, error, started_at, finished_at
		FROM operations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var ops []*ide.OperationRecord
	if err := s.db.SelectContext(ctx, &ops, query, args...); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db.DB)
}

// Migrate applies pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db.DB)
}

// BackupTo writes a consistent copy of the database to destPath.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ ide.Recorder = (*SQLiteDatabase)(nil)
