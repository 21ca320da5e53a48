package database

import (
	"fmt"
	"os"
	"path/filepath"

	"ide-go/internal/config"
)

// DatabaseFileName is the audit store file inside data_dir.
const DatabaseFileName = "ide.db"

// NewDatabaseFromConfig opens the audit store described by cfg. An in-memory
// store is migrated immediately since it cannot have been migrated before.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFileName))
	case "memory", "":
		db, err := NewSQLiteDatabase(memoryPath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
