package testutil

import (
	"testing"

	"ide-go/internal/database"
)

// NewTestDatabase creates an in-memory audit database with migrations
// applied. It is closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return db
}
