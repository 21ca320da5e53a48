package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ide-go/internal/ide"
)

func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func record(id, op, team, project, user string, started time.Time) *ide.OperationRecord {
	return &ide.OperationRecord{
		ID:         id,
		Operation:  op,
		Team:       team,
		Project:    project,
		User:       user,
		Parameters: `{"path":"a.py"}`,
		Status:     ide.StatusSuccess,
		StartedAt:  started,
		FinishedAt: started.Add(150 * time.Millisecond),
	}
}

func TestSQLiteDatabase_RecordOperation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	rec := record("op-1", "put", "alpha", "wut", "alice", start)
	rec.Status = ide.StatusError
	rec.Error = "writing a.py: storage error"
	require.NoError(t, db.RecordOperation(ctx, rec))

	ops, err := db.ListOperations(ctx, OperationFilter{})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	got := ops[0]
	assert.Equal(t, "op-1", got.ID)
	assert.Equal(t, "put", got.Operation)
	assert.Equal(t, "alpha", got.Team)
	assert.Equal(t, "wut", got.Project)
	assert.Equal(t, "alice", got.User)
	assert.Equal(t, `{"path":"a.py"}`, got.Parameters)
	assert.Equal(t, ide.StatusError, got.Status)
	assert.Equal(t, "writing a.py: storage error", got.Error)
	assert.True(t, got.StartedAt.Equal(start), "StartedAt = %v, want %v", got.StartedAt, start)
	assert.Equal(t, 150*time.Millisecond, got.Duration())
}

func TestSQLiteDatabase_RecordOperationDuplicateID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	require.NoError(t, db.RecordOperation(ctx, record("op-1", "put", "alpha", "wut", "alice", start)))
	assert.Error(t, db.RecordOperation(ctx, record("op-1", "put", "alpha", "wut", "alice", start)))
}

func TestSQLiteDatabase_ListOperations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	recs := []*ide.OperationRecord{
		record("op-1", "put", "alpha", "wut", "alice", start),
		record("op-2", "commit", "alpha", "wut", "bob", start.Add(time.Minute)),
		record("op-3", "get", "beta", "robot", "alice", start.Add(2*time.Minute)),
		record("op-4", "log", "alpha", "other", "alice", start.Add(3*time.Minute)),
	}
	for _, rec := range recs {
		require.NoError(t, db.RecordOperation(ctx, rec))
	}

	ids := func(ops []*ide.OperationRecord) []string {
		out := make([]string, len(ops))
		for i, op := range ops {
			out[i] = op.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter OperationFilter
		want   []string
	}{
		{"newest first", OperationFilter{}, []string{"op-4", "op-3", "op-2", "op-1"}},
		{"limit", OperationFilter{Limit: 2}, []string{"op-4", "op-3"}},
		{"team", OperationFilter{Team: "alpha"}, []string{"op-4", "op-2", "op-1"}},
		{"team and project", OperationFilter{Team: "alpha", Project: "wut"}, []string{"op-2", "op-1"}},
		{"user", OperationFilter{User: "alice", Limit: 2}, []string{"op-4", "op-3"}},
		{"no match", OperationFilter{Team: "gamma"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := db.ListOperations(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(ops))
		})
	}
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	db, err := NewSQLiteDatabase(memoryPath)
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.CheckMigrations(), "unmigrated database should fail the check")
	require.NoError(t, db.Migrate())
	assert.NoError(t, db.CheckMigrations())
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	require.NoError(t, db.RecordOperation(ctx, record("op-1", "put", "alpha", "wut", "alice", start)))

	dest := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, db.BackupTo(dest))

	restored, err := NewSQLiteDatabase(dest)
	require.NoError(t, err)
	defer restored.Close()

	ops, err := restored.ListOperations(ctx, OperationFilter{})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "op-1", ops[0].ID)
}
