package ide

import (
	"context"
	"time"
)

// Operation record statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDenied  = "denied"
)

// OperationRecord is the audit entry written for every dispatched operation.
type OperationRecord struct {
	ID         string    `db:"id"`
	Operation  string    `db:"operation"`
	Team       string    `db:"team"`
	Project    string    `db:"project"`
	User       string    `db:"user_name"`
	Parameters string    `db:"parameters"`
	Status     string    `db:"status"`
	Error      string    `db:"error"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// Duration is how long the operation took.
func (r *OperationRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder persists operation records.
type Recorder interface {
	RecordOperation(ctx context.Context, rec *OperationRecord) error
}

// NopRecorder drops every record. Use in tests.
type NopRecorder struct{}

func (NopRecorder) RecordOperation(context.Context, *OperationRecord) error { return nil }
