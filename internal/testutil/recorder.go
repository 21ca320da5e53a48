package testutil

import (
	"context"
	"sync"

	"ide-go/internal/ide"
)

// MemoryRecorder keeps operation records in memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []ide.OperationRecord
}

var _ ide.Recorder = (*MemoryRecorder)(nil)

func (r *MemoryRecorder) RecordOperation(_ context.Context, rec *ide.OperationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

// Records returns a copy of everything recorded so far, oldest first.
func (r *MemoryRecorder) Records() []ide.OperationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ide.OperationRecord, len(r.records))
	copy(out, r.records)
	return out
}
