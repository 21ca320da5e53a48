package testutil

import (
	"context"
	"slices"
	"sync"

	"ide-go/internal/ide"
)

// StubLinter returns canned diagnostics (or Err) and records its inputs.
type StubLinter struct {
	Diagnostics []ide.Diagnostic
	Err         error

	mu     sync.Mutex
	inputs []ide.LintInput
}

var _ ide.Linter = (*StubLinter)(nil)

func (l *StubLinter) Lint(_ context.Context, in ide.LintInput) ([]ide.Diagnostic, error) {
	l.mu.Lock()
	l.inputs = append(l.inputs, in)
	l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	return slices.Clone(l.Diagnostics), nil
}

// Inputs returns every file the linter was asked to check.
func (l *StubLinter) Inputs() []ide.LintInput {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.inputs)
}
