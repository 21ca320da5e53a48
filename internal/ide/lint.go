package ide

import (
	"context"
	"sort"
)

// LintInput is the file a Linter is asked to check.
type LintInput struct {
	// Root is the project's master working copy, for resolving imports.
	Root    string
	Path    string
	Content []byte
}

// Linter runs a static analyser over one file.
type Linter interface {
	// Lint returns diagnostics for the file. Fails with ErrLintUnavailable when
	// the analyser is not configured or crashed.
	Lint(ctx context.Context, in LintInput) ([]Diagnostic, error)
}

// SortDiagnostics orders diagnostics by line number, keeping input order for
// equal lines.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Line < diags[j].Line
	})
}
