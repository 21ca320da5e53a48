package lint

import (
	"context"
	"fmt"

	"ide-go/internal/ide"
)

// None is the linter used when no analyser is configured.
type None struct{}

func (None) Lint(context.Context, ide.LintInput) ([]ide.Diagnostic, error) {
	return nil, fmt.Errorf("%w: no linter configured", ide.ErrLintUnavailable)
}
