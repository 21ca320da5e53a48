package lint

import (
	"fmt"

	"ide-go/internal/config"
	"ide-go/internal/ide"
)

// NewLinterFromConfig creates a Linter based on the lint config type.
func NewLinterFromConfig(cfg config.LintConfig, logger ide.Logger) (ide.Linter, error) {
	switch cfg.Type {
	case "", "none":
		return None{}, nil
	case "pylint":
		return NewPyLint(cfg.PylintPath, cfg.PylintDir, cfg.Timeout.Or(config.DefaultLintTimeout), logger)
	default:
		return nil, fmt.Errorf("unknown lint type: %s", cfg.Type)
	}
}
