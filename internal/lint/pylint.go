// Package lint runs static analysers over project files.
package lint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"ide-go/internal/ide"
)

var stderrLinePattern = regexp.MustCompile(`line (\d+)`)

// PyLint lints Python files with the pylint binary, errors only.
type PyLint struct {
	binary  string
	home    string
	timeout time.Duration
	logger  ide.Logger
}

// NewPyLint checks that the binary is configured and prepares PYLINTHOME.
func NewPyLint(binary, home string, timeout time.Duration, logger ide.Logger) (*PyLint, error) {
	if binary == "" {
		return nil, fmt.Errorf("%w: pylint_path is not set", ide.ErrLintUnavailable)
	}
	if home != "" {
		if err := os.MkdirAll(home, 0o755); err != nil {
			return nil, fmt.Errorf("creating pylint home: %w", err)
		}
	}
	if logger == nil {
		logger = ide.NewNopLogger()
	}
	return &PyLint{binary: binary, home: home, timeout: timeout, logger: logger}, nil
}

// Lint writes the content to a scratch directory under its project path and
// runs pylint there, with the project root on PYTHONPATH so imports resolve.
//
// pylint exit status 0 means no messages and 1 means pylint itself crashed;
// anything else carries messages on stdout.
func (p *PyLint) Lint(ctx context.Context, in ide.LintInput) ([]ide.Diagnostic, error) {
	scratch, err := os.MkdirTemp("", "ide-lint-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating scratch dir: %v", ide.ErrLintUnavailable, err)
	}
	defer os.RemoveAll(scratch)

	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(in.Path, "/")))
	if rel == "." || !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %q is outside the project", ide.ErrInvalidPath, in.Path)
	}
	target := filepath.Join(scratch, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ide.ErrLintUnavailable, err)
	}
	if err := os.WriteFile(target, in.Content, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ide.ErrLintUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(callCtx, p.binary,
		"--rcfile="+os.DevNull, "--errors-only", "--output-format=parseable", "--reports=n", rel)
	cmd.Dir = scratch
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), "PYTHONPATH="+in.Root)
	if p.home != "" {
		cmd.Env = append(cmd.Env, "PYLINTHOME="+p.home)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	p.logger.Debug("pylint", "path", in.Path, "duration", time.Since(start), "error", err)

	if err == nil {
		return []ide.Diagnostic{}, nil
	}
	if callCtx.Err() != nil {
		return nil, fmt.Errorf("%w: pylint timed out after %s", ide.ErrLintUnavailable, p.timeout)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%w: running pylint: %v", ide.ErrLintUnavailable, err)
	}
	if exitErr.ExitCode() == 1 {
		return crashDiagnostics(in.Path, stderr.String())
	}
	return parseOutput(in.Path, rel, stdout.Bytes()), nil
}

// crashDiagnostics handles a pylint crash. An IndentationError in an imported
// module is reported to the user; anything else means no results.
func crashDiagnostics(path, stderr string) ([]ide.Diagnostic, error) {
	if !strings.Contains(stderr, "IndentationError") {
		return nil, fmt.Errorf("%w: pylint crashed: %s", ide.ErrLintUnavailable, lastLine(stderr))
	}
	line := "?"
	if all := stderrLinePattern.FindAllStringSubmatch(stderr, -1); len(all) > 0 {
		line = all[len(all)-1][1]
	}
	return []ide.Diagnostic{{
		File:     path,
		Line:     0,
		Message:  fmt.Sprintf("One of the imports to %s had an error 'expected an indented block' on line %s.", path, line),
		Severity: ide.SeverityError,
	}}, nil
}

func parseOutput(path, rel string, out []byte) []ide.Diagnostic {
	diags := []ide.Diagnostic{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		d, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		if filepath.Clean(d.File) == rel {
			d.File = path
		}
		diags = append(diags, d)
	}
	return diags
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
