package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"ide-go/internal/config"
	"ide-go/internal/ide"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ide.Diagnostic
		ok   bool
	}{
		{
			name: "error with hint",
			line: "robot.py:12: [E0602, main] Undefined variable 'R'",
			want: ide.Diagnostic{File: "robot.py", Line: 12, Message: "Undefined variable 'R'", Hint: "main", Severity: ide.SeverityError},
			ok:   true,
		},
		{
			name: "error without hint",
			line: "robot.py:3: [E] Syntax error",
			want: ide.Diagnostic{File: "robot.py", Line: 3, Message: "Syntax error", Severity: ide.SeverityError},
			ok:   true,
		},
		{
			name: "warning",
			line: "lib/util.py:7: [W0611] Unused import os",
			want: ide.Diagnostic{File: "lib/util.py", Line: 7, Message: "Unused import os", Severity: ide.SeverityWarning},
			ok:   true,
		},
		{
			name: "symbolic name",
			line: "robot.py:4: [E0602(undefined-variable), go] Undefined variable 'x'",
			want: ide.Diagnostic{File: "robot.py", Line: 4, Message: "Undefined variable 'x'", Hint: "go", Severity: ide.SeverityError},
			ok:   true,
		},
		{name: "module header", line: "************* Module robot", ok: false},
		{name: "convention messages are ignored", line: "robot.py:1: [C0111] Missing docstring", ok: false},
		{name: "empty", line: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseLine() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNone(t *testing.T) {
	_, err := None{}.Lint(context.Background(), ide.LintInput{Path: "robot.py"})
	if !errors.Is(err, ide.ErrLintUnavailable) {
		t.Errorf("Lint() error = %v, want ErrLintUnavailable", err)
	}
}

func TestNewLinterFromConfig(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		l, err := NewLinterFromConfig(config.LintConfig{Type: "none"}, nil)
		if err != nil {
			t.Fatalf("NewLinterFromConfig() error = %v", err)
		}
		if _, ok := l.(None); !ok {
			t.Errorf("NewLinterFromConfig() = %T, want None", l)
		}
	})

	t.Run("pylint without path", func(t *testing.T) {
		_, err := NewLinterFromConfig(config.LintConfig{Type: "pylint"}, nil)
		if !errors.Is(err, ide.ErrLintUnavailable) {
			t.Errorf("NewLinterFromConfig() error = %v, want ErrLintUnavailable", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewLinterFromConfig(config.LintConfig{Type: "eslint"}, nil); err == nil {
			t.Error("NewLinterFromConfig() expected error for unknown type")
		}
	})
}

// fakePylint writes a shell script standing in for pylint.
func fakePylint(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pylint")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing fake pylint: %v", err)
	}
	return path
}

func TestPyLint_Lint(t *testing.T) {
	ctx := context.Background()
	in := ide.LintInput{Root: "/srv/repo", Path: "/lib/robot.py", Content: []byte("print(R)\n")}

	t.Run("clean file", func(t *testing.T) {
		l, err := NewPyLint(fakePylint(t, "exit 0"), t.TempDir(), time.Minute, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		diags, err := l.Lint(ctx, in)
		if err != nil {
			t.Fatalf("Lint() error = %v", err)
		}
		if len(diags) != 0 {
			t.Errorf("Lint() = %v, want none", diags)
		}
	})

	t.Run("messages", func(t *testing.T) {
		script := `echo "************* Module robot"
echo "lib/robot.py:9: [W0611] Unused import os"
echo "lib/robot.py:1: [E0602] Undefined variable 'R'"
exit 2`
		l, err := NewPyLint(fakePylint(t, script), "", time.Minute, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		diags, err := l.Lint(ctx, in)
		if err != nil {
			t.Fatalf("Lint() error = %v", err)
		}
		if len(diags) != 2 {
			t.Fatalf("len(Lint()) = %d, want 2: %v", len(diags), diags)
		}
		if diags[0].File != "/lib/robot.py" || diags[0].Line != 9 || diags[0].Severity != ide.SeverityWarning {
			t.Errorf("diags[0] = %+v", diags[0])
		}
		if diags[1].Line != 1 || diags[1].Severity != ide.SeverityError {
			t.Errorf("diags[1] = %+v", diags[1])
		}
	})

	t.Run("content is linted under its project path", func(t *testing.T) {
		script := `test -f lib/robot.py || exit 1
grep -q 'print(R)' lib/robot.py || exit 1
test "$PYTHONPATH" = /srv/repo || exit 1
exit 0`
		l, err := NewPyLint(fakePylint(t, script), "", time.Minute, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		if _, err := l.Lint(ctx, in); err != nil {
			t.Errorf("Lint() error = %v", err)
		}
	})

	t.Run("crash", func(t *testing.T) {
		l, err := NewPyLint(fakePylint(t, `echo "Traceback: boom" >&2; exit 1`), "", time.Minute, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		if _, err := l.Lint(ctx, in); !errors.Is(err, ide.ErrLintUnavailable) {
			t.Errorf("Lint() error = %v, want ErrLintUnavailable", err)
		}
	})

	t.Run("indentation error in an import", func(t *testing.T) {
		script := `echo '  File "helper.py", line 14' >&2
echo "IndentationError: expected an indented block" >&2
exit 1`
		l, err := NewPyLint(fakePylint(t, script), "", time.Minute, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		diags, err := l.Lint(ctx, in)
		if err != nil {
			t.Fatalf("Lint() error = %v", err)
		}
		if len(diags) != 1 {
			t.Fatalf("len(Lint()) = %d, want 1", len(diags))
		}
		want := "One of the imports to /lib/robot.py had an error 'expected an indented block' on line 14."
		if diags[0].Message != want {
			t.Errorf("Message = %q, want %q", diags[0].Message, want)
		}
	})

	t.Run("paths outside the scratch dir are rejected", func(t *testing.T) {
		tmp := t.TempDir()
		t.Setenv("TMPDIR", tmp)
		l, err := NewPyLint(fakePylint(t, "exit 0"), "", time.Minute, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		for _, path := range []string{"../escaped.py", "/../escaped.py", "lib/../../escaped.py", ""} {
			bad := ide.LintInput{Root: "/srv/repo", Path: path, Content: []byte("pwned = 1\n")}
			if _, err := l.Lint(ctx, bad); !errors.Is(err, ide.ErrInvalidPath) {
				t.Errorf("Lint(%q) error = %v, want ErrInvalidPath", path, err)
			}
		}
		if _, err := os.Stat(filepath.Join(tmp, "escaped.py")); !os.IsNotExist(err) {
			t.Errorf("escaped.py was written next to the scratch dir: %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		l, err := NewPyLint(fakePylint(t, "exec sleep 5"), "", 50*time.Millisecond, nil)
		if err != nil {
			t.Fatalf("NewPyLint() error = %v", err)
		}
		if _, err := l.Lint(ctx, in); !errors.Is(err, ide.ErrLintUnavailable) {
			t.Errorf("Lint() error = %v, want ErrLintUnavailable", err)
		}
	})
}
