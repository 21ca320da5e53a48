package testutil

import (
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"ide-go/internal/fs"
	"ide-go/internal/git"
	"ide-go/internal/ide"
)

// SystemAuthor authors the root commit of projects created in tests.
var SystemAuthor = ide.Author{Name: "IDE", Email: "ide@localhost"}

// RequireGit skips the test when the git binary is not on PATH.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// NewGitProvider returns a git provider with test-friendly settings.
func NewGitProvider(t *testing.T) *git.Provider {
	t.Helper()
	RequireGit(t)
	return git.NewProvider(git.Options{Timeout: time.Minute}, ide.NewNopLogger())
}

// NewManager returns a Manager over a fresh temporary repository root.
func NewManager(t *testing.T, hide ...string) (*ide.Manager, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "repos")
	m := ide.NewManager(root, NewGitProvider(t), fs.NewIgnoreMatcher(hide), SystemAuthor, ide.NewNopLogger())
	return m, root
}
