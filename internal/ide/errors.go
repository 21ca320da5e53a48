package ide

import (
	"errors"
	"fmt"
	"strings"

	"ide-go/internal/fs"
)

var (
	// ErrPermission means the caller is not in the team or may not write to it.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound means a path or revision does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage means a workspace is corrupt or could not be provisioned.
	ErrStorage = errors.New("storage error")

	// ErrLintUnavailable means the lint collaborator cannot produce results.
	ErrLintUnavailable = errors.New("lint unavailable")

	// ErrConflict means a workspace cannot be fast-forwarded to, or published
	// onto, the master history.
	ErrConflict = errors.New("conflict with master history")

	// ErrTimeout means a version-control invocation exceeded its deadline.
	ErrTimeout = errors.New("version control timed out")

	// ErrInvalidRequest means required request fields are missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidPath is shared with the fs package so callers can match
	// path validation failures from either layer.
	ErrInvalidPath = fs.ErrInvalidPath
)

// VcsError is a failure reported by the external version-control tool.
// Output carries the tool's raw diagnostic text.
type VcsError struct {
	Args   []string
	Output string
	Err    error
}

func (e *VcsError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *VcsError) Unwrap() error { return e.Err }

// IsVcsError reports whether err carries a *VcsError.
func IsVcsError(err error) bool {
	var vcsErr *VcsError
	return errors.As(err, &vcsErr)
}
