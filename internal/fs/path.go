package fs

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// ErrInvalidPath is returned for paths and names that would escape their
// workspace or touch version-control metadata.
var ErrInvalidPath = errors.New("invalid path")

// metadataDir is never addressable through a workspace path.
const metadataDir = ".git"

const maxNameLength = 128

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]*$`)

// CleanPath normalises a request path to a slash-separated path relative to
// the workspace root. A leading '/' is accepted and stripped. The root itself
// is returned as ".".
func CleanPath(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalidPath)
	}
	if strings.Contains(raw, `\`) {
		return "", fmt.Errorf("%w: %q contains a backslash", ErrInvalidPath, raw)
	}

	cleaned := path.Clean("/" + raw)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		return ".", nil
	}

	// path.Clean on a rooted path already collapses "..", but a literal ".."
	// in the input is still a sign of a traversal attempt.
	for _, part := range strings.Split(raw, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q escapes the workspace", ErrInvalidPath, raw)
		}
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == metadataDir {
			return "", fmt.Errorf("%w: %q refers to repository metadata", ErrInvalidPath, raw)
		}
	}
	return cleaned, nil
}

// CleanFilePath is CleanPath for operations that need a concrete entry, so
// the workspace root is rejected.
func CleanFilePath(raw string) (string, error) {
	cleaned, err := CleanPath(raw)
	if err != nil {
		return "", err
	}
	if cleaned == "." {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	return cleaned, nil
}

// ValidateName checks that a team, project, or user identifier is safe to use
// as a single directory name.
func ValidateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidPath, kind)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidPath, kind, maxNameLength)
	}
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %s %q", ErrInvalidPath, kind, name)
	}
	return nil
}
