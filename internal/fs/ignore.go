package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"
)

// IgnoreFileName is the per-project file whose patterns are hidden from
// listings in addition to the configured ones.
const IgnoreFileName = ".ideignore"

// ignorePattern is a parsed ignore pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
}

// IgnoreMatcher decides which workspace entries are hidden from browsing.
// Names starting with '.' are always hidden. Patterns without '/' match
// against the basename only; patterns with '/' match the full slash-separated
// path relative to the project root.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, ignorePattern{
			pattern:   raw,
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &IgnoreMatcher{patterns: patterns}
}

// With returns a matcher holding the receiver's patterns followed by extra.
// The receiver is not modified.
func (m *IgnoreMatcher) With(extra []string) *IgnoreMatcher {
	more := NewIgnoreMatcher(extra)
	if m == nil {
		return more
	}
	combined := make([]ignorePattern, 0, len(m.patterns)+len(more.patterns))
	combined = append(combined, m.patterns...)
	combined = append(combined, more.patterns...)
	return &IgnoreMatcher{patterns: combined}
}

// IsHiddenName reports whether a single path component is a hidden entry.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Match reports whether the given relative path should be hidden.
// relativePath is slash-separated and relative to the project root.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if relativePath == "" {
		return false
	}
	basename := path.Base(relativePath)
	if basename != "." && IsHiddenName(basename) {
		return true
	}
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.matchPath {
			matched, err = path.Match(p.pattern, relativePath)
		} else {
			matched, err = path.Match(p.pattern, basename)
		}
		if err != nil {
			// Bad pattern; skip it.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads an .ideignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
