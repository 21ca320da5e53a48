package ide

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"ide-go/internal/fs"
)

// PlaceholderName is the hidden file that keeps an otherwise empty directory
// tracked.
const PlaceholderName = ".directory"

// Repository is one working copy tied to one revision lineage. It enforces
// path safety and the workspace conventions (placeholders, hidden entries)
// on top of a VersionControl.
//
// A Repository is not safe for concurrent use; callers obtain it through a
// Manager lease, which serialises access per working copy.
type Repository struct {
	vcs    VersionControl
	hidden *fs.IgnoreMatcher
}

// NewRepository wraps a working copy. hidden may be nil.
func NewRepository(vcs VersionControl, hidden *fs.IgnoreMatcher) *Repository {
	return &Repository{vcs: vcs, hidden: hidden}
}

// Path returns the working copy's root directory.
func (r *Repository) Path() string {
	return r.vcs.Root()
}

// CurrentRevision returns the HEAD commit identifier.
func (r *Repository) CurrentRevision(ctx context.Context) (string, error) {
	return r.vcs.CurrentRevision(ctx)
}

// FirstRevision returns the root commit identifier.
func (r *Repository) FirstRevision(ctx context.Context) (string, error) {
	return r.vcs.FirstRevision(ctx)
}

// CreateFile creates an empty file and stages it. An existing file is left
// untouched.
func (r *Repository) CreateFile(ctx context.Context, rawPath string) error {
	p, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return err
	}
	if _, err := r.vcs.CreateFile(ctx, p); err != nil {
		return fmt.Errorf("creating %s: %w", p, err)
	}
	return nil
}

// PutFile writes a draft of the file and stages it without committing.
func (r *Repository) PutFile(ctx context.Context, rawPath string, data []byte) error {
	p, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return err
	}
	if err := r.vcs.PutFile(ctx, p, data); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// GetFile returns the file at rev, or the working-tree draft when rev is empty.
func (r *Repository) GetFile(ctx context.Context, rawPath, rev string) ([]byte, error) {
	p, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return nil, err
	}
	data, err := r.vcs.GetFile(ctx, p, rev)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// RemoveFile deletes a file or directory and stages the deletion.
func (r *Repository) RemoveFile(ctx context.Context, rawPath string) error {
	p, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return err
	}
	if err := r.vcs.RemoveFile(ctx, p); err != nil {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	return nil
}

// CopyFile copies the working-tree content of src to dst and stages dst.
func (r *Repository) CopyFile(ctx context.Context, rawSrc, rawDst string) error {
	src, err := fs.CleanFilePath(rawSrc)
	if err != nil {
		return err
	}
	dst, err := fs.CleanFilePath(rawDst)
	if err != nil {
		return err
	}

	// Read before dst is touched so copying a file onto itself is harmless.
	data, err := r.vcs.GetFile(ctx, src, "")
	if err != nil {
		return fmt.Errorf("reading copy source %s: %w", src, err)
	}
	if _, err := r.vcs.CreateFile(ctx, dst); err != nil {
		return fmt.Errorf("creating copy destination %s: %w", dst, err)
	}
	if err := r.vcs.PutFile(ctx, dst, data); err != nil {
		return fmt.Errorf("writing copy destination %s: %w", dst, err)
	}
	return nil
}

// MoveFile is CopyFile followed by removing src. It is not atomic: if the
// removal fails both paths remain and the call can simply be repeated.
func (r *Repository) MoveFile(ctx context.Context, rawSrc, rawDst string) error {
	if err := r.CopyFile(ctx, rawSrc, rawDst); err != nil {
		return err
	}
	src, _ := fs.CleanFilePath(rawSrc)
	dst, _ := fs.CleanFilePath(rawDst)
	if src == dst {
		return nil
	}
	if err := r.vcs.RemoveFile(ctx, src); err != nil {
		return fmt.Errorf("removing move source %s: %w", src, err)
	}
	return nil
}

// MakeDirectory creates a placeholder file in the directory and in every
// ancestor below the project root, staging each one. It returns the
// placeholder paths from the deepest up. Repeating the call is a no-op.
func (r *Repository) MakeDirectory(ctx context.Context, rawPath string) ([]string, error) {
	dir, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return nil, err
	}

	var paths []string
	for d := dir; d != "." && d != "/"; d = path.Dir(d) {
		placeholder := path.Join(d, PlaceholderName)
		if _, err := r.vcs.CreateFile(ctx, placeholder); err != nil {
			return paths, fmt.Errorf("creating placeholder %s: %w", placeholder, err)
		}
		paths = append(paths, placeholder)
	}
	return paths, nil
}

// ListFiles returns the names of the visible entries directly inside a
// working-tree directory, sorted lexicographically.
func (r *Repository) ListFiles(ctx context.Context, rawPath string) ([]string, error) {
	dir, err := fs.CleanPath(rawPath)
	if err != nil {
		return nil, err
	}

	entries, err := r.vcs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	hidden := r.matcher()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		rel := e.Name()
		if dir != "." {
			rel = path.Join(dir, e.Name())
		}
		if hidden.Match(rel) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FileTree builds the project browser tree from the files tracked at rev
// (HEAD when empty). Entry paths are prefixed with "/<project>".
func (r *Repository) FileTree(ctx context.Context, project, rev string) ([]*FileEntry, error) {
	if rev == "" {
		rev = "HEAD"
	}
	resolved, err := r.vcs.ResolveRevision(ctx, rev)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}
	files, err := r.vcs.ListFiles(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("listing files at %s: %w", resolved, err)
	}
	return buildTree(project, resolved, files, r.matcher()), nil
}

// Log returns the history newest-first, optionally restricted to a path.
func (r *Repository) Log(ctx context.Context, from, to, rawPath string) ([]Revision, error) {
	p := ""
	if rawPath != "" {
		cleaned, err := fs.CleanPath(rawPath)
		if err != nil {
			return nil, err
		}
		if cleaned != "." {
			p = cleaned
		}
	}
	revs, err := r.vcs.Log(ctx, from, to, p)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	return revs, nil
}

// HistoryDiff returns the change introduced by rev relative to its parent.
// The root commit is diffed against the empty tree.
func (r *Repository) HistoryDiff(ctx context.Context, rev string) (string, error) {
	resolved, err := r.vcs.ResolveRevision(ctx, rev)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rev, err)
	}
	first, err := r.vcs.FirstRevision(ctx)
	if err != nil {
		return "", fmt.Errorf("finding first revision: %w", err)
	}

	parent := resolved + "^"
	if resolved == first {
		parent = ""
	}
	diff, err := r.vcs.Diff(ctx, parent, resolved)
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", resolved, err)
	}
	return diff, nil
}

// Diff returns the draft changes to a path against the last commit.
func (r *Repository) Diff(ctx context.Context, rawPath string) (string, error) {
	p, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return "", err
	}
	diff, err := r.vcs.DiffWorkingTree(ctx, p)
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", p, err)
	}
	return diff, nil
}

// CheckoutFile restores a path from rev. With an empty rev it discards the
// draft, restoring the last committed content.
func (r *Repository) CheckoutFile(ctx context.Context, rawPath, rev string) error {
	p, err := fs.CleanFilePath(rawPath)
	if err != nil {
		return err
	}
	if err := r.vcs.Checkout(ctx, p, rev); err != nil {
		return fmt.Errorf("checking out %s: %w", p, err)
	}
	return nil
}

// Stage marks paths for the next commit.
func (r *Repository) Stage(ctx context.Context, rawPaths ...string) error {
	paths := make([]string, 0, len(rawPaths))
	for _, raw := range rawPaths {
		p, err := fs.CleanFilePath(raw)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil
	}
	if err := r.vcs.Stage(ctx, paths...); err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	return nil
}

// Commit records staged changes. Nothing staged is a silent no-op and
// reports false.
func (r *Repository) Commit(ctx context.Context, message string, author Author) (bool, error) {
	committed, err := r.vcs.Commit(ctx, message, author)
	if err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return committed, nil
}

// Revert commits the inverse of rev.
func (r *Repository) Revert(ctx context.Context, rev string, author Author) error {
	resolved, err := r.vcs.ResolveRevision(ctx, rev)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", rev, err)
	}
	if err := r.vcs.Revert(ctx, resolved, author); err != nil {
		return fmt.Errorf("reverting %s: %w", resolved, err)
	}
	return nil
}

// Reset returns the working copy to its last commit, removing untracked files.
func (r *Repository) Reset(ctx context.Context) error {
	if err := r.vcs.ResetHard(ctx, ""); err != nil {
		return fmt.Errorf("resetting: %w", err)
	}
	return nil
}

// matcher combines the configured hide patterns with the project's own
// ignore file.
func (r *Repository) matcher() *fs.IgnoreMatcher {
	extra, err := fs.ParseIgnoreFile(filepath.Join(r.vcs.Root(), fs.IgnoreFileName))
	if err != nil || len(extra) == 0 {
		if r.hidden == nil {
			return fs.NewIgnoreMatcher(nil)
		}
		return r.hidden
	}
	return r.hidden.With(extra)
}
