package ide

import (
	"context"
	"os"
)

// VersionControl is the capability surface a Repository needs from the
// versioning engine. All paths are slash-separated and relative to Root.
// Implementations shell out or otherwise block, so every call takes a context.
type VersionControl interface {
	// Root returns the working copy's directory.
	Root() string

	// CurrentRevision returns the full identifier of HEAD.
	CurrentRevision(ctx context.Context) (string, error)

	// FirstRevision returns the identifier of the root commit.
	FirstRevision(ctx context.Context) (string, error)

	// ResolveRevision turns a revision expression into a full commit
	// identifier. Fails with ErrNotFound for unknown revisions.
	ResolveRevision(ctx context.Context, rev string) (string, error)

	// Log returns revisions newest-first. from/to restrict the range when
	// both are set; path restricts to commits touching that path.
	Log(ctx context.Context, from, to, path string) ([]Revision, error)

	// Diff returns a unified diff between two revisions with rename and copy
	// detection. An empty from diffs against the empty tree.
	Diff(ctx context.Context, from, to string, paths ...string) (string, error)

	// DiffWorkingTree diffs the working tree (including staged changes)
	// against HEAD for path.
	DiffWorkingTree(ctx context.Context, path string) (string, error)

	// Commit records the staged changes under the given author. It returns
	// false without error when nothing is staged.
	Commit(ctx context.Context, message string, author Author) (bool, error)

	// ResetHard discards uncommitted changes and untracked files, moving HEAD
	// to rev (HEAD when empty).
	ResetHard(ctx context.Context, rev string) error

	// Revert creates a commit undoing rev. Uncommitted changes are kept; if
	// they touch the same lines as the revert it fails with ErrConflict and
	// leaves the working copy as it was.
	Revert(ctx context.Context, rev string, author Author) error

	// GetFile returns file bytes at rev, or from the working tree when rev is
	// empty. Fails with ErrNotFound when the file is absent.
	GetFile(ctx context.Context, path, rev string) ([]byte, error)

	// ListFiles returns every tracked file path at rev.
	ListFiles(ctx context.Context, rev string) ([]string, error)

	// ReadDir lists the working tree directory at path.
	ReadDir(path string) ([]os.DirEntry, error)

	// PutFile writes data to the working tree and stages it.
	PutFile(ctx context.Context, path string, data []byte) error

	// CreateFile creates an empty file if absent and stages it. It reports
	// whether the file was newly created.
	CreateFile(ctx context.Context, path string) (bool, error)

	// RemoveFile deletes a file or directory and stages the deletion.
	RemoveFile(ctx context.Context, path string) error

	// Stage marks paths, including deletions, for the next commit.
	Stage(ctx context.Context, paths ...string) error

	// Checkout restores one path from rev (HEAD when empty), replacing both
	// the staged and working-tree versions.
	Checkout(ctx context.Context, path, rev string) error

	// Fetch retrieves the default branch of the repository at source and
	// returns the fetched revision.
	Fetch(ctx context.Context, source string) (string, error)

	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)

	// MergeFastForward advances HEAD to rev. Fails with ErrConflict when that
	// is not a fast-forward or local changes would be overwritten.
	MergeFastForward(ctx context.Context, rev string) error

	// Rebase replays local commits onto rev, recording committer as the
	// committer. Fails with ErrConflict, leaving HEAD untouched, when the
	// commits do not apply cleanly. Uncommitted changes are kept.
	Rebase(ctx context.Context, rev string, committer Author) error

	// Publish pushes HEAD onto the default branch of the repository at dest.
	// Fails with ErrConflict when dest has diverged.
	Publish(ctx context.Context, dest string) error
}

// VCSProvider creates and opens working copies.
type VCSProvider interface {
	// Init creates a new repository at path with a single empty root commit
	// authored by author. Fails with ErrStorage if path cannot be created.
	Init(ctx context.Context, path string, author Author) (VersionControl, error)

	// Open attaches to an existing repository. Fails with ErrStorage when the
	// metadata directory is missing.
	Open(path string) (VersionControl, error)

	// Clone copies the full history of source to dest as an independent
	// repository with no link back to source.
	Clone(ctx context.Context, source, dest string) (VersionControl, error)
}
