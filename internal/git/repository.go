package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ide-go/internal/ide"
)

// emptyTree is the well-known id of git's empty tree object.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// logFormat separates fields with the ASCII unit separator. Config validation
// keeps control characters out of user names and e-mail addresses.
const logFormat = "--pretty=format:%H%x1f%aN <%aE>%x1f%at%x1f%s"

// Repository is a git working copy driven through the git binary.
type Repository struct {
	root   string
	branch string
	git    *runner
}

var _ ide.VersionControl = (*Repository)(nil)

func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) CurrentRevision(ctx context.Context) (string, error) {
	return r.git.run(ctx, "rev-parse", "HEAD")
}

func (r *Repository) FirstRevision(ctx context.Context) (string, error) {
	out, err := r.git.run(ctx, "rev-list", "--max-parents=0", "HEAD")
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

func (r *Repository) ResolveRevision(ctx context.Context, rev string) (string, error) {
	if rev == "" || strings.HasPrefix(rev, "-") {
		return "", fmt.Errorf("%w: revision %q", ide.ErrInvalidRequest, rev)
	}
	out, err := r.git.run(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		if exitCode(err) == 1 {
			return "", fmt.Errorf("%w: revision %s", ide.ErrNotFound, rev)
		}
		return "", err
	}
	return out, nil
}

func (r *Repository) Log(ctx context.Context, from, to, path string) ([]ide.Revision, error) {
	args := []string{"log", "-M", "-C", logFormat}
	switch {
	case from != "" && to != "":
		args = append(args, from+".."+to)
	case to != "":
		args = append(args, to)
	case from != "":
		args = append(args, from+"..HEAD")
	}
	if path != "" {
		args = append(args, "--", path)
	}

	out, err := r.git.runRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseLog(string(out))
}

func (r *Repository) Diff(ctx context.Context, from, to string, paths ...string) (string, error) {
	if from == "" {
		from = emptyTree
	}
	args := []string{"diff", "-C", "-M", from, to}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := r.git.runRaw(ctx, args...)
	return string(out), err
}

func (r *Repository) DiffWorkingTree(ctx context.Context, path string) (string, error) {
	out, err := r.git.runRaw(ctx, "diff", "-C", "-M", "HEAD", "--", path)
	return string(out), err
}

func (r *Repository) Commit(ctx context.Context, message string, author ide.Author) (bool, error) {
	_, err := r.git.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if exitCode(err) != 1 {
		return false, err
	}

	if _, err := r.git.runAs(ctx, author, strings.NewReader(message), "commit", "--quiet", "--no-verify", "-F", "-"); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) ResetHard(ctx context.Context, rev string) error {
	args := []string{"reset", "--hard", "--quiet"}
	if rev != "" {
		args = append(args, rev)
	}
	if _, err := r.git.run(ctx, args...); err != nil {
		return err
	}
	_, err := r.git.run(ctx, "clean", "-f", "-d", "--quiet")
	return err
}

func (r *Repository) Revert(ctx context.Context, rev string, author ide.Author) error {
	return r.setAsideDrafts(ctx, author, func() error {
		_, err := r.git.runAs(ctx, author, nil, "revert", "--no-edit", rev)
		if err == nil {
			return nil
		}
		if _, abortErr := r.git.run(ctx, "revert", "--abort"); abortErr == nil {
			return fmt.Errorf("%w: %w", ide.ErrConflict, err)
		}
		return err
	})
}

// setAsideDrafts stashes uncommitted changes, runs fn on the clean working
// copy and restores the changes on top of its result. When fn fails, or the
// changes no longer apply, HEAD goes back to where it was with the changes
// restored; the latter case is an ErrConflict.
func (r *Repository) setAsideDrafts(ctx context.Context, ident ide.Author, fn func() error) error {
	status, err := r.git.run(ctx, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return err
	}
	if status == "" {
		return fn()
	}

	head, err := r.CurrentRevision(ctx)
	if err != nil {
		return err
	}
	if _, err := r.git.runAs(ctx, ident, nil, "stash", "push", "--include-untracked", "--quiet"); err != nil {
		return fmt.Errorf("setting drafts aside: %w", err)
	}

	fnErr := fn()
	if fnErr == nil {
		_, popErr := r.git.runAs(ctx, ident, nil, "stash", "pop", "--index", "--quiet")
		if popErr == nil {
			return nil
		}
		fnErr = fmt.Errorf("%w: uncommitted drafts clash with the change: %w", ide.ErrConflict, popErr)
	}

	if err := r.ResetHard(ctx, head); err != nil {
		return fmt.Errorf("restoring drafts: %w", err)
	}
	if _, err := r.git.runAs(ctx, ident, nil, "stash", "pop", "--index", "--quiet"); err != nil {
		return fmt.Errorf("restoring drafts: %w", err)
	}
	return fnErr
}

func (r *Repository) GetFile(ctx context.Context, path, rev string) ([]byte, error) {
	if rev == "" {
		full := r.abs(path)
		info, err := os.Stat(full)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ide.ErrNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ide.ErrStorage, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ide.ErrNotFound, path)
		}
		return os.ReadFile(full)
	}

	object := rev + ":" + path
	kind, err := r.git.run(ctx, "cat-file", "-t", object)
	if err != nil || kind != "blob" {
		return nil, fmt.Errorf("%w: %s at %s", ide.ErrNotFound, path, rev)
	}
	return r.git.runRaw(ctx, "cat-file", "blob", object)
}

func (r *Repository) ListFiles(ctx context.Context, rev string) ([]string, error) {
	out, err := r.git.runRaw(ctx, "ls-tree", "-r", "-z", "--name-only", rev)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range bytes.Split(out, []byte{0}) {
		if len(name) > 0 {
			files = append(files, string(name))
		}
	}
	return files, nil
}

func (r *Repository) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(r.abs(path))
}

func (r *Repository) PutFile(ctx context.Context, path string, data []byte) error {
	full := r.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	return r.Stage(ctx, path)
}

func (r *Repository) CreateFile(ctx context.Context, path string) (bool, error) {
	full := r.abs(path)
	if _, err := os.Stat(full); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	if err := os.WriteFile(full, nil, 0o644); err != nil {
		return false, fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	if err := r.Stage(ctx, path); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) RemoveFile(ctx context.Context, path string) error {
	if _, err := r.git.run(ctx, "rm", "-r", "-f", "--quiet", "--ignore-unmatch", "--", path); err != nil {
		return err
	}
	// Untracked leftovers are not touched by git rm.
	if err := os.RemoveAll(r.abs(path)); err != nil {
		return fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	return nil
}

func (r *Repository) Stage(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "-A", "--"}, paths...)
	_, err := r.git.run(ctx, args...)
	if err != nil && strings.Contains(vcsOutput(err), "did not match any files") {
		return fmt.Errorf("%w: %w", ide.ErrNotFound, err)
	}
	return err
}

func (r *Repository) Checkout(ctx context.Context, path, rev string) error {
	if rev == "" {
		rev = "HEAD"
	}
	_, err := r.git.run(ctx, "checkout", rev, "--", path)
	if err != nil && strings.Contains(vcsOutput(err), "did not match") {
		return fmt.Errorf("%w: %w", ide.ErrNotFound, err)
	}
	return err
}

func (r *Repository) Fetch(ctx context.Context, source string) (string, error) {
	if _, err := r.git.run(ctx, "fetch", "--quiet", "--no-tags", source, r.branch); err != nil {
		return "", err
	}
	return r.git.run(ctx, "rev-parse", "FETCH_HEAD")
}

func (r *Repository) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := r.git.run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	if exitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

func (r *Repository) MergeFastForward(ctx context.Context, rev string) error {
	if _, err := r.git.run(ctx, "merge", "--ff-only", "--quiet", rev); err != nil {
		if exitCode(err) > 0 {
			return fmt.Errorf("%w: %w", ide.ErrConflict, err)
		}
		return err
	}
	return nil
}

func (r *Repository) Rebase(ctx context.Context, rev string, committer ide.Author) error {
	return r.setAsideDrafts(ctx, committer, func() error {
		env := []string{"GIT_COMMITTER_NAME=" + committer.Name, "GIT_COMMITTER_EMAIL=" + committer.Email}
		_, err := r.git.runEnv(ctx, env, "rebase", "--quiet", rev)
		if err == nil {
			return nil
		}
		if _, abortErr := r.git.run(ctx, "rebase", "--abort"); abortErr == nil {
			return fmt.Errorf("%w: %w", ide.ErrConflict, err)
		}
		return err
	})
}

func (r *Repository) Publish(ctx context.Context, dest string) error {
	_, err := r.git.run(ctx, "push", "--quiet", dest, "HEAD:refs/heads/"+r.branch)
	if err == nil {
		return nil
	}
	out := vcsOutput(err)
	if strings.Contains(out, "rejected") || strings.Contains(out, "non-fast-forward") {
		return fmt.Errorf("%w: %w", ide.ErrConflict, err)
	}
	return err
}

func (r *Repository) abs(path string) string {
	return filepath.Join(r.root, filepath.FromSlash(path))
}

func vcsOutput(err error) string {
	var vcsErr *ide.VcsError
	if errors.As(err, &vcsErr) {
		return vcsErr.Output
	}
	return ""
}
