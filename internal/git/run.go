package git

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"ide-go/internal/ide"
)

// runner invokes the git binary in one working directory.
type runner struct {
	binary  string
	dir     string
	timeout time.Duration
	logger  ide.Logger
}

// run executes git and returns stdout with trailing whitespace removed.
func (r *runner) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.exec(ctx, nil, nil, args...)
	return string(bytes.TrimRight(out, " \r\n\t")), err
}

// runRaw executes git and returns stdout untouched.
func (r *runner) runRaw(ctx context.Context, args ...string) ([]byte, error) {
	return r.exec(ctx, nil, nil, args...)
}

// runAs executes git with the author and committer set to author, feeding
// stdin when non-nil.
func (r *runner) runAs(ctx context.Context, author ide.Author, stdin io.Reader, args ...string) (string, error) {
	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + author.Name,
		"GIT_COMMITTER_EMAIL=" + author.Email,
	}
	out, err := r.exec(ctx, stdin, env, args...)
	return string(bytes.TrimRight(out, " \r\n\t")), err
}

// runEnv executes git with extra environment variables.
func (r *runner) runEnv(ctx context.Context, env []string, args ...string) (string, error) {
	out, err := r.exec(ctx, nil, env, args...)
	return string(bytes.TrimRight(out, " \r\n\t")), err
}

func (r *runner) exec(ctx context.Context, stdin io.Reader, env []string, args ...string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(callCtx, r.binary, args...)
	cmd.Dir = r.dir
	cmd.WaitDelay = time.Second
	cmd.Stdin = stdin
	cmd.Env = append(os.Environ(),
		"LC_ALL=C",
		"GIT_TERMINAL_PROMPT=0",
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
	)
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	r.logger.Debug("git", "dir", r.dir, "args", args, "duration", time.Since(start), "error", err)
	if err == nil {
		return stdout.Bytes(), nil
	}

	vcsErr := &ide.VcsError{Args: args, Output: stderr.String(), Err: err}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		vcsErr.Err = ide.ErrTimeout
	} else if ctx.Err() != nil {
		vcsErr.Err = ctx.Err()
	}
	return stdout.Bytes(), vcsErr
}

// exitCode returns the process exit status carried by err, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
