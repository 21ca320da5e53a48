// Package git implements ide.VersionControl by shelling out to the git
// binary. Every invocation runs under its own timeout.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ide-go/internal/ide"
)

const (
	DefaultBinary  = "git"
	DefaultTimeout = 30 * time.Second
	DefaultBranch  = "master"

	initialMessage = "Initial commit"
)

// Options configures how the git binary is invoked.
type Options struct {
	Binary        string
	Timeout       time.Duration
	DefaultBranch string
}

// Provider creates, opens and clones git working copies.
type Provider struct {
	opts   Options
	logger ide.Logger
}

var _ ide.VCSProvider = (*Provider)(nil)

// NewProvider fills unset options with defaults.
func NewProvider(opts Options, logger ide.Logger) *Provider {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = DefaultBranch
	}
	if logger == nil {
		logger = ide.NewNopLogger()
	}
	return &Provider{opts: opts, logger: logger}
}

func (p *Provider) repository(path string) *Repository {
	return &Repository{
		root:   path,
		branch: p.opts.DefaultBranch,
		git: &runner{
			binary:  p.opts.Binary,
			dir:     path,
			timeout: p.opts.Timeout,
			logger:  p.logger,
		},
	}
}

// Init creates a repository whose checked-out branch accepts pushes, with a
// single empty root commit by author. A partially created directory is
// removed on failure.
func (p *Provider) Init(ctx context.Context, path string, author ide.Author) (ide.VersionControl, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ide.ErrStorage, path, err)
	}

	repo := p.repository(path)
	steps := [][]string{
		{"init", "--quiet", "--initial-branch=" + p.opts.DefaultBranch},
		{"config", "receive.denyCurrentBranch", "updateInstead"},
	}
	for _, args := range steps {
		if _, err := repo.git.run(ctx, args...); err != nil {
			os.RemoveAll(path)
			return nil, fmt.Errorf("%w: %w", ide.ErrStorage, err)
		}
	}
	if _, err := repo.git.runAs(ctx, author, nil, "commit", "--quiet", "--allow-empty", "--no-verify", "-m", initialMessage); err != nil {
		os.RemoveAll(path)
		return nil, fmt.Errorf("%w: %w", ide.ErrStorage, err)
	}
	return repo, nil
}

// Open attaches to an existing working copy.
func (p *Provider) Open(path string) (ide.VersionControl, error) {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s is not a repository", ide.ErrStorage, path)
		}
		return nil, fmt.Errorf("%w: %v", ide.ErrStorage, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a repository", ide.ErrStorage, path)
	}
	return p.repository(path), nil
}

// Clone copies source into dest and detaches it: the clone keeps no remote
// and is synchronised by explicit fetches and pushes.
func (p *Provider) Clone(ctx context.Context, source, dest string) (ide.VersionControl, error) {
	parent := p.repository(filepath.Dir(dest))
	if _, err := parent.git.run(ctx, "clone", "--quiet", "--branch", p.opts.DefaultBranch, source, dest); err != nil {
		os.RemoveAll(dest)
		return nil, fmt.Errorf("%w: %w", ide.ErrStorage, err)
	}

	repo := p.repository(dest)
	if _, err := repo.git.run(ctx, "remote", "remove", "origin"); err != nil {
		os.RemoveAll(dest)
		return nil, fmt.Errorf("%w: %w", ide.ErrStorage, err)
	}
	return repo, nil
}

// Version returns the output of `git --version`; used as a health probe.
func (p *Provider) Version(ctx context.Context) (string, error) {
	out, err := p.repository(os.TempDir()).git.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(out, "git version "), nil
}
