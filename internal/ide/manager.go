package ide

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ide-go/internal/fs"
)

// Manager maps (team, project, user) onto working copies and provisions them.
//
// On-disk layout under root:
//
//	<root>/<team>/master/<project>          shared master history
//	<root>/<team>/users/<user>/<project>    one working copy per user
//
// Locking: a user working copy is held exclusively for the lifetime of its
// lease. The master copy is read-locked for clones, fetches and reads, and
// write-locked for creation and publishing. A user lock is always taken
// before the master lock, never the other way round.
type Manager struct {
	root     string
	provider VCSProvider
	hidden   *fs.IgnoreMatcher
	system   Author
	logger   Logger
	locks    *lockSet
}

// NewManager creates a Manager storing repositories under root. system is the
// author of the root commit of new projects.
func NewManager(root string, provider VCSProvider, hidden *fs.IgnoreMatcher, system Author, logger Logger) *Manager {
	return &Manager{
		root:     root,
		provider: provider,
		hidden:   hidden,
		system:   system,
		logger:   logger,
		locks:    newLockSet(),
	}
}

// MasterPath returns the master working copy path for a project.
func (m *Manager) MasterPath(team, project string) (string, error) {
	if err := fs.ValidateName("team", team); err != nil {
		return "", err
	}
	if err := fs.ValidateName("project", project); err != nil {
		return "", err
	}
	return filepath.Join(m.root, team, "master", project), nil
}

// UserPath returns the user's working copy path for a project.
func (m *Manager) UserPath(team, project, user string) (string, error) {
	if err := fs.ValidateName("team", team); err != nil {
		return "", err
	}
	if err := fs.ValidateName("project", project); err != nil {
		return "", err
	}
	if err := fs.ValidateName("user", user); err != nil {
		return "", err
	}
	return filepath.Join(m.root, team, "users", user, project), nil
}

// CreateRepository returns the project's master repository, initialising it
// with an empty root commit if it does not exist yet. Calling it again for an
// existing project is a no-op.
func (m *Manager) CreateRepository(ctx context.Context, team, project string) (*Repository, error) {
	masterPath, err := m.MasterPath(team, project)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.lock(masterPath)
	defer unlock()

	return m.ensureMaster(ctx, masterPath)
}

// ensureMaster opens or initialises the master copy. The caller must hold
// the master write lock.
func (m *Manager) ensureMaster(ctx context.Context, masterPath string) (*Repository, error) {
	if _, err := os.Stat(masterPath); err == nil {
		vcs, err := m.provider.Open(masterPath)
		if err != nil {
			return nil, err
		}
		return NewRepository(vcs, m.hidden), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: checking %s: %v", ErrStorage, masterPath, err)
	}

	vcs, err := m.provider.Init(ctx, masterPath, m.system)
	if err != nil {
		return nil, fmt.Errorf("initialising master repository: %w", err)
	}
	m.logger.Info("master repository created", "path", masterPath)
	return NewRepository(vcs, m.hidden), nil
}

// MasterRepository returns a read lease on the project's master repository,
// creating the project if it does not exist.
func (m *Manager) MasterRepository(ctx context.Context, team, project string) (*Lease, error) {
	masterPath, err := m.MasterPath(team, project)
	if err != nil {
		return nil, err
	}
	if err := m.ensureMasterExists(ctx, masterPath); err != nil {
		return nil, err
	}

	release := m.locks.rlock(masterPath)
	vcs, err := m.provider.Open(masterPath)
	if err != nil {
		release()
		return nil, err
	}
	return &Lease{Repository: NewRepository(vcs, m.hidden), release: release}, nil
}

// UserRepository returns an exclusive lease on the user's working copy.
// A missing copy is cloned from master; an existing one is fast-forwarded to
// master's head first, so callers never see a copy older than master.
func (m *Manager) UserRepository(ctx context.Context, team, project, user string) (*Lease, error) {
	return m.userRepository(ctx, team, project, user, false)
}

// RealignUserRepository is UserRepository for a copy that should be thrown
// away: instead of fast-forwarding, the copy is hard-reset onto master's head,
// dropping drafts and unpublished commits.
func (m *Manager) RealignUserRepository(ctx context.Context, team, project, user string) (*Lease, error) {
	return m.userRepository(ctx, team, project, user, true)
}

func (m *Manager) userRepository(ctx context.Context, team, project, user string, realign bool) (*Lease, error) {
	userPath, err := m.UserPath(team, project, user)
	if err != nil {
		return nil, err
	}
	masterPath, err := m.MasterPath(team, project)
	if err != nil {
		return nil, err
	}

	release := m.locks.lock(userPath)
	repo, err := m.provisionUser(ctx, masterPath, userPath, realign)
	if err != nil {
		release()
		return nil, err
	}
	return &Lease{Repository: repo, release: release}, nil
}

// provisionUser clones or synchronises a user copy. The caller must hold the
// user lock.
func (m *Manager) provisionUser(ctx context.Context, masterPath, userPath string, realign bool) (*Repository, error) {
	if err := m.ensureMasterExists(ctx, masterPath); err != nil {
		return nil, err
	}

	if _, err := os.Stat(userPath); errors.Is(err, os.ErrNotExist) {
		unlock := m.locks.rlock(masterPath)
		defer unlock()

		if err := os.MkdirAll(filepath.Dir(userPath), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrStorage, filepath.Dir(userPath), err)
		}
		vcs, err := m.provider.Clone(ctx, masterPath, userPath)
		if err != nil {
			return nil, fmt.Errorf("cloning master into user workspace: %w", err)
		}
		m.logger.Info("user workspace provisioned", "path", userPath)
		return NewRepository(vcs, m.hidden), nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: checking %s: %v", ErrStorage, userPath, err)
	}

	vcs, err := m.provider.Open(userPath)
	if err != nil {
		return nil, err
	}
	if err := m.sync(ctx, vcs, masterPath, realign); err != nil {
		return nil, err
	}
	return NewRepository(vcs, m.hidden), nil
}

// sync brings a user copy up to date with master. Only fast-forwards are
// applied; a diverged copy is reported as ErrConflict unless realign is set.
func (m *Manager) sync(ctx context.Context, vcs VersionControl, masterPath string, realign bool) error {
	unlock := m.locks.rlock(masterPath)
	fetched, err := vcs.Fetch(ctx, masterPath)
	unlock()
	if err != nil {
		return fmt.Errorf("fetching master: %w", err)
	}

	if realign {
		if err := vcs.ResetHard(ctx, fetched); err != nil {
			return fmt.Errorf("realigning with master: %w", err)
		}
		m.logger.Info("user workspace realigned", "path", vcs.Root(), "rev", fetched)
		return nil
	}

	head, err := vcs.CurrentRevision(ctx)
	if err != nil {
		return fmt.Errorf("reading workspace head: %w", err)
	}
	if head == fetched {
		return nil
	}

	behind, err := vcs.IsAncestor(ctx, head, fetched)
	if err != nil {
		return fmt.Errorf("comparing with master: %w", err)
	}
	if behind {
		if err := vcs.MergeFastForward(ctx, fetched); err != nil {
			return fmt.Errorf("fast-forwarding to master: %w", err)
		}
		m.logger.Debug("user workspace fast-forwarded", "path", vcs.Root(), "from", head, "to", fetched)
		return nil
	}

	ahead, err := vcs.IsAncestor(ctx, fetched, head)
	if err != nil {
		return fmt.Errorf("comparing with master: %w", err)
	}
	if ahead {
		// Unpublished local commits; the next publish carries them.
		return nil
	}
	return fmt.Errorf("%w: workspace %s has diverged from master", ErrConflict, vcs.Root())
}

// Publish pushes the user copy's HEAD onto master. The caller holds the
// user lease; the master write lock is taken here. If master moved on since
// the copy was synchronised, local commits are first rebased onto it.
func (m *Manager) Publish(ctx context.Context, team, project string, repo *Repository) error {
	masterPath, err := m.MasterPath(team, project)
	if err != nil {
		return err
	}

	unlock := m.locks.lock(masterPath)
	defer unlock()

	fetched, err := repo.vcs.Fetch(ctx, masterPath)
	if err != nil {
		return fmt.Errorf("fetching master: %w", err)
	}
	head, err := repo.vcs.CurrentRevision(ctx)
	if err != nil {
		return fmt.Errorf("reading workspace head: %w", err)
	}
	if head == fetched {
		return nil
	}

	upToDate, err := repo.vcs.IsAncestor(ctx, fetched, head)
	if err != nil {
		return fmt.Errorf("comparing with master: %w", err)
	}
	if !upToDate {
		if err := repo.vcs.Rebase(ctx, fetched, m.system); err != nil {
			return fmt.Errorf("rebasing onto master: %w", err)
		}
		m.logger.Debug("user workspace rebased", "path", repo.Path(), "onto", fetched)
	}

	if err := repo.vcs.Publish(ctx, masterPath); err != nil {
		return fmt.Errorf("publishing to master: %w", err)
	}
	return nil
}

// ensureMasterExists creates the master copy on first use.
func (m *Manager) ensureMasterExists(ctx context.Context, masterPath string) error {
	unlock := m.locks.rlock(masterPath)
	_, err := os.Stat(masterPath)
	unlock()
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: checking %s: %v", ErrStorage, masterPath, err)
	}

	unlockW := m.locks.lock(masterPath)
	defer unlockW()
	_, err = m.ensureMaster(ctx, masterPath)
	return err
}
