package ide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"ide-go/internal/fs"
)

const defaultLogPageSize = 10

// FileService is the request-handling façade: it checks permissions, picks
// the right repository (user copy or master) and shapes results.
type FileService struct {
	manager  *Manager
	auth     Auth
	linter   Linter
	recorder Recorder
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewFileService creates a new FileService with the provided dependencies.
func NewFileService(manager *Manager, auth Auth, linter Linter, recorder Recorder, logger Logger, clock Clock, idgen IDGenerator) *FileService {
	return &FileService{
		manager:  manager,
		auth:     auth,
		linter:   linter,
		recorder: recorder,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Dispatch runs a typed request and writes an audit record for it.
func (s *FileService) Dispatch(ctx context.Context, req Request) (any, error) {
	target := req.target()
	rec := &OperationRecord{
		ID:         s.idgen.New(),
		Operation:  req.Op().String(),
		Team:       target.Team,
		Project:    target.Project,
		Parameters: encodeParameters(req),
		StartedAt:  s.clock.Now(),
	}
	if id, err := s.auth.CurrentUser(ctx); err == nil && id != nil {
		rec.User = id.Name
	}

	result, err := s.execute(ctx, req)

	rec.FinishedAt = s.clock.Now()
	rec.Status = StatusSuccess
	logArgs := []any{"op", rec.Operation, "team", rec.Team, "project", rec.Project, "user", rec.User, "duration", rec.Duration()}
	switch {
	case err == nil:
		s.logger.Info("operation completed", logArgs...)
	case errors.Is(err, ErrPermission):
		rec.Status = StatusDenied
		rec.Error = err.Error()
		s.logger.Warn("operation denied", logArgs...)
	default:
		rec.Status = StatusError
		rec.Error = err.Error()
		s.logger.Error("operation failed", append(logArgs, "error", err)...)
	}

	if recErr := s.recorder.RecordOperation(ctx, rec); recErr != nil {
		s.logger.Warn("recording operation failed", "id", rec.ID, "error", recErr)
	}
	return result, err
}

func (s *FileService) execute(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case TreeRequest:
		return s.Tree(ctx, r)
	case ListRequest:
		return s.List(ctx, r)
	case GetRequest:
		return s.Get(ctx, r)
	case PutRequest:
		return s.Put(ctx, r)
	case DeleteRequest:
		return s.Delete(ctx, r)
	case CopyRequest:
		return s.Copy(ctx, r)
	case MoveRequest:
		return s.Move(ctx, r)
	case MkdirRequest:
		return s.Mkdir(ctx, r)
	case CheckoutRequest:
		return s.Checkout(ctx, r)
	case LogRequest:
		return s.Log(ctx, r)
	case DiffRequest:
		return s.Diff(ctx, r)
	case LintRequest:
		return s.Lint(ctx, r)
	case CommitRequest:
		return s.Commit(ctx, r)
	case RevertRequest:
		return s.Revert(ctx, r)
	case ResetRequest:
		return s.Reset(ctx, r)
	case CreateRequest:
		return s.Create(ctx, r)
	default:
		return nil, fmt.Errorf("%w: unsupported operation %s", ErrInvalidRequest, req.Op())
	}
}

// authorize verifies team membership and, for writes, write access. It runs
// before any repository is resolved.
func (s *FileService) authorize(ctx context.Context, team string, write bool) (*Identity, error) {
	id, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}
	if id == nil {
		return nil, fmt.Errorf("%w: not authenticated", ErrPermission)
	}

	teams, err := s.auth.CurrentUserTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving teams: %w", err)
	}
	if !slices.Contains(teams, team) {
		return nil, fmt.Errorf("%w: %s is not in team %s", ErrPermission, id.Name, team)
	}

	if write {
		if err := s.auth.EnsureWrite(ctx, team); err != nil {
			return nil, err
		}
	}
	return id, nil
}

// userRepository authorizes and leases the caller's working copy.
func (s *FileService) userRepository(ctx context.Context, t Target, write bool) (*Lease, *Identity, error) {
	id, err := s.authorize(ctx, t.Team, write)
	if err != nil {
		return nil, nil, err
	}
	lease, err := s.manager.UserRepository(ctx, t.Team, t.Project, id.Name)
	if err != nil {
		return nil, nil, err
	}
	return lease, id, nil
}

// masterRepository authorizes and leases the project's master copy.
func (s *FileService) masterRepository(ctx context.Context, t Target) (*Lease, error) {
	if _, err := s.authorize(ctx, t.Team, false); err != nil {
		return nil, err
	}
	return s.manager.MasterRepository(ctx, t.Team, t.Project)
}

// Tree returns the project browser tree from master.
func (s *FileService) Tree(ctx context.Context, req TreeRequest) (*TreeResult, error) {
	repo, err := s.masterRepository(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	tree, err := repo.FileTree(ctx, req.Project, req.Revision)
	if err != nil {
		return nil, err
	}
	return &TreeResult{Tree: tree}, nil
}

// List returns the visible names directly inside a directory of the caller's
// working copy.
func (s *FileService) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	repo, _, err := s.userRepository(ctx, req.Target, false)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	files, err := repo.ListFiles(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	return &ListResult{Files: files}, nil
}

// Get returns committed file content from master. Drafts are never visible
// here.
func (s *FileService) Get(ctx context.Context, req GetRequest) (*GetResult, error) {
	repo, err := s.masterRepository(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	rev := req.Revision
	if rev == "" {
		rev = "HEAD"
	}
	data, err := repo.GetFile(ctx, req.Path, rev)
	if err != nil {
		return nil, err
	}
	return &GetResult{Original: string(data)}, nil
}

// Put saves a draft into the caller's working copy without committing.
func (s *FileService) Put(ctx context.Context, req PutRequest) (*SuccessResult, error) {
	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	if err := repo.PutFile(ctx, req.Path, []byte(req.Data)); err != nil {
		return nil, err
	}
	return &SuccessResult{Success: true}, nil
}

// Delete removes files or directories from the caller's working copy.
func (s *FileService) Delete(ctx context.Context, req DeleteRequest) (*SuccessResult, error) {
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrInvalidRequest)
	}
	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	for _, f := range req.Files {
		if err := repo.RemoveFile(ctx, f); err != nil {
			return nil, err
		}
	}
	return &SuccessResult{Success: true}, nil
}

// Copy duplicates a file inside the caller's working copy.
func (s *FileService) Copy(ctx context.Context, req CopyRequest) (*TransferResult, error) {
	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	if err := repo.CopyFile(ctx, req.OldPath, req.NewPath); err != nil {
		return nil, err
	}
	return &TransferResult{Status: 0, Message: req.OldPath + " to " + req.NewPath}, nil
}

// Move renames a file inside the caller's working copy. The move is copy then
// delete; on failure the caller should check both paths.
func (s *FileService) Move(ctx context.Context, req MoveRequest) (*TransferResult, error) {
	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	if err := repo.MoveFile(ctx, req.OldPath, req.NewPath); err != nil {
		return nil, err
	}
	return &TransferResult{Status: 0, Message: req.OldPath + " to " + req.NewPath}, nil
}

// Mkdir creates a directory chain via placeholder files.
func (s *FileService) Mkdir(ctx context.Context, req MkdirRequest) (*MkdirResult, error) {
	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	paths, err := repo.MakeDirectory(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	return &MkdirResult{Paths: paths}, nil
}

// Checkout restores files in the caller's working copy from a revision.
func (s *FileService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrInvalidRequest)
	}
	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	rev := req.Revision
	if rev == "0" || rev == "HEAD" {
		rev = ""
	}
	for _, f := range req.Files {
		if err := repo.CheckoutFile(ctx, f, rev); err != nil {
			return nil, err
		}
	}
	return &CheckoutResult{Rev: req.Revision, Success: true}, nil
}

// Log returns one page of a file's master history, optionally filtered by
// author, plus every author who ever touched the file.
func (s *FileService) Log(ctx context.Context, req LogRequest) (*LogResult, error) {
	repo, err := s.masterRepository(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	full, err := repo.Log(ctx, "", "", req.Path)
	if err != nil {
		return nil, err
	}

	filtered := full
	if req.User != "" {
		filtered = make([]Revision, 0, len(full))
		for _, rev := range full {
			if rev.Author == req.User {
				filtered = append(filtered, rev)
			}
		}
	}

	page, pages := paginate(filtered, req.Number, req.Offset)
	return &LogResult{Log: page, Pages: pages, Authors: distinctAuthors(full)}, nil
}

// Diff shows a historical change, or the caller's edit buffer against the
// last commit when Code is set. In the latter case the buffer is first
// written into the caller's working copy.
func (s *FileService) Diff(ctx context.Context, req DiffRequest) (*DiffResult, error) {
	if req.Code == nil {
		if req.Hash == "" {
			return nil, fmt.Errorf("%w: hash or code required", ErrInvalidRequest)
		}
		repo, err := s.masterRepository(ctx, req.Target)
		if err != nil {
			return nil, err
		}
		defer repo.Release()

		diff, err := repo.HistoryDiff(ctx, req.Hash)
		if err != nil {
			return nil, err
		}
		return &DiffResult{Diff: diff}, nil
	}

	repo, _, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	if err := repo.PutFile(ctx, req.Path, []byte(*req.Code)); err != nil {
		return nil, err
	}
	diff, err := repo.Diff(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	return &DiffResult{Diff: diff}, nil
}

// Lint checks a file (the given code, or master content at a revision).
// Linter failures are soft: the result is empty with a warning.
func (s *FileService) Lint(ctx context.Context, req LintRequest) (*LintResult, error) {
	repo, err := s.masterRepository(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	path, err := fs.CleanFilePath(req.Path)
	if err != nil {
		return nil, err
	}

	var content []byte
	if req.Code != nil {
		content = []byte(*req.Code)
	} else {
		rev := req.Revision
		if rev == "" || rev == "0" {
			rev = "HEAD"
		}
		content, err = repo.GetFile(ctx, path, rev)
		if err != nil {
			return nil, err
		}
	}

	diags, err := s.linter.Lint(ctx, LintInput{Root: repo.Path(), Path: path, Content: content})
	if err != nil {
		s.logger.Warn("lint unavailable", "path", path, "error", err)
		return &LintResult{Errors: []Diagnostic{}, Warning: "no diagnostics available: " + err.Error()}, nil
	}
	if diags == nil {
		diags = []Diagnostic{}
	}
	SortDiagnostics(diags)
	return &LintResult{Errors: diags}, nil
}

// Commit records the caller's staged drafts (plus any listed files) and
// publishes them to master.
func (s *FileService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("%w: commit message required", ErrInvalidRequest)
	}
	repo, id, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	if err := repo.Stage(ctx, req.Files...); err != nil {
		return nil, err
	}
	committed, err := repo.Commit(ctx, req.Message, id.Author())
	if err != nil {
		return nil, err
	}
	if err := s.manager.Publish(ctx, req.Team, req.Project, repo.Repository); err != nil {
		return nil, err
	}
	rev, err := repo.CurrentRevision(ctx)
	if err != nil {
		return nil, err
	}
	return &CommitResult{Rev: rev, Committed: committed}, nil
}

// Revert undoes a published commit on behalf of the caller.
func (s *FileService) Revert(ctx context.Context, req RevertRequest) (*RevertResult, error) {
	if req.Hash == "" {
		return nil, fmt.Errorf("%w: hash required", ErrInvalidRequest)
	}
	repo, id, err := s.userRepository(ctx, req.Target, true)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	if err := repo.Revert(ctx, req.Hash, id.Author()); err != nil {
		return nil, err
	}
	if err := s.manager.Publish(ctx, req.Team, req.Project, repo.Repository); err != nil {
		return nil, err
	}
	rev, err := repo.CurrentRevision(ctx)
	if err != nil {
		return nil, err
	}
	return &RevertResult{Rev: rev}, nil
}

// Reset throws away the caller's drafts and unpublished commits.
func (s *FileService) Reset(ctx context.Context, req ResetRequest) (*SuccessResult, error) {
	id, err := s.authorize(ctx, req.Team, true)
	if err != nil {
		return nil, err
	}
	repo, err := s.manager.RealignUserRepository(ctx, req.Team, req.Project, id.Name)
	if err != nil {
		return nil, err
	}
	defer repo.Release()

	return &SuccessResult{Success: true}, nil
}

// Create initialises a project's master repository if it does not exist.
func (s *FileService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if _, err := s.authorize(ctx, req.Team, true); err != nil {
		return nil, err
	}
	if _, err := s.manager.CreateRepository(ctx, req.Team, req.Project); err != nil {
		return nil, err
	}
	return &CreateResult{Created: true}, nil
}

// paginate returns page index of size number and the total page count.
func paginate(revs []Revision, number, index int) ([]Revision, int) {
	if number <= 0 {
		number = defaultLogPageSize
	}
	if index < 0 {
		index = 0
	}
	pages := int(math.Ceil(float64(len(revs)) / float64(number)))
	if index >= pages {
		return []Revision{}, pages
	}

	start := index * number
	end := min(start+number, len(revs))
	return revs[start:end], pages
}

// distinctAuthors returns authors in first-seen order without duplicates.
func distinctAuthors(revs []Revision) []string {
	seen := make(map[string]struct{}, len(revs))
	authors := []string{}
	for _, rev := range revs {
		if _, ok := seen[rev.Author]; ok {
			continue
		}
		seen[rev.Author] = struct{}{}
		authors = append(authors, rev.Author)
	}
	return authors
}

func encodeParameters(req Request) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return string(data)
}
