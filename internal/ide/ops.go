package ide

// Op enumerates the operations the FileService exposes.
type Op int

const (
	OpTree Op = iota + 1
	OpList
	OpGet
	OpPut
	OpDelete
	OpCopy
	OpMove
	OpMkdir
	OpCheckout
	OpLog
	OpDiff
	OpLint
	OpCommit
	OpRevert
	OpReset
	OpCreate
)

var opNames = map[Op]string{
	OpTree:     "tree",
	OpList:     "list",
	OpGet:      "get",
	OpPut:      "put",
	OpDelete:   "del",
	OpCopy:     "cp",
	OpMove:     "mv",
	OpMkdir:    "mkdir",
	OpCheckout: "co",
	OpLog:      "log",
	OpDiff:     "diff",
	OpLint:     "lint",
	OpCommit:   "commit",
	OpRevert:   "revert",
	OpReset:    "reset",
	OpCreate:   "create",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Target names the project an operation acts on.
type Target struct {
	Team    string `json:"team"`
	Project string `json:"project"`
}

// Request is one typed FileService command.
type Request interface {
	Op() Op
	target() Target
}

func (t Target) target() Target { return t }

type TreeRequest struct {
	Target
	Revision string `json:"rev,omitempty"`
}

type ListRequest struct {
	Target
	Path string `json:"path"`
}

type GetRequest struct {
	Target
	Path     string `json:"path"`
	Revision string `json:"rev,omitempty"`
}

type PutRequest struct {
	Target
	Path string `json:"path"`
	Data string `json:"-"`
}

type DeleteRequest struct {
	Target
	Files []string `json:"files"`
}

type CopyRequest struct {
	Target
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

type MoveRequest struct {
	Target
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

type MkdirRequest struct {
	Target
	Path string `json:"path"`
}

// CheckoutRequest restores files from Revision. "", "0" and "HEAD" all mean
// the last commit, i.e. discard drafts.
type CheckoutRequest struct {
	Target
	Files    []string `json:"files"`
	Revision string   `json:"revision"`
}

// LogRequest pages through a file's history. Number defaults to 10; Offset
// is a page index, not an entry count.
type LogRequest struct {
	Target
	Path   string `json:"path"`
	Number int    `json:"number,omitempty"`
	Offset int    `json:"offset,omitempty"`
	User   string `json:"user,omitempty"`
}

// DiffRequest shows either a historical change (Hash) or, when Code is set,
// the caller's edit buffer against the last commit.
type DiffRequest struct {
	Target
	Path string  `json:"path"`
	Hash string  `json:"hash,omitempty"`
	Code *string `json:"-"`
}

type LintRequest struct {
	Target
	Path     string  `json:"path"`
	Code     *string `json:"-"`
	Revision string  `json:"rev,omitempty"`
}

type CommitRequest struct {
	Target
	Message string   `json:"message"`
	Files   []string `json:"files,omitempty"`
}

type RevertRequest struct {
	Target
	Hash string `json:"hash"`
}

type ResetRequest struct {
	Target
}

type CreateRequest struct {
	Target
}

func (TreeRequest) Op() Op     { return OpTree }
func (ListRequest) Op() Op     { return OpList }
func (GetRequest) Op() Op      { return OpGet }
func (PutRequest) Op() Op      { return OpPut }
func (DeleteRequest) Op() Op   { return OpDelete }
func (CopyRequest) Op() Op     { return OpCopy }
func (MoveRequest) Op() Op     { return OpMove }
func (MkdirRequest) Op() Op    { return OpMkdir }
func (CheckoutRequest) Op() Op { return OpCheckout }
func (LogRequest) Op() Op      { return OpLog }
func (DiffRequest) Op() Op     { return OpDiff }
func (LintRequest) Op() Op     { return OpLint }
func (CommitRequest) Op() Op   { return OpCommit }
func (RevertRequest) Op() Op   { return OpRevert }
func (ResetRequest) Op() Op    { return OpReset }
func (CreateRequest) Op() Op   { return OpCreate }

type TreeResult struct {
	Tree []*FileEntry `json:"tree"`
}

type ListResult struct {
	Files []string `json:"files"`
}

type GetResult struct {
	Original string `json:"original"`
}

type SuccessResult struct {
	Success bool `json:"success"`
}

type TransferResult struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type MkdirResult struct {
	Paths []string `json:"paths"`
}

type CheckoutResult struct {
	Rev     string `json:"rev"`
	Success bool   `json:"success"`
}

type LogResult struct {
	Log     []Revision `json:"log"`
	Pages   int        `json:"pages"`
	Authors []string   `json:"authors"`
}

type DiffResult struct {
	Diff string `json:"diff"`
}

// LintResult carries sorted diagnostics. Warning is set instead of failing
// the request when the linter is unavailable.
type LintResult struct {
	Errors  []Diagnostic `json:"errors"`
	Warning string       `json:"warning,omitempty"`
}

type CommitResult struct {
	Rev       string `json:"rev"`
	Committed bool   `json:"committed"`
}

type RevertResult struct {
	Rev string `json:"rev"`
}

type CreateResult struct {
	Created bool `json:"created"`
}
