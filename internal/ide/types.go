package ide

import "fmt"

// Author identifies who a commit is attributed to.
type Author struct {
	Name  string
	Email string
}

// String renders the author the way revision logs show it: "Name <email>".
func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Name        string
	DisplayName string
	Email       string
}

// Author returns the commit identity for this caller.
func (i *Identity) Author() Author {
	name := i.DisplayName
	if name == "" {
		name = i.Name
	}
	return Author{Name: name, Email: i.Email}
}

// Revision is one commit in a repository's history.
type Revision struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Time    int64  `json:"time"`
	Message string `json:"message"`
}

// EntryKind distinguishes files from folders in a FileEntry tree.
type EntryKind string

const (
	KindFile   EntryKind = "FILE"
	KindFolder EntryKind = "FOLDER"
)

// FileEntry is one node of the project browser tree. It is a projection of
// the tracked files at a revision and is never persisted.
type FileEntry struct {
	Kind     EntryKind    `json:"kind"`
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Rev      string       `json:"rev"`
	Children []*FileEntry `json:"children"`
	// Autosave is reserved for marking uncommitted drafts; always 0 for now.
	Autosave int `json:"autosave"`
}

// Severity of a lint diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a single lint message.
type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"lineNumber"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
	Severity Severity `json:"level"`
}
