package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"ide-go/internal/ide"
)

// maxBodyBytes bounds request bodies; file content travels inside them.
const maxBodyBytes = 16 << 20

// revision accepts either a JSON string or a number, so clients may send
// 0 for "the last commit" as well as a hash or "HEAD".
type revision string

func (r *revision) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = revision(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("revision must be a string or a number")
	}
	*r = revision(n.String())
	return nil
}

type putBody struct {
	Path string `json:"path"`
	Data string `json:"data"`
}

type deleteBody struct {
	Files []string `json:"files"`
}

type transferBody struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

type mkdirBody struct {
	Path string `json:"path"`
}

type checkoutBody struct {
	Files    []string `json:"files"`
	Revision revision `json:"revision"`
}

type diffBody struct {
	Path string  `json:"path"`
	Hash string  `json:"hash"`
	Code *string `json:"code"`
}

type lintBody struct {
	Path     string   `json:"path"`
	Code     *string  `json:"code"`
	Revision revision `json:"rev"`
}

type commitBody struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
}

type revertBody struct {
	Hash string `json:"hash"`
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: decoding body: %v", ide.ErrInvalidRequest, err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ide.ErrInvalidRequest, key)
	}
	return n, nil
}

func createRequest(_ *http.Request, t ide.Target) (ide.Request, error) {
	return ide.CreateRequest{Target: t}, nil
}

func resetRequest(_ *http.Request, t ide.Target) (ide.Request, error) {
	return ide.ResetRequest{Target: t}, nil
}

func treeRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	return ide.TreeRequest{Target: t, Revision: r.URL.Query().Get("rev")}, nil
}

func listRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}
	return ide.ListRequest{Target: t, Path: path}, nil
}

func getRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	q := r.URL.Query()
	return ide.GetRequest{Target: t, Path: q.Get("path"), Revision: q.Get("rev")}, nil
}

func logRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	number, err := queryInt(r, "number")
	if err != nil {
		return nil, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	return ide.LogRequest{Target: t, Path: q.Get("path"), Number: number, Offset: offset, User: q.Get("user")}, nil
}

func putRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body putBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.PutRequest{Target: t, Path: body.Path, Data: body.Data}, nil
}

func deleteRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body deleteBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.DeleteRequest{Target: t, Files: body.Files}, nil
}

func copyRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body transferBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.CopyRequest{Target: t, OldPath: body.OldPath, NewPath: body.NewPath}, nil
}

func moveRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body transferBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.MoveRequest{Target: t, OldPath: body.OldPath, NewPath: body.NewPath}, nil
}

func mkdirRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body mkdirBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.MkdirRequest{Target: t, Path: body.Path}, nil
}

func checkoutRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body checkoutBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.CheckoutRequest{Target: t, Files: body.Files, Revision: string(body.Revision)}, nil
}

func diffRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body diffBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.DiffRequest{Target: t, Path: body.Path, Hash: body.Hash, Code: body.Code}, nil
}

func lintRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body lintBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.LintRequest{Target: t, Path: body.Path, Code: body.Code, Revision: string(body.Revision)}, nil
}

func commitRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body commitBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.CommitRequest{Target: t, Message: body.Message, Files: body.Files}, nil
}

func revertRequest(r *http.Request, t ide.Target) (ide.Request, error) {
	var body revertBody
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return ide.RevertRequest{Target: t, Hash: body.Hash}, nil
}
