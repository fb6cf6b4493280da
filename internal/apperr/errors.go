// Package apperr defines the error kinds reported by import and export operations.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownFormat = errors.New("unknown file format")
	ErrParse         = errors.New("parse failed")
	ErrStructure     = errors.New("missing reserved bookmark folders")
	ErrCreate        = errors.New("node creation")
	ErrHost          = errors.New("bookmark store error")
)

// Op names the operation that failed.
type Op string

const (
	OpImport Op = "import"
	OpExport Op = "export"
)

// Error is the single error type returned across the import/export boundary.
// errors.Is matches both Kind and the wrapped cause.
type Error struct {
	Op       Op
	Kind     error
	Node     string          // title of the node that failed, creation errors only
	NodeType models.ItemType // bookmark or folder, creation errors only
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Op)
	if e.Kind != nil {
		fmt.Fprintf(&b, ": %v", e.Kind)
	}
	if e.NodeType != "" {
		fmt.Fprintf(&b, ": %s %q", e.NodeType, e.Node)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Wrap returns err as an *Error for op. An *Error passes through with Op set,
// any other error is classified as kind.
func Wrap(op Op, kind error, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Op == "" {
			appErr.Op = op
		}
		return appErr
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Create reports a failure to materialize a single node.
func Create(nodeType models.ItemType, title string, err error) *Error {
	return &Error{Kind: ErrCreate, Node: title, NodeType: nodeType, Err: err}
}
