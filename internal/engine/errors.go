package engine

import "errors"

// Sentinel errors for engine operations.
var (
	ErrIndexClosed = errors.New("engine: index closed")
	ErrEmptyID     = errors.New("engine: empty document id")
	ErrNilQuery    = errors.New("engine: nil query")
)

// Op constants name the engine call for error context.
const (
	OpOpen     = "open"
	OpCreate   = "create"
	OpIndex    = "index"
	OpDelete   = "delete"
	OpCommit   = "commit"
	OpSnapshot = "snapshot"
	OpSearch   = "search"
	OpCount    = "count"
	OpDocument = "document"
	OpDocCount = "doc_count"
	OpClose    = "close"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "engine: " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
