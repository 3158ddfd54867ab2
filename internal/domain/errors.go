package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument signals a document or batch that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidFilter signals malformed structured filter parameters.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidPage signals negative or overflowing pagination parameters.
	ErrInvalidPage = errors.New("invalid page")
	// ErrDocumentNotFound signals a hit whose stored document is missing from the snapshot.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrClosed signals an operation on a service that has been shut down.
	ErrClosed = errors.New("service closed")

	// ErrInitialization signals that the engine or storage could not be opened.
	ErrInitialization = errors.New("initialization failed")
	// ErrCommit signals a failed write or commit. The whole batch must be retried.
	ErrCommit = errors.New("commit failed")
	// ErrRefresh signals that a new snapshot could not be opened after a commit.
	ErrRefresh = errors.New("snapshot refresh failed")
	// ErrQueryParse signals malformed text-query syntax.
	ErrQueryParse = errors.New("query parse error")
	// ErrExecution signals an engine failure while running a query.
	ErrExecution = errors.New("query execution failed")
)

// InitializationError is returned when startup cannot open the index.
// Anything opened before the failure has already been released.
type InitializationError struct {
	Op  string
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInitialization, e.Op, e.Err)
}

func (e *InitializationError) Unwrap() []error { return []error{ErrInitialization, e.Err} }

// CommitError is returned when a batch could not be written or committed.
// None of the batch is guaranteed visible in any later snapshot.
type CommitError struct {
	Docs int
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s (%d documents): %v", ErrCommit, e.Docs, e.Err)
}

func (e *CommitError) Unwrap() []error { return []error{ErrCommit, e.Err} }

// RefreshError is returned when the snapshot at generation Current could not
// be replaced by one at generation Target. Reads keep using Current.
type RefreshError struct {
	Current uint64
	Target  uint64
	Err     error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s (generation %d -> %d): %v", ErrRefresh, e.Current, e.Target, e.Err)
}

func (e *RefreshError) Unwrap() []error { return []error{ErrRefresh, e.Err} }

// QueryParseError reports text-query syntax the engine grammar rejected.
type QueryParseError struct {
	Query string
	Err   error
}

func (e *QueryParseError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrQueryParse, e.Query, e.Err)
}

func (e *QueryParseError) Unwrap() []error { return []error{ErrQueryParse, e.Err} }

// ExecutionError reports an engine failure during search or count.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExecution, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.Err} }
