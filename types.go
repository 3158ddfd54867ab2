package textdex

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/textdex/internal/domain"
	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/domain/schema"
	"github.com/kailas-cloud/textdex/internal/domain/search/filter"
	"github.com/kailas-cloud/textdex/internal/domain/search/result"
	"github.com/kailas-cloud/textdex/internal/guard"
	healthuc "github.com/kailas-cloud/textdex/internal/usecase/health"
)

// Document is an immutable set of field values keyed by a unique id.
type Document = document.Document

// Filter is a validated structured search: optional title query,
// optional allowed statuses and an inclusive time range.
type Filter = filter.Spec

// TimeRange is an inclusive range of epoch milliseconds.
type TimeRange = filter.TimeRange

// Results is one page of ranked documents with the total match count
// and the generation of the snapshot that produced it.
type Results = result.Page

// HealthReport aggregates index and snapshot health.
type HealthReport = healthuc.Report

// Schema lists the indexed fields.
type Schema = schema.Schema

// FieldType is the indexing type of a schema field.
type FieldType = schema.Type

// Field types.
const (
	FieldKeyword = schema.Keyword
	FieldText    = schema.Text
	FieldNumeric = schema.Numeric
)

// ConcurrencyMode selects how reads and commits exclude each other.
type ConcurrencyMode = guard.Mode

// Concurrency modes.
const (
	ConcurrencySnapshot = guard.ModeSnapshot
	ConcurrencyRWLock   = guard.ModeRWLock
)

// Errors returned by the client. Match with errors.Is.
var (
	ErrInvalidDocument = domain.ErrInvalidDocument
	ErrInvalidFilter   = domain.ErrInvalidFilter
	ErrInvalidPage     = domain.ErrInvalidPage
	ErrClosed          = domain.ErrClosed
	ErrInitialization  = domain.ErrInitialization
	ErrCommit          = domain.ErrCommit
	ErrQueryParse      = domain.ErrQueryParse
	ErrExecution       = domain.ErrExecution
)

// Typed errors carrying failure details. Match with errors.As.
type (
	InitializationError = domain.InitializationError
	CommitError         = domain.CommitError
	RefreshError        = domain.RefreshError
	QueryParseError     = domain.QueryParseError
	ExecutionError      = domain.ExecutionError
)

// NewDocument validates and creates a Document.
func NewDocument(id string, fields map[string][]any) (Document, error) {
	d, err := document.New(id, fields)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return d, nil
}

// NewArticle creates a Document with title, status and time set.
func NewArticle(id, title, status string, timeMillis int64) (Document, error) {
	d, err := document.NewArticle(id, title, status, timeMillis)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return d, nil
}

// NewFilter validates and creates a Filter over [start, end].
func NewFilter(title string, statuses []string, start, end int64) (Filter, error) {
	return filter.New(title, statuses, filter.NewTimeRange(start, end))
}

// NewTimeRange creates the inclusive range [start, end]. start > end matches nothing.
func NewTimeRange(start, end int64) TimeRange { return filter.NewTimeRange(start, end) }

// AllTime is the time range that excludes nothing.
func AllTime() TimeRange {
	return filter.NewTimeRange(math.MinInt64, math.MaxInt64)
}
