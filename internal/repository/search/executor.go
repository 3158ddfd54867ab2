package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/textdex/internal/domain"
	"github.com/kailas-cloud/textdex/internal/domain/search/page"
	"github.com/kailas-cloud/textdex/internal/domain/search/result"
	"github.com/kailas-cloud/textdex/internal/snapshot"
)

// Executor op names carried by domain.ExecutionError.
const (
	OpSearch = "search"
	OpCount  = "count"
)

// Executor runs composed queries against one snapshot.
type Executor struct{}

// NewExecutor creates an Executor.
func NewExecutor() *Executor { return &Executor{} }

// Search returns the [offset, offset+limit) window of the ranked hits of q.
// A window past the last hit is empty, not an error.
func (e *Executor) Search(ctx context.Context, v snapshot.View, q query.Query, p page.Page) (result.Page, error) {
	if q == nil {
		return result.Page{}, fmt.Errorf("%w: nil query", domain.ErrInvalidFilter)
	}
	if p.IsEmpty() {
		return result.NewPage(nil, 0, v.Generation()), nil
	}

	hits, total, err := v.Search(ctx, q, p.Offset(), p.Limit())
	if err != nil {
		return result.Page{}, execErr(OpSearch, err)
	}

	out := make([]result.Hit, 0, len(hits))
	for _, h := range hits {
		doc, ok, err := v.Document(h.ID)
		if err != nil {
			return result.Page{}, execErr(OpSearch, err)
		}
		if !ok {
			return result.Page{}, execErr(OpSearch, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, h.ID))
		}
		out = append(out, result.NewHit(doc, h.Score))
	}
	return result.NewPage(out, total, v.Generation()), nil
}

// Count returns the number of documents matching q.
func (e *Executor) Count(ctx context.Context, v snapshot.View, q query.Query) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("%w: nil query", domain.ErrInvalidFilter)
	}
	n, err := v.Count(ctx, q)
	if err != nil {
		return 0, execErr(OpCount, err)
	}
	return int64(n), nil //nolint:gosec // document counts fit in int64
}

func execErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.ExecutionError{Op: op, Err: err}
}
