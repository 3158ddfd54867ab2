package search

import (
	"context"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/textdex/internal/domain/search/filter"
	"github.com/kailas-cloud/textdex/internal/domain/search/page"
	"github.com/kailas-cloud/textdex/internal/domain/search/result"
	"github.com/kailas-cloud/textdex/internal/snapshot"
)

// Snapshots hands out pinned read snapshots.
type Snapshots interface {
	Acquire() (*snapshot.Handle, error)
}

// Composer builds engine queries from filters and raw text.
type Composer interface {
	Compose(spec filter.Spec) (query.Query, error)
	Parse(text string) (query.Query, error)
}

// Executor runs queries against a pinned snapshot.
type Executor interface {
	Search(ctx context.Context, v snapshot.View, q query.Query, p page.Page) (result.Page, error)
	Count(ctx context.Context, v snapshot.View, q query.Query) (int64, error)
}

// Guard admits readers.
type Guard interface {
	Read(ctx context.Context, fn func() error) error
}
