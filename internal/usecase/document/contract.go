package document

import (
	"context"

	domdoc "github.com/kailas-cloud/textdex/internal/domain/document"
)

// Writer is the single engine writer. Upserts are staged until Commit.
type Writer interface {
	Upsert(doc domdoc.Document) error
	Commit() error
	Rollback()
}

// Refresher publishes a new read snapshot after a commit.
type Refresher interface {
	Refresh() error
}

// Guard serializes writers.
type Guard interface {
	Write(ctx context.Context, fn func() error) error
}
