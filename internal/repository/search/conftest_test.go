package search

import (
	"context"
	"testing"

	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/engine"
)

// mockView implements snapshot.View for tests.
type mockView struct {
	gen        uint64
	searchFn   func(ctx context.Context, q query.Query, skip, size int) ([]engine.Hit, uint64, error)
	countFn    func(ctx context.Context, q query.Query) (uint64, error)
	documentFn func(id string) (document.Document, bool, error)
}

func (m *mockView) Generation() uint64 { return m.gen }

func (m *mockView) Search(ctx context.Context, q query.Query, skip, size int) ([]engine.Hit, uint64, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, skip, size)
	}
	return nil, 0, nil
}

func (m *mockView) Count(ctx context.Context, q query.Query) (uint64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, q)
	}
	return 0, nil
}

func (m *mockView) Close() error { return nil }

func (m *mockView) Document(id string) (document.Document, bool, error) {
	if m.documentFn != nil {
		return m.documentFn(id)
	}
	return document.Reconstruct(id, nil), true, nil
}

func newComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(DefaultParseCacheSize)
	require.NoError(t, err)
	return c
}

// articles is a committed mem-only index with a snapshot open on it.
func articles(t *testing.T, docs ...document.Document) *engine.Snapshot {
	t.Helper()
	x, err := engine.Open(engine.Config{MemOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })

	for _, d := range docs {
		require.NoError(t, x.Upsert(d))
	}
	require.NoError(t, x.Commit())

	s, err := x.OpenSnapshot()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func article(t *testing.T, id, title, status string, ts int64) document.Document {
	t.Helper()
	d, err := document.NewArticle(id, title, status, ts)
	require.NoError(t, err)
	return d
}
