package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/textdex/internal/domain/document"
)

func openMem(t *testing.T) *Index {
	t.Helper()
	x, err := Open(Config{MemOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func article(t *testing.T, id, title, status string, ts int64) document.Document {
	t.Helper()
	doc, err := document.NewArticle(id, title, status, ts)
	require.NoError(t, err)
	return doc
}

func snapshot(t *testing.T, x *Index) *Snapshot {
	t.Helper()
	s, err := x.OpenSnapshot()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIndex_CommitMakesWritesVisible(t *testing.T) {
	x := openMem(t)
	before := snapshot(t, x)

	require.NoError(t, x.Upsert(article(t, "1", "Lucene introduction", "published", 100)))
	assert.Equal(t, 1, x.Staged())

	staged := snapshot(t, x)
	n, err := staged.Count(context.Background(), bleve.NewMatchAllQuery())
	require.NoError(t, err)
	assert.Zero(t, n, "staged writes must not be visible")

	require.NoError(t, x.Commit())
	assert.Equal(t, uint64(1), x.Generation())
	assert.Zero(t, x.Staged())

	after := snapshot(t, x)
	n, err = after.Count(context.Background(), bleve.NewMatchAllQuery())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	n, err = before.Count(context.Background(), bleve.NewMatchAllQuery())
	require.NoError(t, err)
	assert.Zero(t, n, "old snapshot must not observe later commits")
	assert.Equal(t, uint64(0), before.Generation())
	assert.Equal(t, uint64(1), after.Generation())
}

func TestIndex_UpsertReplaces(t *testing.T) {
	x := openMem(t)
	require.NoError(t, x.Upsert(article(t, "1", "first", "draft", 1)))
	require.NoError(t, x.Commit())
	require.NoError(t, x.Upsert(article(t, "1", "second", "published", 2)))
	require.NoError(t, x.Commit())

	s := snapshot(t, x)
	n, err := s.Count(context.Background(), bleve.NewMatchAllQuery())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	doc, ok, err := s.Document("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", doc.Title())
	assert.Equal(t, "published", doc.Status())
	ts, _ := doc.Time()
	assert.Equal(t, int64(2), ts)
}

func TestIndex_EmptyCommitKeepsGeneration(t *testing.T) {
	x := openMem(t)
	require.NoError(t, x.Commit())
	assert.Equal(t, uint64(0), x.Generation())
}

func TestIndex_Rollback(t *testing.T) {
	x := openMem(t)
	require.NoError(t, x.Upsert(article(t, "1", "t", "s", 1)))
	x.Rollback()
	assert.Zero(t, x.Staged())
	require.NoError(t, x.Commit())

	n, err := snapshot(t, x).Count(context.Background(), bleve.NewMatchAllQuery())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_Closed(t *testing.T) {
	x, err := Open(Config{MemOnly: true})
	require.NoError(t, err)
	require.NoError(t, x.Close())
	require.NoError(t, x.Close())

	assert.ErrorIs(t, x.Upsert(article(t, "1", "t", "s", 1)), ErrIndexClosed)
	assert.ErrorIs(t, x.Commit(), ErrIndexClosed)
	_, err = x.OpenSnapshot()
	assert.ErrorIs(t, err, ErrIndexClosed)
	assert.ErrorIs(t, x.Ping(context.Background()), ErrIndexClosed)
}

func TestOpen_OnDiskCreatesThenReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx")

	x, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, x.Upsert(article(t, "1", "persisted", "published", 5)))
	require.NoError(t, x.Commit())
	require.NoError(t, x.Close())

	x, err = Open(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })

	doc, ok, err := snapshot(t, x).Document("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", doc.Title())
}

func TestOpen_MissingPath(t *testing.T) {
	_, err := Open(Config{})
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, OpOpen, e.Op)
}

func TestSnapshot_SearchRanksAndPages(t *testing.T) {
	x := openMem(t)
	require.NoError(t, x.Upsert(article(t, "a", "lucene lucene lucene", "published", 1)))
	require.NoError(t, x.Upsert(article(t, "b", "lucene", "published", 2)))
	require.NoError(t, x.Upsert(article(t, "c", "unrelated", "published", 3)))
	require.NoError(t, x.Commit())
	s := snapshot(t, x)

	q := bleve.NewMatchQuery("lucene")
	q.SetField(document.FieldTitle)

	all, total, err := s.Search(context.Background(), q, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.GreaterOrEqual(t, all[0].Score, all[1].Score)

	second, _, err := s.Search(context.Background(), q, 1, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, all[1].ID, second[0].ID)

	beyond, total, err := s.Search(context.Background(), q, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, uint64(2), total)
}

func TestSnapshot_TiesBrokenByID(t *testing.T) {
	x := openMem(t)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, x.Upsert(article(t, id, "same", "s", 1)))
	}
	require.NoError(t, x.Commit())

	hits, _, err := snapshot(t, x).Search(context.Background(), bleve.NewMatchAllQuery(), 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{hits[0].ID, hits[1].ID, hits[2].ID})
}

func TestSnapshot_DocumentMissing(t *testing.T) {
	x := openMem(t)
	_, ok, err := snapshot(t, x).Document("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshot_NilQuery(t *testing.T) {
	s := snapshot(t, openMem(t))
	_, _, err := s.Search(context.Background(), nil, 0, 1)
	assert.ErrorIs(t, err, ErrNilQuery)
	_, err = s.Count(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilQuery)
}

func TestSnapshot_StoresExtraFields(t *testing.T) {
	x := openMem(t)
	doc, err := document.New("1", map[string][]any{
		document.FieldTitle: {"t"},
		"author":            {"ann"},
		"pinned":            {true},
	})
	require.NoError(t, err)
	require.NoError(t, x.Upsert(doc))
	require.NoError(t, x.Commit())

	got, ok, err := snapshot(t, x).Document("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ann", got.String("author"))
	_, hasID := got.Get(document.FieldID)
	assert.False(t, hasID)
}

func TestSnapshot_CloseTwice(t *testing.T) {
	x := openMem(t)
	s, err := x.OpenSnapshot()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
