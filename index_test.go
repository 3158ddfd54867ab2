package textdex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article2 struct {
	ID     string `textdex:"id,id"`
	Title  string `textdex:"title,text"`
	Status string `textdex:"status,keyword"`
	Time   int64  `textdex:"time,numeric"`
}

func TestTypedIndex(t *testing.T) {
	ctx := context.Background()
	c := openMem(t)

	idx, err := NewIndex[article2](c)
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx,
		article2{ID: "1", Title: "Lucene introduction", Status: "published", Time: t1},
		article2{ID: "2", Title: "Lucene advanced", Status: "draft", Time: t2},
	))

	f, err := NewFilter("Lucene", []string{"published"}, t1, t2)
	require.NoError(t, err)
	hits, err := idx.Search(ctx, f, 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, article2{ID: "1", Title: "Lucene introduction", Status: "published", Time: t1}, hits[0].Item)
	assert.Greater(t, hits[0].Score, 0.0)

	hits, err = idx.SearchText(ctx, "advanced", 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2", hits[0].Item.ID)

	n, err := idx.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTypedIndex_SchemaMismatch(t *testing.T) {
	type withAuthor struct {
		ID     string `textdex:"id,id"`
		Author string `textdex:"author,keyword"`
	}
	c := openMem(t)

	_, err := NewIndex[withAuthor](c)
	assert.Error(t, err)

	c = openMem(t, WithField("author", FieldKeyword))
	_, err = NewIndex[withAuthor](c)
	assert.NoError(t, err)
}

func TestTypedIndex_InvalidItem(t *testing.T) {
	c := openMem(t)
	idx, err := NewIndex[article2](c)
	require.NoError(t, err)

	err = idx.Upsert(context.Background(), article2{Title: "no id"})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
