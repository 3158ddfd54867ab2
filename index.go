package textdex

import (
	"context"
	"fmt"
)

// TypedIndex maps struct values of T onto a Client's documents.
// Field mapping is read from T's textdex struct tags once, at construction.
type TypedIndex[T any] struct {
	client *Client
	meta   *schemaMeta
}

// Hit is a typed search result.
type Hit[T any] struct {
	Item  T
	Score float64
}

// NewIndex creates a typed handle over client.
// Every tagged field must exist in the client's schema with the tagged type.
func NewIndex[T any](client *Client) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}
	if err := meta.checkAgainst(client.Schema()); err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}
	return &TypedIndex[T]{client: client, meta: meta}, nil
}

// Upsert writes items as one atomic batch.
func (idx *TypedIndex[T]) Upsert(ctx context.Context, items ...T) error {
	docs := make([]Document, len(items))
	for i, item := range items {
		doc, err := idx.meta.toDocument(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		docs[i] = doc
	}
	return idx.client.Upsert(ctx, docs)
}

// Search returns a page of typed hits matching f.
func (idx *TypedIndex[T]) Search(ctx context.Context, f Filter, offset, limit int) ([]Hit[T], error) {
	res, err := idx.client.SearchPage(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return idx.toHits(res), nil
}

// SearchText returns a page of typed hits for a raw query-string query.
func (idx *TypedIndex[T]) SearchText(ctx context.Context, raw string, offset, limit int) ([]Hit[T], error) {
	res, err := idx.client.SearchTextPage(ctx, raw, offset, limit)
	if err != nil {
		return nil, err
	}
	return idx.toHits(res), nil
}

// Count returns how many documents match f.
func (idx *TypedIndex[T]) Count(ctx context.Context, f Filter) (int64, error) {
	return idx.client.Count(ctx, f)
}

func (idx *TypedIndex[T]) toHits(res Results) []Hit[T] {
	hits := make([]Hit[T], 0, len(res.Hits()))
	for _, h := range res.Hits() {
		item, ok := idx.meta.fromDocument(h.Document()).(T)
		if !ok {
			continue
		}
		hits = append(hits, Hit[T]{Item: item, Score: h.Score()})
	}
	return hits
}
