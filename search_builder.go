package textdex

import (
	"context"
	"fmt"
)

// DefaultLimit is the page size of a SearchBuilder without Page.
const DefaultLimit = 10

// SearchBuilder is a fluent builder for structured searches.
type SearchBuilder struct {
	client *Client

	title     string
	statuses  []string
	timeRange TimeRange
	offset    int
	limit     int
}

// Title sets the query-string query matched against the title.
func (b *SearchBuilder) Title(q string) *SearchBuilder {
	b.title = q
	return b
}

// Status adds allowed status values. A document matches if it has any of them.
func (b *SearchBuilder) Status(values ...string) *SearchBuilder {
	b.statuses = append(b.statuses, values...)
	return b
}

// Between restricts time to the inclusive range [start, end].
func (b *SearchBuilder) Between(start, end int64) *SearchBuilder {
	b.timeRange = NewTimeRange(start, end)
	return b
}

// Since restricts time to start or later.
func (b *SearchBuilder) Since(start int64) *SearchBuilder {
	return b.Between(start, b.timeRange.End())
}

// Until restricts time to end or earlier.
func (b *SearchBuilder) Until(end int64) *SearchBuilder {
	return b.Between(b.timeRange.Start(), end)
}

// Page sets the number of leading matches to skip and the page size.
func (b *SearchBuilder) Page(offset, limit int) *SearchBuilder {
	b.offset = offset
	b.limit = limit
	return b
}

// Filter returns the validated filter the builder describes.
func (b *SearchBuilder) Filter() (Filter, error) {
	return NewFilter(b.title, b.statuses, b.timeRange.Start(), b.timeRange.End())
}

// Do runs the search and returns the page of documents.
func (b *SearchBuilder) Do(ctx context.Context) ([]Document, error) {
	res, err := b.Results(ctx)
	if err != nil {
		return nil, err
	}
	return res.Documents(), nil
}

// Results runs the search and returns the page with scores and total.
func (b *SearchBuilder) Results(ctx context.Context) (Results, error) {
	f, err := b.Filter()
	if err != nil {
		return Results{}, fmt.Errorf("find: %w", err)
	}
	return b.client.SearchPage(ctx, f, b.offset, b.limit)
}

// Count returns how many documents match, ignoring Page.
func (b *SearchBuilder) Count(ctx context.Context) (int64, error) {
	f, err := b.Filter()
	if err != nil {
		return 0, fmt.Errorf("find: %w", err)
	}
	return b.client.Count(ctx, f)
}
