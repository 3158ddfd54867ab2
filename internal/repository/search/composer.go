package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/textdex/internal/domain"
	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/domain/search/filter"
)

// DefaultParseCacheSize is the number of parsed text queries kept by default.
const DefaultParseCacheSize = 256

// Composer turns filter specs and raw text into engine queries.
// Parsed queries are immutable and shared from an LRU cache.
type Composer struct {
	cache *lru.Cache[string, query.Query]
}

// NewComposer creates a Composer. cacheSize <= 0 disables the parse cache.
func NewComposer(cacheSize int) (*Composer, error) {
	c := &Composer{}
	if cacheSize > 0 {
		cache, err := lru.New[string, query.Query](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("parse cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Compose builds the conjunction of the title, status and time clauses of spec.
// Absent title or statuses add no clause. The time range is always applied.
func (c *Composer) Compose(spec filter.Spec) (query.Query, error) {
	q := bleve.NewBooleanQuery()

	if spec.HasTitle() {
		title, err := c.Parse(spec.Title())
		if err != nil {
			return nil, err
		}
		q.AddMust(title)
	}

	if spec.HasStatuses() {
		statuses := spec.Statuses()
		terms := make([]query.Query, 0, len(statuses))
		for _, s := range statuses {
			tq := bleve.NewTermQuery(s)
			tq.SetField(document.FieldStatus)
			terms = append(terms, tq)
		}
		q.AddMust(bleve.NewDisjunctionQuery(terms...))
	}

	q.AddMust(timeClause(spec.TimeRange()))
	return q, nil
}

// Parse parses text with the engine query-string grammar. Un-fielded terms match the title.
func (c *Composer) Parse(text string) (query.Query, error) {
	if c.cache != nil {
		if q, ok := c.cache.Get(text); ok {
			return q, nil
		}
	}

	q, err := bleve.NewQueryStringQuery(text).Parse()
	if err != nil {
		return nil, &domain.QueryParseError{Query: text, Err: err}
	}

	if c.cache != nil {
		c.cache.Add(text, q)
	}
	return q, nil
}

// CacheLen returns the number of cached parsed queries.
func (c *Composer) CacheLen() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func timeClause(tr filter.TimeRange) query.Query {
	if tr.IsEmpty() {
		return bleve.NewMatchNoneQuery()
	}
	// float64 is exact for epoch milliseconds below 2^53.
	lo, hi := float64(tr.Start()), float64(tr.End())
	inclusive := true
	rq := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
	rq.SetField(document.FieldTime)
	return rq
}
