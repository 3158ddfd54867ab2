package chi

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/textdex/internal/domain"
	domdoc "github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/domain/search/filter"
	"github.com/kailas-cloud/textdex/internal/domain/search/result"
)

// DocumentItem is a document on the wire. A field holds a scalar or an array.
type DocumentItem struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// UpsertRequest is the body of PUT /documents.
type UpsertRequest struct {
	Documents []DocumentItem `json:"documents"`
}

// FilterRequest is the body of POST /search and POST /count.
// Missing start and end leave that side of the time range open.
type FilterRequest struct {
	Title    string   `json:"title"`
	Statuses []string `json:"statuses"`
	Start    *int64   `json:"start"`
	End      *int64   `json:"end"`
	Offset   int      `json:"offset"`
	Limit    *int     `json:"limit"`
}

// SearchHit is one ranked document.
type SearchHit struct {
	DocumentItem
	Score float64 `json:"score"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Documents  []SearchHit `json:"documents"`
	Total      uint64      `json:"total"`
	Generation uint64      `json:"generation"`
}

// CountResponse is the body of a successful count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	Generation uint64            `json:"generation"`
}

func documentsFromRequest(req UpsertRequest) ([]domdoc.Document, error) {
	docs := make([]domdoc.Document, 0, len(req.Documents))
	for i, item := range req.Documents {
		fields := make(map[string][]any, len(item.Fields))
		for name, v := range item.Fields {
			if list, ok := v.([]any); ok {
				fields[name] = list
				continue
			}
			fields[name] = []any{v}
		}
		doc, err := domdoc.New(item.ID, fields)
		if err != nil {
			return nil, fmt.Errorf("%w: documents[%d]: %w", domain.ErrInvalidDocument, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func specFromRequest(req FilterRequest) (filter.Spec, error) {
	start, end := int64(math.MinInt64), int64(math.MaxInt64)
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}
	return filter.New(req.Title, req.Statuses, filter.NewTimeRange(start, end))
}

func documentToItem(doc domdoc.Document) DocumentItem {
	fields := make(map[string]any)
	for _, name := range doc.FieldNames() {
		values := doc.Values(name)
		if len(values) == 1 {
			fields[name] = values[0]
			continue
		}
		fields[name] = values
	}
	return DocumentItem{ID: doc.ID(), Fields: fields}
}

func searchResponse(p result.Page) SearchResponse {
	hits := make([]SearchHit, 0, len(p.Hits()))
	for _, h := range p.Hits() {
		hits = append(hits, SearchHit{DocumentItem: documentToItem(h.Document()), Score: h.Score()})
	}
	return SearchResponse{Documents: hits, Total: p.Total(), Generation: p.Generation()}
}
