package result

import "github.com/kailas-cloud/textdex/internal/domain/document"

// Hit is one ranked document with its relevance score.
type Hit struct {
	doc   document.Document
	score float64
}

// NewHit creates a Hit.
func NewHit(doc document.Document, score float64) Hit {
	return Hit{doc: doc, score: score}
}

// Document returns the stored document.
func (h Hit) Document() document.Document { return h.doc }

// Score returns the relevance score.
func (h Hit) Score() float64 { return h.score }

// Page is a window of ranked hits plus the total match count of the query.
type Page struct {
	hits       []Hit
	total      uint64
	generation uint64
}

// NewPage creates a result Page.
func NewPage(hits []Hit, total, generation uint64) Page {
	return Page{hits: hits, total: total, generation: generation}
}

// Hits returns the ranked hits in the window.
func (p Page) Hits() []Hit { return p.hits }

// Total returns the number of matches before windowing.
func (p Page) Total() uint64 { return p.total }

// Generation returns the snapshot generation the page was read from.
func (p Page) Generation() uint64 { return p.generation }

// Documents returns the documents of the window in rank order.
func (p Page) Documents() []document.Document {
	docs := make([]document.Document, len(p.hits))
	for i, h := range p.hits {
		docs[i] = h.doc
	}
	return docs
}

// IDs returns the ids of the window in rank order.
func (p Page) IDs() []string {
	ids := make([]string, len(p.hits))
	for i, h := range p.hits {
		ids[i] = h.doc.ID()
	}
	return ids
}
