package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/collector"
	"github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"

	"github.com/kailas-cloud/textdex/internal/domain/document"
)

// Config controls how the index is opened.
type Config struct {
	// Path is the on-disk index directory. Ignored when MemOnly is set.
	Path string
	// MemOnly keeps the index in memory only.
	MemOnly bool
	// Mapping is used when a new index is created. Nil means the article mapping.
	Mapping mapping.IndexMapping
}

// Hit is a single ranked search result.
type Hit struct {
	ID    string
	Score float64
}

// Index is the single writer over a bleve index.
// Writes are staged by Upsert and become visible to new snapshots only after Commit.
// Upsert, Commit and Rollback must be serialized by the caller.
type Index struct {
	idx        bleve.Index
	mapping    mapping.IndexMapping
	generation atomic.Uint64

	mu     sync.Mutex
	batch  *bleve.Batch
	closed bool
}

// Open opens the index at cfg.Path, creating it when absent, or a mem-only index.
func Open(cfg Config) (*Index, error) {
	m := cfg.Mapping
	if m == nil {
		im, err := DefaultMapping()
		if err != nil {
			return nil, &Error{Op: OpCreate, Err: err}
		}
		m = im
	}

	var (
		idx bleve.Index
		err error
	)
	switch {
	case cfg.MemOnly:
		idx, err = bleve.NewMemOnly(m)
		if err != nil {
			return nil, &Error{Op: OpCreate, Err: err}
		}
	case cfg.Path == "":
		return nil, &Error{Op: OpOpen, Err: errors.New("index path is required")}
	default:
		idx, err = bleve.Open(cfg.Path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(cfg.Path, m)
			if err != nil {
				return nil, &Error{Op: OpCreate, Err: err}
			}
		} else if err != nil {
			return nil, &Error{Op: OpOpen, Err: err}
		}
	}

	return &Index{idx: idx, mapping: idx.Mapping(), batch: idx.NewBatch()}, nil
}

// Generation returns the number of successful commits since open.
func (x *Index) Generation() uint64 { return x.generation.Load() }

// Upsert stages doc to replace any document with the same id.
func (x *Index) Upsert(doc document.Document) error {
	if doc.ID() == "" {
		return &Error{Op: OpIndex, Err: ErrEmptyID}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return &Error{Op: OpIndex, Err: ErrIndexClosed}
	}

	x.batch.Delete(doc.ID())
	if err := x.batch.Index(doc.ID(), toBleveDoc(doc)); err != nil {
		return &Error{Op: OpIndex, Err: fmt.Errorf("document %q: %w", doc.ID(), err)}
	}
	return nil
}

// Staged returns the number of staged operations not yet committed.
func (x *Index) Staged() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.batch.Size()
}

// Commit durably applies every staged operation as one unit.
// The staged batch is discarded whether or not the commit succeeds.
func (x *Index) Commit() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return &Error{Op: OpCommit, Err: ErrIndexClosed}
	}

	defer x.batch.Reset()
	if x.batch.Size() == 0 {
		return nil
	}
	if err := x.idx.Batch(x.batch); err != nil {
		return &Error{Op: OpCommit, Err: err}
	}
	x.generation.Add(1)
	return nil
}

// Rollback discards staged operations.
func (x *Index) Rollback() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.batch.Reset()
}

// OpenSnapshot opens a point-in-time reader of the committed state.
func (x *Index) OpenSnapshot() (*Snapshot, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, &Error{Op: OpSnapshot, Err: ErrIndexClosed}
	}

	// mu excludes Commit, so gen matches the reader's state.
	gen := x.generation.Load()
	adv, err := x.idx.Advanced()
	if err != nil {
		return nil, &Error{Op: OpSnapshot, Err: err}
	}
	r, err := adv.Reader()
	if err != nil {
		return nil, &Error{Op: OpSnapshot, Err: err}
	}
	return &Snapshot{reader: r, mapping: x.mapping, generation: gen}, nil
}

// DocCount returns the number of committed documents.
func (x *Index) DocCount() (uint64, error) {
	n, err := x.idx.DocCount()
	if err != nil {
		return 0, &Error{Op: OpDocCount, Err: err}
	}
	return n, nil
}

// Ping reports whether the index is open and readable.
func (x *Index) Ping(_ context.Context) error {
	x.mu.Lock()
	closed := x.closed
	x.mu.Unlock()
	if closed {
		return &Error{Op: OpDocCount, Err: ErrIndexClosed}
	}
	_, err := x.DocCount()
	return err
}

// Mapping returns the index mapping used for query construction.
func (x *Index) Mapping() mapping.IndexMapping { return x.mapping }

// Close discards staged operations and closes the index. Safe to call twice.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	x.batch.Reset()
	if err := x.idx.Close(); err != nil {
		return &Error{Op: OpClose, Err: err}
	}
	return nil
}

// Snapshot is an immutable point-in-time view of the index.
type Snapshot struct {
	reader     index.IndexReader
	mapping    mapping.IndexMapping
	generation uint64
	closeOnce  sync.Once
	closeErr   error
}

// Generation returns the index generation this snapshot was opened at.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Search returns hits ranked by descending score, ties broken by id.
// The first skip hits are dropped and at most size are returned.
func (s *Snapshot) Search(ctx context.Context, q query.Query, skip, size int) ([]Hit, uint64, error) {
	if q == nil {
		return nil, 0, &Error{Op: OpSearch, Err: ErrNilQuery}
	}
	coll := collector.NewTopNCollector(size, skip, rankOrder())
	if err := s.collect(ctx, q, coll); err != nil {
		return nil, 0, &Error{Op: OpSearch, Err: err}
	}

	results := coll.Results()
	hits := make([]Hit, 0, len(results))
	for _, dm := range results {
		hits = append(hits, Hit{ID: dm.ID, Score: dm.Score})
	}
	return hits, coll.Total(), nil
}

// Count returns the total number of documents matching q.
func (s *Snapshot) Count(ctx context.Context, q query.Query) (uint64, error) {
	if q == nil {
		return 0, &Error{Op: OpCount, Err: ErrNilQuery}
	}
	coll := collector.NewTopNCollector(1, 0, rankOrder())
	if err := s.collect(ctx, q, coll); err != nil {
		return 0, &Error{Op: OpCount, Err: err}
	}
	return coll.Total(), nil
}

func (s *Snapshot) collect(ctx context.Context, q query.Query, coll *collector.TopNCollector) error {
	searcher, err := q.Searcher(ctx, s.reader, s.mapping, search.SearcherOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = searcher.Close() }()
	return coll.Collect(ctx, searcher, s.reader)
}

// Document loads the stored fields of id. It returns (Document{}, false, nil) when absent.
func (s *Snapshot) Document(id string) (document.Document, bool, error) {
	d, err := s.reader.Document(id)
	if err != nil {
		return document.Document{}, false, &Error{Op: OpDocument, Err: err}
	}
	if d == nil {
		return document.Document{}, false, nil
	}

	fields := make(map[string][]any)
	d.VisitFields(func(f index.Field) {
		name := f.Name()
		if name == "_id" || name == document.FieldID {
			return
		}
		switch v := f.(type) {
		case index.NumericField:
			n, err := v.Number()
			if err != nil {
				return
			}
			if name == document.FieldTime {
				fields[name] = append(fields[name], int64(n))
				return
			}
			fields[name] = append(fields[name], n)
		case index.BooleanField:
			b, err := v.Boolean()
			if err != nil {
				return
			}
			fields[name] = append(fields[name], b)
		case index.TextField:
			fields[name] = append(fields[name], v.Text())
		}
	})
	return document.Reconstruct(id, fields), true, nil
}

// Close releases the reader. Safe to call more than once.
func (s *Snapshot) Close() error {
	s.closeOnce.Do(func() {
		if err := s.reader.Close(); err != nil {
			s.closeErr = &Error{Op: OpClose, Err: err}
		}
	})
	return s.closeErr
}

func rankOrder() search.SortOrder {
	return search.SortOrder{&search.SortScore{Desc: true}, &search.SortDocID{}}
}

// toBleveDoc flattens single-valued fields so bleve maps them as scalars.
func toBleveDoc(doc document.Document) map[string]any {
	fields := doc.Fields()
	out := make(map[string]any, len(fields)+1)
	for name, values := range fields {
		if len(values) == 1 {
			out[name] = values[0]
			continue
		}
		out[name] = values
	}
	out[document.FieldID] = doc.ID()
	return out
}

// DefaultMapping returns the article mapping: keyword id and status,
// analyzed title as the default query field, numeric time.
func DefaultMapping() (*mapping.IndexMappingImpl, error) {
	return NewMapping().
		Text(document.FieldTitle).
		Keyword(document.FieldStatus).
		Numeric(document.FieldTime).
		DefaultField(document.FieldTitle).
		Build()
}
