package textdex

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textdex/internal/domain/search/page"
	"github.com/kailas-cloud/textdex/internal/engine"
	"github.com/kailas-cloud/textdex/internal/guard"
	logpkg "github.com/kailas-cloud/textdex/internal/logger"
	searchrepo "github.com/kailas-cloud/textdex/internal/repository/search"
	"github.com/kailas-cloud/textdex/internal/snapshot"
	documentuc "github.com/kailas-cloud/textdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/textdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/textdex/internal/usecase/search"
)

// Client is a concurrency-safe full-text index.
// Writes commit as whole batches; every read sees exactly one committed state.
type Client struct {
	schema    Schema
	index     *engine.Index
	snapshots *snapshot.Manager
	guard     *guard.Guard
	composer  *searchrepo.Composer
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
	obs       *observer
	log       *zap.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens the index and publishes the first snapshot.
// On failure everything opened so far is closed and an *InitializationError is returned.
func Open(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}
	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}

	mode, err := guard.ParseMode(string(cfg.mode))
	if err != nil {
		return nil, &InitializationError{Op: "options", Err: err}
	}
	sch, err := cfg.schema()
	if err != nil {
		return nil, &InitializationError{Op: "schema", Err: err}
	}
	m, err := engine.MappingFromSchema(sch)
	if err != nil {
		return nil, &InitializationError{Op: "mapping", Err: err}
	}
	composer, err := searchrepo.NewComposer(cfg.parseCacheSize)
	if err != nil {
		return nil, &InitializationError{Op: "query cache", Err: err}
	}
	obs, err := newObserver(logpkg.Component(log, "client"), cfg.metricsReg)
	if err != nil {
		return nil, &InitializationError{Op: "metrics", Err: err}
	}

	idx, err := engine.Open(engine.Config{Path: cfg.path, MemOnly: cfg.memOnly, Mapping: m})
	if err != nil {
		return nil, &InitializationError{Op: "open index", Err: err}
	}
	snaps, err := snapshot.New(snapshot.FromIndex(idx), logpkg.Component(log, "snapshot"))
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	g := guard.New(mode)
	c := &Client{
		schema:    sch,
		index:     idx,
		snapshots: snaps,
		guard:     g,
		composer:  composer,
		docSvc: documentuc.New(idx, snaps, g, logpkg.Component(log, "writer")).
			WithMaxBatchSize(cfg.maxBatchSize),
		searchSvc: searchuc.New(snaps, composer, searchrepo.NewExecutor(), g),
		healthSvc: healthuc.New(idx, snaps),
		obs:       obs,
		log:       log,
	}

	if err := c.load(cfg.initialDocs, cfg.maxBatchSize); err != nil {
		_ = c.Close()
		return nil, &InitializationError{Op: "initial load", Err: err}
	}

	log.Info("index opened",
		zap.String("path", cfg.path),
		zap.Bool("mem_only", cfg.memOnly),
		zap.String("concurrency", string(mode)),
		zap.Uint64("generation", snaps.Generation()),
	)
	return c, nil
}

func (c *Client) load(docs []Document, chunk int) error {
	if chunk <= 0 {
		chunk = documentuc.DefaultMaxBatchSize
	}
	for start := 0; start < len(docs); start += chunk {
		end := min(start+chunk, len(docs))
		if err := c.docSvc.Upsert(context.Background(), docs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for an in-flight commit, then releases the snapshot and the index.
// Reads already holding a snapshot finish normally. Safe to call twice.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.guard.Write(context.Background(), func() error {
			c.snapshots.Close()
			c.closeErr = c.index.Close()
			return nil
		})
		c.log.Info("index closed", zap.Error(c.closeErr))
	})
	return c.closeErr
}

// Upsert writes docs as one atomic batch. A document replaces any stored one with the same id.
// When Upsert returns nil every doc is visible to searches that start afterwards.
// On *CommitError none of the batch is visible and the whole batch may be retried.
func (c *Client) Upsert(ctx context.Context, docs []Document) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("upsert", start, err) }()

	if c.closed.Load() {
		return ErrClosed
	}
	return c.docSvc.Upsert(ctx, docs)
}

// Search returns up to limit documents matching f, skipping the first offset, best match first.
func (c *Client) Search(ctx context.Context, f Filter, offset, limit int) ([]Document, error) {
	res, err := c.SearchPage(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return res.Documents(), nil
}

// SearchPage is Search with scores, total match count and snapshot generation.
func (c *Client) SearchPage(ctx context.Context, f Filter, offset, limit int) (_ Results, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	p, err := page.New(offset, limit)
	if err != nil {
		return Results{}, err
	}
	if c.closed.Load() {
		return Results{}, ErrClosed
	}
	return c.searchSvc.Search(ctx, f, p)
}

// SearchText runs a raw query-string query against the title field.
func (c *Client) SearchText(ctx context.Context, raw string, offset, limit int) ([]Document, error) {
	res, err := c.SearchTextPage(ctx, raw, offset, limit)
	if err != nil {
		return nil, err
	}
	return res.Documents(), nil
}

// SearchTextPage is SearchText with scores, total match count and snapshot generation.
func (c *Client) SearchTextPage(ctx context.Context, raw string, offset, limit int) (_ Results, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_text", start, err) }()

	p, err := page.New(offset, limit)
	if err != nil {
		return Results{}, err
	}
	if c.closed.Load() {
		return Results{}, ErrClosed
	}
	return c.searchSvc.SearchText(ctx, raw, p)
}

// Count returns how many documents match f.
func (c *Client) Count(ctx context.Context, f Filter) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count", start, err) }()

	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.searchSvc.Count(ctx, f)
}

// CountQuery returns how many documents match a prebuilt bleve query.
func (c *Client) CountQuery(ctx context.Context, q query.Query) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count_query", start, err) }()

	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.searchSvc.CountQuery(ctx, q)
}

// CountText returns how many documents match a raw query-string query.
func (c *Client) CountText(ctx context.Context, raw string) (int64, error) {
	q, err := c.composer.Parse(raw)
	if err != nil {
		return 0, err
	}
	return c.CountQuery(ctx, q)
}

// Health reports index and snapshot health.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.healthSvc.Check(ctx)
}

// Generation returns the commit generation readers currently see.
func (c *Client) Generation() uint64 { return c.snapshots.Generation() }

// Schema returns the indexed fields.
func (c *Client) Schema() Schema { return c.schema }

// Find starts a fluent structured search.
func (c *Client) Find() *SearchBuilder {
	return &SearchBuilder{client: c, timeRange: AllTime(), limit: DefaultLimit}
}
