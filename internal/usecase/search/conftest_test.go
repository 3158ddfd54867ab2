package search

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/domain/search/filter"
	"github.com/kailas-cloud/textdex/internal/domain/search/page"
	"github.com/kailas-cloud/textdex/internal/domain/search/result"
	"github.com/kailas-cloud/textdex/internal/engine"
	"github.com/kailas-cloud/textdex/internal/snapshot"
)

type stubView struct {
	gen    uint64
	closed atomic.Bool
}

func (v *stubView) Generation() uint64 { return v.gen }
func (v *stubView) Search(context.Context, query.Query, int, int) ([]engine.Hit, uint64, error) {
	return nil, 0, nil
}
func (v *stubView) Count(context.Context, query.Query) (uint64, error) { return 0, nil }
func (v *stubView) Document(id string) (document.Document, bool, error) {
	return document.Reconstruct(id, nil), true, nil
}
func (v *stubView) Close() error {
	v.closed.Store(true)
	return nil
}

type stubOpener struct {
	gen  uint64
	last *stubView
}

func (o *stubOpener) Generation() uint64 { return o.gen }
func (o *stubOpener) Open() (snapshot.View, error) {
	o.last = &stubView{gen: o.gen}
	return o.last, nil
}

type mockComposer struct {
	composeFn func(spec filter.Spec) (query.Query, error)
	parseFn   func(text string) (query.Query, error)
}

func (m *mockComposer) Compose(spec filter.Spec) (query.Query, error) {
	if m.composeFn != nil {
		return m.composeFn(spec)
	}
	return bleve.NewMatchAllQuery(), nil
}

func (m *mockComposer) Parse(text string) (query.Query, error) {
	if m.parseFn != nil {
		return m.parseFn(text)
	}
	return bleve.NewMatchAllQuery(), nil
}

type mockExecutor struct {
	searchFn func(ctx context.Context, v snapshot.View, q query.Query, p page.Page) (result.Page, error)
	countFn  func(ctx context.Context, v snapshot.View, q query.Query) (int64, error)
}

func (m *mockExecutor) Search(ctx context.Context, v snapshot.View, q query.Query, p page.Page) (result.Page, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, v, q, p)
	}
	return result.NewPage(nil, 0, v.Generation()), nil
}

func (m *mockExecutor) Count(ctx context.Context, v snapshot.View, q query.Query) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, v, q)
	}
	return 0, nil
}

type mockGuard struct {
	reads int
	held  bool
}

func (g *mockGuard) Read(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.reads++
	g.held = true
	defer func() { g.held = false }()
	return fn()
}

type fixture struct {
	svc      *Service
	opener   *stubOpener
	snaps    *snapshot.Manager
	composer *mockComposer
	executor *mockExecutor
	guard    *mockGuard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	o := &stubOpener{}
	m, err := snapshot.New(o, nil)
	if err != nil {
		t.Fatalf("snapshot.New: %v", err)
	}
	t.Cleanup(m.Close)

	f := &fixture{opener: o, snaps: m, composer: &mockComposer{}, executor: &mockExecutor{}, guard: &mockGuard{}}
	f.svc = New(m, f.composer, f.executor, f.guard)
	return f
}

func mustSpec(t *testing.T, title string, statuses ...string) filter.Spec {
	t.Helper()
	s, err := filter.New(title, statuses, filter.NewTimeRange(0, 100))
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	return s
}

func mustPage(t *testing.T, offset, limit int) page.Page {
	t.Helper()
	p, err := page.New(offset, limit)
	if err != nil {
		t.Fatalf("page.New: %v", err)
	}
	return p
}
