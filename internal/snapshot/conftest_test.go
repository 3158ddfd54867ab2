package snapshot

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/engine"
)

type mockView struct {
	gen    uint64
	closed atomic.Int32
}

func (v *mockView) Generation() uint64 { return v.gen }

func (v *mockView) Search(context.Context, query.Query, int, int) ([]engine.Hit, uint64, error) {
	return nil, 0, nil
}

func (v *mockView) Count(context.Context, query.Query) (uint64, error) { return 0, nil }

func (v *mockView) Document(string) (document.Document, bool, error) {
	return document.Document{}, false, nil
}

func (v *mockView) Close() error {
	v.closed.Add(1)
	return nil
}

type mockOpener struct {
	mu      sync.Mutex
	gen     uint64
	views   []*mockView
	openErr error
}

func (o *mockOpener) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen
}

func (o *mockOpener) Open() (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	v := &mockView{gen: o.gen}
	o.views = append(o.views, v)
	return v, nil
}

func (o *mockOpener) commit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
}

func (o *mockOpener) fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.openErr = err
}

func (o *mockOpener) view(i int) *mockView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.views[i]
}
