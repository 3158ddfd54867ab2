package document

import (
	"context"
	"sync"

	domdoc "github.com/kailas-cloud/textdex/internal/domain/document"
)

// mockWriter implements Writer for tests. It records committed ids.
type mockWriter struct {
	mu        sync.Mutex
	upsertFn  func(doc domdoc.Document) error
	commitFn  func() error
	staged    []string
	committed [][]string
	rollbacks int
}

func (m *mockWriter) Upsert(doc domdoc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertFn != nil {
		if err := m.upsertFn(doc); err != nil {
			return err
		}
	}
	m.staged = append(m.staged, doc.ID())
	return nil
}

func (m *mockWriter) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := m.staged
	m.staged = nil
	if m.commitFn != nil {
		if err := m.commitFn(); err != nil {
			return err
		}
	}
	m.committed = append(m.committed, batch)
	return nil
}

func (m *mockWriter) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = nil
	m.rollbacks++
}

type mockRefresher struct {
	refreshFn func() error
	calls     int
}

func (m *mockRefresher) Refresh() error {
	m.calls++
	if m.refreshFn != nil {
		return m.refreshFn()
	}
	return nil
}

// mockGuard runs fn under a plain mutex.
type mockGuard struct {
	mu    sync.Mutex
	calls int
}

func (g *mockGuard) Write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return fn()
}

func newTestService() (*Service, *mockWriter, *mockRefresher, *mockGuard) {
	w := &mockWriter{}
	r := &mockRefresher{}
	g := &mockGuard{}
	return New(w, r, g, nil), w, r, g
}

func docs(ids ...string) []domdoc.Document {
	out := make([]domdoc.Document, len(ids))
	for i, id := range ids {
		d, err := domdoc.NewArticle(id, "title "+id, "published", int64(i))
		if err != nil {
			panic(err)
		}
		out[i] = d
	}
	return out
}
