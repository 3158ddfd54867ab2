package snapshot

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textdex/internal/domain"
	"github.com/kailas-cloud/textdex/internal/domain/document"
	"github.com/kailas-cloud/textdex/internal/engine"
	"github.com/kailas-cloud/textdex/internal/metrics"
)

// View is a point-in-time reader over committed index state.
type View interface {
	Generation() uint64
	Search(ctx context.Context, q query.Query, skip, size int) ([]engine.Hit, uint64, error)
	Count(ctx context.Context, q query.Query) (uint64, error)
	Document(id string) (document.Document, bool, error)
	Close() error
}

// Opener opens views and reports the writer's committed generation.
type Opener interface {
	Generation() uint64
	Open() (View, error)
}

type indexOpener struct{ x *engine.Index }

// FromIndex adapts an engine index to an Opener.
func FromIndex(x *engine.Index) Opener { return indexOpener{x: x} }

func (o indexOpener) Generation() uint64 { return o.x.Generation() }

func (o indexOpener) Open() (View, error) {
	s, err := o.x.OpenSnapshot()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ref is a refcounted view. The manager holds one reference while the view is current.
type ref struct {
	view View
	refs atomic.Int64
	log  *zap.Logger
}

func newRef(v View, log *zap.Logger) *ref {
	r := &ref{view: v, log: log}
	r.refs.Store(1)
	return r
}

// tryIncRef fails once the view has been released by everyone.
func (r *ref) tryIncRef() bool {
	for {
		n := r.refs.Load()
		if n <= 0 {
			return false
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (r *ref) decRef() {
	if r.refs.Add(-1) == 0 {
		if err := r.view.Close(); err != nil {
			r.log.Warn("close snapshot", zap.Uint64("generation", r.view.Generation()), zap.Error(err))
		}
	}
}

// Handle pins one snapshot for the duration of a read. Release exactly once;
// later calls are no-ops.
type Handle struct {
	r    *ref
	once sync.Once
}

// Generation returns the generation of the pinned snapshot.
func (h *Handle) Generation() uint64 { return h.r.view.Generation() }

// View returns the pinned view. It must not be used after Release.
func (h *Handle) View() View { return h.r.view }

// Release unpins the snapshot.
func (h *Handle) Release() {
	h.once.Do(h.r.decRef)
}

// Manager publishes the current snapshot and swaps it after commits.
// Acquire is lock-free; Refresh and Close are serialized.
type Manager struct {
	opener  Opener
	log     *zap.Logger
	current atomic.Pointer[ref]

	mu     sync.Mutex
	closed atomic.Bool
}

// New opens the initial snapshot.
func New(opener Opener, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v, err := opener.Open()
	if err != nil {
		return nil, &domain.InitializationError{Op: "open snapshot", Err: err}
	}
	m := &Manager{opener: opener, log: log}
	m.current.Store(newRef(v, log))
	metrics.SnapshotGeneration.Set(float64(v.Generation()))
	metrics.SetStale(false)
	return m, nil
}

// Acquire pins the current snapshot. The caller must Release the handle.
func (m *Manager) Acquire() (*Handle, error) {
	for {
		if m.closed.Load() {
			return nil, domain.ErrClosed
		}
		r := m.current.Load()
		if r == nil {
			return nil, domain.ErrClosed
		}
		if r.tryIncRef() {
			return &Handle{r: r}, nil
		}
		// Lost a race with a swap; the next load sees the replacement.
		runtime.Gosched()
	}
}

// Refresh swaps in a new snapshot when the writer has committed past the current one.
// On failure the previous snapshot stays current.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return domain.ErrClosed
	}

	cur := m.current.Load()
	target := m.opener.Generation()
	if cur.view.Generation() >= target {
		metrics.SnapshotRefreshTotal.WithLabelValues(metrics.RefreshNoop).Inc()
		return nil
	}

	v, err := m.opener.Open()
	if err != nil {
		metrics.SnapshotRefreshTotal.WithLabelValues(metrics.RefreshError).Inc()
		metrics.SetStale(true)
		return &domain.RefreshError{Current: cur.view.Generation(), Target: target, Err: err}
	}

	m.current.Store(newRef(v, m.log))
	cur.decRef()

	metrics.SnapshotRefreshTotal.WithLabelValues(metrics.RefreshSwapped).Inc()
	metrics.SnapshotGeneration.Set(float64(v.Generation()))
	metrics.SetStale(v.Generation() < m.opener.Generation())
	m.log.Debug("snapshot refreshed",
		zap.Uint64("from", cur.view.Generation()),
		zap.Uint64("to", v.Generation()),
	)
	return nil
}

// Generation returns the generation of the current snapshot.
func (m *Manager) Generation() uint64 {
	r := m.current.Load()
	if r == nil {
		return 0
	}
	return r.view.Generation()
}

// Stale reports whether commits exist that the current snapshot does not reflect.
func (m *Manager) Stale() bool {
	r := m.current.Load()
	if r == nil {
		return false
	}
	return r.view.Generation() < m.opener.Generation()
}

// Close drops the current snapshot. Outstanding handles stay valid until released.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Swap(true) {
		return
	}
	if r := m.current.Swap(nil); r != nil {
		r.decRef()
	}
}
