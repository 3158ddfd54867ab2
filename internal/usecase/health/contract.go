package health

import "context"

// IndexPinger checks that the index is open and readable.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// SnapshotState reports the read snapshot's position relative to the writer.
type SnapshotState interface {
	Generation() uint64
	Stale() bool
}
