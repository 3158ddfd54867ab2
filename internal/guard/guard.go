package guard

import (
	"context"
	"fmt"
	"sync"
)

// Mode selects the read/write exclusion strategy.
type Mode string

const (
	// ModeSnapshot serializes writers only. Readers never block; each pins
	// the snapshot current at call start.
	ModeSnapshot Mode = "snapshot"
	// ModeRWLock holds a shared lock for the whole read, so reads and commits
	// exclude each other.
	ModeRWLock Mode = "rwlock"
)

// ParseMode validates a mode name. Empty means ModeSnapshot.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSnapshot:
		return ModeSnapshot, nil
	case ModeRWLock:
		return ModeRWLock, nil
	default:
		return "", fmt.Errorf("unknown concurrency mode %q (want snapshot or rwlock)", s)
	}
}

// Guard is the single place writers and readers coordinate.
// Write is always exclusive among writers so batches never interleave.
type Guard struct {
	mode Mode
	rw   sync.RWMutex
}

// New creates a Guard in the given mode.
func New(mode Mode) *Guard {
	if mode == "" {
		mode = ModeSnapshot
	}
	return &Guard{mode: mode}
}

// Mode returns the configured mode.
func (g *Guard) Mode() Mode { return g.mode }

// Write runs fn while holding the writer lock.
// In rwlock mode this also waits for in-flight reads and blocks new ones.
func (g *Guard) Write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.rw.Lock()
	defer g.rw.Unlock()
	return fn()
}

// Read runs fn as a reader. In snapshot mode fn runs without locking.
func (g *Guard) Read(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.mode == ModeRWLock {
		g.rw.RLock()
		defer g.rw.RUnlock()
	}
	return fn()
}
