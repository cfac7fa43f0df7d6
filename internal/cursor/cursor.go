// Package cursor tracks the polling resume point: the next update id to
// request. The cursor is mutated only by the poller, immediately after a
// batch is fully handed off, and is never rolled back except on explicit
// reset.
package cursor

import (
	"context"
	"sync"
)

// Store persists the cursor. Absence of a persisted value means "start from
// the source's current tip" and is reported as offset 0.
type Store interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, offset int64) error
	Close() error
}

// Memory is a process-local cursor store. State is lost on restart.
type Memory struct {
	mu     sync.Mutex
	offset int64
}

// NewMemory creates a memory store seeded with an initial offset.
func NewMemory(initial int64) *Memory {
	return &Memory{offset: initial}
}

// Load returns the current offset.
func (m *Memory) Load(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset, nil
}

// Save records the offset.
func (m *Memory) Save(ctx context.Context, offset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = offset
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
