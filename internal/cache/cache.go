// Package cache remembers which (group, week) pairs are already settled so
// the per-view week-closing trigger can skip the database. Entries are hints
// only; the closed_weeks table stays authoritative.
package cache

import (
	"context"
	"sync"
)

// WeekGuard records weeks known to be closed.
type WeekGuard interface {
	IsClosed(ctx context.Context, groupID, weekID string) (bool, error)
	MarkClosed(ctx context.Context, groupID, weekID string) error
}

// Memory is a process-local WeekGuard.
type Memory struct {
	mu     sync.RWMutex
	closed map[string]struct{}
}

// NewMemory returns an empty in-process guard.
func NewMemory() *Memory {
	return &Memory{closed: make(map[string]struct{})}
}

// IsClosed reports whether the week was marked closed in this process.
func (m *Memory) IsClosed(_ context.Context, groupID, weekID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.closed[key(groupID, weekID)]
	return ok, nil
}

// MarkClosed records the week as closed. Marking twice is a no-op.
func (m *Memory) MarkClosed(_ context.Context, groupID, weekID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed[key(groupID, weekID)] = struct{}{}
	return nil
}

func key(groupID, weekID string) string {
	return "multas:closed:" + groupID + ":" + weekID
}
