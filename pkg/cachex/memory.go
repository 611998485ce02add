package cachex

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache. Entries expire lazily on read; Sweep
// removes dead entries eagerly and is intended to be called from a
// housekeeping loop so memory stays bounded between reads. Correctness does
// not depend on sweeping.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Put(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = m.now().Add(ttl)
	return nil
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	deadline, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if m.now().After(deadline) {
		// Expired entry; drop it so the map doesn't grow unbounded.
		m.mu.Lock()
		if d, ok := m.entries[key]; ok && m.now().After(d) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, deadline := range m.entries {
		if now.After(deadline) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live plus not-yet-swept entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
