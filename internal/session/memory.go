package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     *State
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Plan state does not survive the
// process; suitable for interactive use and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryStore creates a MemoryStore. A ttl of zero disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *MemoryStore) Save(ctx context.Context, key string, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{state: st}
	if m.ttl > 0 {
		e.expiresAt = time.Now().Add(m.ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*State, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.state, nil
}

func (m *MemoryStore) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
