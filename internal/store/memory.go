package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Store. It is lost on restart and not visible to
// other processes; use it for development and tests.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		sessions: make(map[string]map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the unexpired value stored under key.
func (m *Memory) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID][key]
	if !ok || !m.now().Before(e.expires) {
		return nil, ErrNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(_ context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.sessions[sessionID]
	if !ok {
		values = make(map[string]memoryEntry)
		m.sessions[sessionID] = values
	}
	values[key] = memoryEntry{value: slices.Clone(value), expires: m.now().Add(m.ttl)}
	return nil
}

// Delete removes key from the session.
func (m *Memory) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := m.sessions[sessionID]
	delete(values, key)
	if len(values) == 0 {
		delete(m.sessions, sessionID)
	}
	return nil
}

// Purge drops entries that expired at or before now.
func (m *Memory) Purge(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, values := range m.sessions {
		for key, e := range values {
			if !now.Before(e.expires) {
				delete(values, key)
				n++
			}
		}
		if len(values) == 0 {
			delete(m.sessions, id)
		}
	}
	return n, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
