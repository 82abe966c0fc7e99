// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

type mockEntry struct {
	value     []byte
	updatedAt time.Time
}

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]mockEntry // keyed by session ID, then key

	// Err, when set, is returned by every operation.
	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[string]map[string]mockEntry),
	}
}

// Get retrieves a value.
func (m *MockStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	entry, ok := m.sessions[sessionID][key]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	return append([]byte(nil), entry.value...), nil
}

// Set stores a value.
func (m *MockStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	values, ok := m.sessions[sessionID]
	if !ok {
		values = make(map[string]mockEntry)
		m.sessions[sessionID] = values
	}
	values[key] = mockEntry{value: append([]byte(nil), value...), updatedAt: time.Now()}
	return nil
}

// Delete removes a value.
func (m *MockStore) Delete(ctx context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	delete(m.sessions[sessionID], key)
	return nil
}

// Prune removes sessions not written since cutoff.
func (m *MockStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, values := range m.sessions {
		latest := time.Time{}
		for _, e := range values {
			if e.updatedAt.After(latest) {
				latest = e.updatedAt
			}
		}
		if latest.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Keys returns the keys currently stored for a session.
func (m *MockStore) Keys(sessionID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.sessions[sessionID]))
	for k := range m.sessions[sessionID] {
		keys = append(keys, k)
	}
	return keys
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
