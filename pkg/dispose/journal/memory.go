package journal

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory journal for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	closed  bool
}

// NewMemoryStore creates a new in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (m *MemoryStore) Append(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	m.entries = append(m.entries, e)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(object string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	// Return copies so callers cannot mutate the journal.
	result := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if object == "" || e.Object == object {
			result = append(result, e)
		}
	}
	return result, nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	kept := m.entries[:0]
	for _, e := range m.entries {
		if !e.RecordedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}

// Len returns the number of recorded events.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
