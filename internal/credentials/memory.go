package credentials

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory.
// Safe for concurrent use.
type MemoryStore struct {
	data map[string]Entry
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Entry),
	}
}

// Get returns a copy of the entry stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// Set stores entry under key, replacing any previous entry.
func (s *MemoryStore) Set(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry
	return nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
