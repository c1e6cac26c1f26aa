// Package storage persists small keyed values such as the diagnostic log buffer.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no value is stored under the requested key.
var ErrNotFound = errors.New("storage: key not found")

// MemoryStore is an in-process store. It is safe for concurrent use and is
// what the log buffer falls back to when no on-disk store is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]string)}
}

// Load returns a copy of the lines stored under key.
func (s *MemoryStore) Load(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), lines...), nil
}

// Save replaces the lines stored under key.
func (s *MemoryStore) Save(_ context.Context, key string, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]string(nil), lines...)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
