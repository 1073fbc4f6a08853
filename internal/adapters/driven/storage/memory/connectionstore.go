package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore is an in-memory implementation of driven.ConnectionStore.
type ConnectionStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewConnectionStore creates a new in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		entries: make(map[string]domain.CacheEntry),
	}
}

// Save stores or replaces the entry for its slot.
func (s *ConnectionStore) Save(_ context.Context, entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Results = slices.Clone(entry.Results)
	s.entries[entry.Key()] = entry
	return nil
}

// List returns all entries, oldest first.
func (s *ConnectionStore) List(_ context.Context) ([]domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CacheEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entry.Results = slices.Clone(entry.Results)
		result = append(result, entry)
	}
	slices.SortStableFunc(result, func(a, b domain.CacheEntry) int {
		if c := a.StoredAt.Compare(b.StoredAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
	return result, nil
}

// DeleteDocument removes all entries of one document.
func (s *ConnectionStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.DocumentID == documentID {
			delete(s.entries, key)
		}
	}
	return nil
}

// Clear removes all entries.
func (s *ConnectionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.CacheEntry)
	return nil
}
