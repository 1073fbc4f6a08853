package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// Ensure TrailStore implements the interface.
var _ driven.TrailStore = (*TrailStore)(nil)

// TrailStore is an in-memory implementation of driven.TrailStore.
type TrailStore struct {
	mu      sync.RWMutex
	entries []domain.BreadcrumbEntry
}

// NewTrailStore creates a new in-memory trail store.
func NewTrailStore() *TrailStore {
	return &TrailStore{}
}

// Save replaces the stored trail.
func (s *TrailStore) Save(_ context.Context, entries []domain.BreadcrumbEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.Clone(entries)
	return nil
}

// Load returns the stored trail in order.
func (s *TrailStore) Load(_ context.Context) ([]domain.BreadcrumbEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries), nil
}

// Clear removes the stored trail.
func (s *TrailStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
