package driven

import (
	"context"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// ConnectionStore persists connection cache entries across sessions.
type ConnectionStore interface {
	// Save stores or replaces the entry for its slot.
	Save(ctx context.Context, entry domain.CacheEntry) error

	// List returns all stored entries, oldest first.
	List(ctx context.Context) ([]domain.CacheEntry, error)

	// DeleteDocument removes all entries of one document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// TrailStore persists the breadcrumb trail.
type TrailStore interface {
	// Save replaces the stored trail.
	Save(ctx context.Context, entries []domain.BreadcrumbEntry) error

	// Load returns the stored trail in order.
	Load(ctx context.Context) ([]domain.BreadcrumbEntry, error)

	// Clear removes the stored trail.
	Clear(ctx context.Context) error
}
