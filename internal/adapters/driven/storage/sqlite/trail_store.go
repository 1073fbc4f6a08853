package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// trailStore implements driven.TrailStore.
type trailStore struct {
	store *Store
}

var _ driven.TrailStore = (*trailStore)(nil)

// Save replaces the stored trail atomically.
func (s *trailStore) Save(ctx context.Context, entries []domain.BreadcrumbEntry) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM breadcrumbs"); err != nil {
			return fmt.Errorf("clearing breadcrumbs: %w", err)
		}
		for i, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO breadcrumbs (position, id, document_id, page_number, context_preview, visited_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, i, e.ID, e.DocumentID, e.PageNumber, e.ContextPreview, formatTime(e.Timestamp))
			if err != nil {
				return fmt.Errorf("saving breadcrumb %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// Load returns the stored trail in order.
func (s *trailStore) Load(ctx context.Context) ([]domain.BreadcrumbEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, page_number, context_preview, visited_at
		FROM breadcrumbs ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("loading breadcrumbs: %w", err)
	}
	defer rows.Close()

	var entries []domain.BreadcrumbEntry
	for rows.Next() {
		var (
			e         domain.BreadcrumbEntry
			visitedAt string
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.PageNumber, &e.ContextPreview, &visitedAt); err != nil {
			return nil, fmt.Errorf("scanning breadcrumb: %w", err)
		}
		e.Timestamp = parseTime(visitedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes the stored trail.
func (s *trailStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM breadcrumbs"); err != nil {
		return fmt.Errorf("clearing breadcrumbs: %w", err)
	}
	return nil
}
