package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// connectionStore implements driven.ConnectionStore.
type connectionStore struct {
	store *Store
}

var _ driven.ConnectionStore = (*connectionStore)(nil)

// Save stores or replaces the entry for its slot.
func (s *connectionStore) Save(ctx context.Context, entry domain.CacheEntry) error {
	results := entry.Results
	if results == nil {
		results = []domain.ConnectionResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO connection_cache (document_id, identifier, content_hash, results, stored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, identifier) DO UPDATE SET
			content_hash = excluded.content_hash,
			results = excluded.results,
			stored_at = excluded.stored_at
	`, entry.DocumentID, entry.Identifier, entry.ContentHash, string(resultsJSON), formatTime(entry.StoredAt))
	if err != nil {
		return fmt.Errorf("saving connection entry: %w", err)
	}
	return nil
}

// List returns all stored entries, oldest first.
func (s *connectionStore) List(ctx context.Context) ([]domain.CacheEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, identifier, content_hash, results, stored_at
		FROM connection_cache
		ORDER BY stored_at, document_id, identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("listing connection entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CacheEntry
	for rows.Next() {
		var (
			entry       domain.CacheEntry
			resultsJSON string
			storedAt    string
		)
		if err := rows.Scan(&entry.DocumentID, &entry.Identifier, &entry.ContentHash, &resultsJSON, &storedAt); err != nil {
			return nil, fmt.Errorf("scanning connection entry: %w", err)
		}
		if err := json.Unmarshal([]byte(resultsJSON), &entry.Results); err != nil {
			return nil, fmt.Errorf("unmarshalling results for %s: %w", entry.Key(), err)
		}
		entry.StoredAt = parseTime(storedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteDocument removes all entries of one document.
func (s *connectionStore) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM connection_cache WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting connection entries: %w", err)
	}
	return nil
}

// Clear removes all entries.
func (s *connectionStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM connection_cache"); err != nil {
		return fmt.Errorf("clearing connection cache: %w", err)
	}
	return nil
}
