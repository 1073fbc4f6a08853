package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var trailLog = logger.Scope("trail")

// previewLength bounds the context preview kept per entry.
const previewLength = 100

// BreadcrumbTrail records visited locations in order.
type BreadcrumbTrail struct {
	navigator *Navigator
	store     driven.TrailStore
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	entries []domain.BreadcrumbEntry
}

// NewBreadcrumbTrail creates an empty trail. store may be nil.
func NewBreadcrumbTrail(navigator *Navigator, store driven.TrailStore) *BreadcrumbTrail {
	return &BreadcrumbTrail{
		navigator: navigator,
		store:     store,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Restore loads the persisted trail.
func (t *BreadcrumbTrail) Restore(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	entries, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load trail: %w", err)
	}
	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
	return nil
}

// Entries returns a copy of the trail in visit order.
func (t *BreadcrumbTrail) Entries() []domain.BreadcrumbEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.BreadcrumbEntry(nil), t.entries...)
}

// Len returns the number of entries.
func (t *BreadcrumbTrail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Append adds a location unless it equals the last entry.
// It reports whether an entry was added.
func (t *BreadcrumbTrail) Append(ctx context.Context, documentID string, page int, preview string) (domain.BreadcrumbEntry, bool) {
	t.mu.Lock()
	if n := len(t.entries); n > 0 && t.entries[n-1].SameLocation(documentID, page) {
		last := t.entries[n-1]
		t.mu.Unlock()
		return last, false
	}
	entry := domain.BreadcrumbEntry{
		ID:             t.newID(),
		DocumentID:     documentID,
		PageNumber:     page,
		ContextPreview: truncateRunes(preview, previewLength),
		Timestamp:      t.now(),
	}
	t.entries = append(t.entries, entry)
	snapshot := append([]domain.BreadcrumbEntry(nil), t.entries...)
	t.mu.Unlock()

	trailLog.Debug("added %s page %d (%d entries)", documentID, page, len(snapshot))
	t.persist(ctx, snapshot)
	return entry, true
}

// NavigateTo moves the viewer to an entry. On success, entries after it
// are dropped; on failure the trail is left unchanged.
func (t *BreadcrumbTrail) NavigateTo(ctx context.Context, entryID string) (bool, error) {
	entry, ok := t.find(entryID)
	if !ok {
		return false, fmt.Errorf("breadcrumb %s: %w", entryID, domain.ErrNotFound)
	}

	moved, err := t.navigator.Navigate(ctx, entry.Location())
	if !moved {
		return false, err
	}

	t.mu.Lock()
	for i, e := range t.entries {
		if e.ID == entryID {
			t.entries = t.entries[:i+1]
			break
		}
	}
	snapshot := append([]domain.BreadcrumbEntry(nil), t.entries...)
	t.mu.Unlock()

	t.persist(ctx, snapshot)
	return true, nil
}

// Clear empties the trail.
func (t *BreadcrumbTrail) Clear(ctx context.Context) error {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
	if t.store != nil {
		if err := t.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear trail: %w", err)
		}
	}
	return nil
}

func (t *BreadcrumbTrail) find(id string) (domain.BreadcrumbEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.BreadcrumbEntry{}, false
}

func (t *BreadcrumbTrail) persist(ctx context.Context, entries []domain.BreadcrumbEntry) {
	if t.store == nil {
		return
	}
	if err := t.store.Save(ctx, entries); err != nil {
		trailLog.Warn("persist trail: %v", err)
	}
}
