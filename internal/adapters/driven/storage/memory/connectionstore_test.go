package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

func entry(doc, id string, at time.Time) domain.CacheEntry {
	return domain.CacheEntry{
		DocumentID:  doc,
		Identifier:  id,
		ContentHash: 42,
		Results: []domain.ConnectionResult{
			{SourceDocumentID: "other", PageNumber: 3, TextSnippet: "snippet", RelevanceScore: 0.8},
		},
		StoredAt: at,
	}
}

func TestConnectionStore_SaveAndList(t *testing.T) {
	store := NewConnectionStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, entry("doc-a", "page_2", base.Add(time.Minute))))
	require.NoError(t, store.Save(ctx, entry("doc-a", "page_1", base)))

	entries, err := store.List(ctx)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "page_1", entries[0].Identifier, "oldest first")
	assert.Equal(t, "page_2", entries[1].Identifier)
	assert.Equal(t, int64(42), entries[0].ContentHash)
}

func TestConnectionStore_SaveReplacesSlot(t *testing.T) {
	store := NewConnectionStore()
	ctx := context.Background()

	first := entry("doc-a", "page_1", time.Now())
	second := entry("doc-a", "page_1", time.Now())
	second.ContentHash = 7

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ContentHash)
}

func TestConnectionStore_ListReturnsCopies(t *testing.T) {
	store := NewConnectionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, entry("doc-a", "page_1", time.Now())))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	entries[0].Results[0].TextSnippet = "mutated"

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snippet", again[0].Results[0].TextSnippet)
}

func TestConnectionStore_DeleteDocument(t *testing.T) {
	store := NewConnectionStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, entry("doc-a", "page_1", now)))
	require.NoError(t, store.Save(ctx, entry("doc-a", "content_abc", now)))
	require.NoError(t, store.Save(ctx, entry("doc-b", "page_1", now)))

	require.NoError(t, store.DeleteDocument(ctx, "doc-a"))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc-b", entries[0].DocumentID)
}

func TestConnectionStore_Clear(t *testing.T) {
	store := NewConnectionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, entry("doc-a", "page_1", time.Now())))

	require.NoError(t, store.Clear(ctx))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConnectionStore_ConcurrentAccess(t *testing.T) {
	store := NewConnectionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Save(ctx, entry("doc-a", "page_1", time.Now()))
		}()
		go func() {
			defer wg.Done()
			_, _ = store.List(ctx)
		}()
	}
	wg.Wait()

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
