package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var cacheLog = logger.Scope("cache")

// ConnectionCache maps content identities to cached connection results.
// Entries never expire; they are removed by Clear or Invalidate only.
// The in-memory tier is a bounded LRU; an optional store keeps a durable copy.
//
// Every Clear or Invalidate starts a new generation. PutAt refuses results
// of a search that started in an earlier generation.
type ConnectionCache struct {
	mu        sync.Mutex
	writeMu   sync.Mutex
	gen       atomic.Uint64
	entries   *lru.Cache[string, domain.CacheEntry]
	store     driven.ConnectionStore
	threshold int64
	now       func() time.Time
}

// NewConnectionCache creates a cache holding at most size entries.
// threshold is the hash distance under which a page-based reading identity
// reuses an entry whose text changed slightly. store may be nil.
func NewConnectionCache(size int, threshold int64, store driven.ConnectionStore) (*ConnectionCache, error) {
	if size <= 0 {
		size = domain.DefaultAppSettings().Engine.CacheSize
	}
	entries, err := lru.New[string, domain.CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &ConnectionCache{
		entries:   entries,
		store:     store,
		threshold: threshold,
		now:       time.Now,
	}, nil
}

// Warm loads persisted entries into memory.
func (c *ConnectionCache) Warm(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	stored, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load cached connections: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range stored {
		c.entries.Add(entry.Key(), entry)
	}
	cacheLog.Debug("warmed %d entries", len(stored))
	return nil
}

// Get returns the cached entry for an identity.
//
// Selection identities always miss. A reading identity hits when the stored
// hash matches, or when the identifier is page-based and the hash distance is
// below the near-duplicate threshold.
func (c *ConnectionCache) Get(identity domain.ContentIdentity) (domain.CacheEntry, bool) {
	if identity.Kind == domain.SignalSelection {
		return domain.CacheEntry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(identity.Key())
	if !ok {
		cacheLog.Debug("miss %s", identity.Key())
		return domain.CacheEntry{}, false
	}
	if entry.ContentHash == identity.ContentHash {
		cacheLog.Debug("hit %s", identity.Key())
		return entry, true
	}
	if identity.IsPageBased() {
		distance := HashDistance(entry.ContentHash, identity.ContentHash)
		if distance < c.threshold {
			cacheLog.Debug("near-duplicate hit %s (distance %d)", identity.Key(), distance)
			return entry, true
		}
		cacheLog.Debug("content changed under %s (distance %d)", identity.Key(), distance)
	}
	return domain.CacheEntry{}, false
}

// Generation returns the current generation.
func (c *ConnectionCache) Generation() uint64 {
	return c.gen.Load()
}

// Put stores results for a reading identity. Selection identities are
// never reused, so they are not stored.
func (c *ConnectionCache) Put(ctx context.Context, identity domain.ContentIdentity, results []domain.ConnectionResult) {
	c.PutAt(ctx, c.Generation(), identity, results)
}

// PutAt stores results only while generation is still current. It reports
// whether the entry was kept.
func (c *ConnectionCache) PutAt(
	ctx context.Context,
	generation uint64,
	identity domain.ContentIdentity,
	results []domain.ConnectionResult,
) bool {
	if identity.Kind == domain.SignalSelection || identity.IsZero() {
		return false
	}

	entry := domain.CacheEntry{
		DocumentID:  identity.DocumentID,
		Identifier:  identity.Identifier,
		ContentHash: identity.ContentHash,
		Results:     append([]domain.ConnectionResult(nil), results...),
		StoredAt:    c.now(),
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.gen.Load() != generation {
		cacheLog.Debug("dropping %s from generation %d", entry.Key(), generation)
		return false
	}

	c.mu.Lock()
	c.entries.Add(entry.Key(), entry)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, entry); err != nil {
			cacheLog.Warn("persist %s: %v", entry.Key(), err)
		}
	}
	return true
}

// Clear removes every entry. Used on document switch or explicit reset.
func (c *ConnectionCache) Clear(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.gen.Add(1)

	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear stored connections: %w", err)
		}
	}
	return nil
}

// Invalidate removes all entries of one document, e.g. after its content
// changed on disk.
func (c *ConnectionCache) Invalidate(ctx context.Context, documentID string) error {
	prefix := documentID + "/"

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.gen.Add(1)

	c.mu.Lock()
	removed := 0
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
			removed++
		}
	}
	c.mu.Unlock()
	cacheLog.Debug("invalidated %d entries of %s", removed, documentID)

	if c.store != nil {
		if err := c.store.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("invalidate stored connections: %w", err)
		}
	}
	return nil
}

// Len returns the number of in-memory entries.
func (c *ConnectionCache) Len() int {
	return c.entries.Len()
}
