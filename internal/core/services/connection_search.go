package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var searchLog = logger.Scope("search")

// attributionMarker matches bracketed presentation markers such as
// "[Source: handbook.pdf, p. 4]" or "[3]" that must not reach the search.
var attributionMarker = regexp.MustCompile(`\[[^\[\]\n]{0,200}\]`)

// CleanQueryText strips bracketed attribution markers and collapses whitespace.
func CleanQueryText(text string) string {
	stripped := attributionMarker.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(stripped), " ")
}

// ConnectionSearch runs relevance searches on behalf of named consumers.
//
// Each consumer has at most one search in flight. A call made while a
// previous one for the same consumer is running is rejected with
// domain.ErrSearchInFlight, never queued. Requests across consumers share a
// rate limiter so the relevance service is not flooded while scrolling.
type ConnectionSearch struct {
	relevance driven.RelevanceService
	settings  domain.SearchSettings
	limiter   *rate.Limiter

	mu    sync.Mutex
	gates map[string]*semaphore.Weighted
}

// NewConnectionSearch creates a search orchestrator.
func NewConnectionSearch(relevance driven.RelevanceService, settings domain.SearchSettings) *ConnectionSearch {
	limit := rate.Inf
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
	}
	burst := settings.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ConnectionSearch{
		relevance: relevance,
		settings:  settings,
		limiter:   rate.NewLimiter(limit, burst),
		gates:     make(map[string]*semaphore.Weighted),
	}
}

// Search finds connections for text on behalf of consumer.
// An empty, nil-error result means the service found nothing.
func (s *ConnectionSearch) Search(ctx context.Context, consumer, text string) ([]domain.ConnectionResult, error) {
	return s.search(ctx, consumer, text, nil)
}

// SearchDocuments is Search restricted to the given documents.
func (s *ConnectionSearch) SearchDocuments(
	ctx context.Context,
	consumer, text string,
	documentIDs []string,
) ([]domain.ConnectionResult, error) {
	return s.search(ctx, consumer, text, documentIDs)
}

func (s *ConnectionSearch) search(
	ctx context.Context,
	consumer, text string,
	documentIDs []string,
) ([]domain.ConnectionResult, error) {
	if s.relevance == nil {
		return nil, domain.ErrSearchUnavailable
	}

	query := CleanQueryText(text)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query after cleaning", domain.ErrInvalidInput)
	}

	gate := s.gate(consumer)
	if !gate.TryAcquire(1) {
		searchLog.Debug("%s search already running, dropping request", consumer)
		return nil, domain.ErrSearchInFlight
	}
	defer gate.Release(1)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for search slot: %w", err)
	}

	searchLog.Debug("%s: searching %d chars", consumer, len(query))
	results, err := s.relevance.Search(ctx, driven.RelevanceQuery{
		QueryText:           query,
		TopK:                s.settings.Overfetch,
		SimilarityThreshold: s.settings.SimilarityThreshold,
		DocumentIDs:         documentIDs,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}

	for i := range results {
		results[i].RelevanceScore = domain.ClampScore(results[i].RelevanceScore)
	}
	selected := SelectResults(results, s.settings.TopK, s.settings.Overfetch, s.settings.StrongScore)
	searchLog.Debug("%s: %d of %d results kept", consumer, len(selected), len(results))
	return selected, nil
}

func (s *ConnectionSearch) gate(consumer string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[consumer]
	if !ok {
		g = semaphore.NewWeighted(1)
		s.gates[consumer] = g
	}
	return g
}

// SelectResults applies the result policy to ranked results.
//
// When at least topK results score above strong, the first topK of those
// are returned. Otherwise the first max(topK, min(len, requested)) results
// are returned unfiltered. Ranking order is preserved.
func SelectResults(results []domain.ConnectionResult, topK, requested int, strong float64) []domain.ConnectionResult {
	if len(results) == 0 {
		return []domain.ConnectionResult{}
	}

	var strongHits []domain.ConnectionResult
	for _, r := range results {
		if r.RelevanceScore > strong {
			strongHits = append(strongHits, r)
		}
	}
	if topK > 0 && len(strongHits) >= topK {
		return strongHits[:topK]
	}

	n := max(topK, min(len(results), requested))
	n = min(n, len(results))
	out := make([]domain.ConnectionResult, n)
	copy(out, results[:n])
	return out
}
