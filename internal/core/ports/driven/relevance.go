package driven

import (
	"context"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// RelevanceQuery is a request to the relevance search service.
type RelevanceQuery struct {
	// QueryText is the cleaned semantic content to search for.
	QueryText string

	// TopK is the number of candidates requested.
	TopK int

	// SimilarityThreshold is the minimum score the service should return.
	SimilarityThreshold float64

	// DocumentIDs optionally limits the search to specific documents.
	DocumentIDs []string
}

// RelevanceService finds passages in other documents related to a query.
// The ranking algorithm is owned by the service; results arrive ranked.
type RelevanceService interface {
	Search(ctx context.Context, query RelevanceQuery) ([]domain.ConnectionResult, error)
}
