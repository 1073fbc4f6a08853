package backend

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.RelevanceService = (*Client)(nil)

const searchPath = "/api/v1/search/semantic"

type searchRequest struct {
	QueryText           string  `json:"query_text"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	DocumentIDs         []any   `json:"document_ids,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	DocumentID      flexID  `json:"document_id" validate:"required"`
	DocumentName    string  `json:"document_name"`
	SimilarityScore float64 `json:"similarity_score"`
	TextChunk       string  `json:"text_chunk" validate:"required"`
	PageNumber      int     `json:"page_number" validate:"gte=0"`
}

// flexID accepts document ids sent as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Search runs a semantic search. Results arrive ranked; malformed items are
// skipped and scores are clamped to [0,1].
func (c *Client) Search(ctx context.Context, query driven.RelevanceQuery) ([]domain.ConnectionResult, error) {
	body := searchRequest{
		QueryText:           query.QueryText,
		TopK:                query.TopK,
		SimilarityThreshold: query.SimilarityThreshold,
		DocumentIDs:         encodeDocumentIDs(query.DocumentIDs),
	}

	var resp searchResponse
	if err := c.post(c.http.R().SetContext(ctx), searchPath, body, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.ConnectionResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if err := c.validate.Struct(r); err != nil {
			log.Debug("skipping search result: %v", err)
			continue
		}
		page := r.PageNumber
		if page < 1 {
			page = 1
		}
		results = append(results, domain.ConnectionResult{
			SourceDocumentID: string(r.DocumentID),
			DocumentName:     displayName(r.DocumentName),
			PageNumber:       page,
			TextSnippet:      r.TextChunk,
			RelevanceScore:   domain.ClampScore(r.SimilarityScore),
		})
	}
	return results, nil
}

// encodeDocumentIDs sends numeric ids as numbers, which the service expects.
func encodeDocumentIDs(ids []string) []any {
	if len(ids) == 0 {
		return nil
	}
	out := make([]any, len(ids))
	for i, id := range ids {
		if n, err := strconv.Atoi(id); err == nil {
			out[i] = n
		} else {
			out[i] = id
		}
	}
	return out
}

// displayName strips the "doc_<n>_" storage prefix from file names.
func displayName(name string) string {
	if !strings.HasPrefix(name, "doc_") {
		return name
	}
	parts := strings.SplitN(name, "_", 3)
	if len(parts) == 3 && parts[2] != "" {
		return parts[2]
	}
	return name
}
