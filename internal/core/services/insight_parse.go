package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// insightCategoryKeys are the JSON keys of the canonical schema.
var insightCategoryKeys = []string{
	"contradictions",
	"supporting_examples",
	"related_concepts",
	"key_takeaways",
	"did_you_know",
}

// ParseInsights decodes a payload in the canonical insight schema.
//
// A single surrounding markdown code fence is tolerated. Anything else,
// including a JSON string that itself encodes the schema, is rejected with
// domain.ErrInsightParse.
func ParseInsights(payload string) (domain.Insights, error) {
	body := stripCodeFence(strings.TrimSpace(payload))
	if !strings.HasPrefix(body, "{") {
		return domain.Insights{}, fmt.Errorf("%w: payload is not a JSON object", domain.ErrInsightParse)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return domain.Insights{}, fmt.Errorf("%w: %w", domain.ErrInsightParse, err)
	}
	known := 0
	for _, k := range insightCategoryKeys {
		if raw, ok := keys[k]; ok {
			if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) && string(bytes.TrimSpace(raw)) != "null" {
				return domain.Insights{}, fmt.Errorf("%w: %s is not a list", domain.ErrInsightParse, k)
			}
			known++
		}
	}
	if known == 0 {
		return domain.Insights{}, fmt.Errorf("%w: no insight categories", domain.ErrInsightParse)
	}

	var insights domain.Insights
	if err := json.Unmarshal([]byte(body), &insights); err != nil {
		return domain.Insights{}, fmt.Errorf("%w: %w", domain.ErrInsightParse, err)
	}
	return insights, nil
}

// DegradedInsights wraps an unparseable payload as a single item so the
// user still sees what the generator produced.
func DegradedInsights(payload string) domain.Insights {
	return domain.Insights{
		SupportingExamples: []domain.InsightItem{{
			Insight:     strings.TrimSpace(payload),
			Source:      "AI Analysis",
			Explanation: "The response could not be structured into categories.",
		}},
	}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	// Drop an optional language tag on the opening line.
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := strings.TrimSpace(inner[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{}[]\"") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

// snippetPreviewLength bounds each related snippet in enriched context.
const snippetPreviewLength = 200

// BuildEnrichedContext renders related results as one line per source:
//
//	From 'doc' (page N): snippet...
func BuildEnrichedContext(results []domain.ConnectionResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		name := r.DocumentName
		if name == "" {
			name = r.SourceDocumentID
		}
		lines = append(lines, fmt.Sprintf("From '%s' (page %d): %s",
			name, r.PageNumber, truncateRunes(r.TextSnippet, snippetPreviewLength)))
	}
	return strings.Join(lines, "\n")
}

// BuildRelatedContent joins the snippet texts for audio generation.
func BuildRelatedContent(results []domain.ConnectionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if s := strings.TrimSpace(r.TextSnippet); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
