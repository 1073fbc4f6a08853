package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

const canonicalInsights = `{
  "contradictions": [{"insight": "A disagrees with B", "source": "doc2 p3", "explanation": "different dates"}],
  "supporting_examples": [],
  "related_concepts": [{"insight": "Deltas", "source": "doc4 p1", "explanation": "same process"}],
  "key_takeaways": [{"insight": "Sediment matters", "source": "doc1 p1", "explanation": "core claim"}],
  "did_you_know": []
}`

func TestParseInsights_Canonical(t *testing.T) {
	insights, err := ParseInsights(canonicalInsights)

	require.NoError(t, err)
	assert.Equal(t, 3, insights.Count())
	assert.Equal(t, "A disagrees with B", insights.Contradictions[0].Insight)
	assert.Equal(t, "doc4 p1", insights.RelatedConcepts[0].Source)
}

func TestParseInsights_CodeFence(t *testing.T) {
	for _, payload := range []string{
		"```json\n" + canonicalInsights + "\n```",
		"```\n" + canonicalInsights + "\n```",
	} {
		insights, err := ParseInsights(payload)
		require.NoError(t, err)
		assert.Equal(t, 3, insights.Count())
	}
}

func TestParseInsights_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"prose", "Here are some insights about your text."},
		{"string-encoded payload", `"{\"contradictions\": []}"`},
		{"wrapped payload", `{"insights": {"contradictions": []}}`},
		{"category is not a list", `{"contradictions": "none"}`},
		{"item has wrong shape", `{"key_takeaways": [1, 2]}`},
		{"truncated", `{"key_takeaways": [{"insight": "x"`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInsights(tt.payload)
			assert.ErrorIs(t, err, domain.ErrInsightParse)
		})
	}
}

func TestParseInsights_PartialCategories(t *testing.T) {
	insights, err := ParseInsights(`{"key_takeaways": [{"insight": "only this"}]}`)

	require.NoError(t, err)
	assert.Equal(t, 1, insights.Count())
}

func TestDegradedInsights(t *testing.T) {
	insights := DegradedInsights("  free text response  ")

	require.Len(t, insights.SupportingExamples, 1)
	assert.Equal(t, "free text response", insights.SupportingExamples[0].Insight)
	assert.Equal(t, 1, insights.Count())
}

func TestBuildEnrichedContext(t *testing.T) {
	results := []domain.ConnectionResult{
		{SourceDocumentID: "geo", DocumentName: "Geology.pdf", PageNumber: 4, TextSnippet: "Rivers carry sediment."},
		{SourceDocumentID: "hydro", PageNumber: 9, TextSnippet: strings.Repeat("x", 250)},
	}

	got := BuildEnrichedContext(results)
	lines := strings.Split(got, "\n")

	require.Len(t, lines, 2)
	assert.Equal(t, "From 'Geology.pdf' (page 4): Rivers carry sediment.", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "From 'hydro' (page 9): "))
	assert.True(t, strings.HasSuffix(lines[1], strings.Repeat("x", 200)+"..."))
}

func TestBuildRelatedContent(t *testing.T) {
	got := BuildRelatedContent([]domain.ConnectionResult{
		{TextSnippet: "first"}, {TextSnippet: "  "}, {TextSnippet: "second"},
	})

	assert.Equal(t, "first second", got)
}
