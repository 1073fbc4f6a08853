package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// Ensure LLMInsightGenerator implements the interface.
var _ driven.InsightGenerator = (*LLMInsightGenerator)(nil)

// noRelatedContent is sent when there are no connections to enrich with.
const noRelatedContent = "(no related passages found)"

// LLMInsightGenerator generates insights by prompting a local or hosted
// LLM directly instead of going through the backend.
type LLMInsightGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewLLMInsightGenerator creates a generator backed by llm.
func NewLLMInsightGenerator(llm driven.LLMService, prompts driven.PromptStore) *LLMInsightGenerator {
	return &LLMInsightGenerator{llm: llm, prompts: prompts}
}

// GenerateInsights returns the model's raw response.
func (g *LLMInsightGenerator) GenerateInsights(ctx context.Context, req driven.InsightRequest) (string, error) {
	if g.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	system, err := g.prompts.Load(driven.PromptInsightsSystem)
	if err != nil {
		return "", fmt.Errorf("load system prompt: %w", err)
	}
	template, err := g.prompts.Load(driven.PromptInsightsUser)
	if err != nil {
		return "", fmt.Errorf("load user prompt: %w", err)
	}

	related := req.EnrichedContext
	if related == "" {
		related = noRelatedContent
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(template, req.Text, related)},
	}
	resp, err := g.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   2048,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.llm.ModelName(), err)
	}
	return resp, nil
}
