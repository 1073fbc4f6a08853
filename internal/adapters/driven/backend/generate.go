package backend

import (
	"context"
	"fmt"

	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// Ensure Client implements the interfaces.
var (
	_ driven.InsightGenerator = (*Client)(nil)
	_ driven.AudioGenerator   = (*Client)(nil)
)

const (
	insightsPath = "/api/v1/insights/generate"
	podcastPath  = "/api/v1/insights/podcast"
)

const statusError = "error"

type insightsRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type insightsResponse struct {
	Insights string `json:"insights"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

type podcastRequest struct {
	Content        string `json:"content"`
	RelatedContent string `json:"related_content"`
}

type podcastResponse struct {
	Script   string `json:"script"`
	AudioURL string `json:"audio_url"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// GenerateInsights returns the raw insight payload.
func (c *Client) GenerateInsights(ctx context.Context, req driven.InsightRequest) (string, error) {
	var resp insightsResponse
	body := insightsRequest{Text: req.Text, Context: req.EnrichedContext}
	if err := c.post(c.http.R().SetContext(ctx), insightsPath, body, &resp); err != nil {
		return "", err
	}
	if resp.Status == statusError && resp.Insights == "" {
		return "", fmt.Errorf("backend insights: %s", orDefault(resp.Error, "generation failed"))
	}
	return resp.Insights, nil
}

// GenerateAudio returns the narration script and, when synthesis worked, an
// absolute audio URL.
func (c *Client) GenerateAudio(ctx context.Context, req driven.AudioRequest) (driven.AudioResponse, error) {
	var resp podcastResponse
	body := podcastRequest{Content: req.Content, RelatedContent: req.RelatedContent}
	if err := c.post(c.http.R().SetContext(ctx), podcastPath, body, &resp); err != nil {
		return driven.AudioResponse{}, err
	}
	if resp.Status == statusError && resp.Script == "" {
		return driven.AudioResponse{}, fmt.Errorf("backend podcast: %s", orDefault(resp.Error, "generation failed"))
	}

	out := driven.AudioResponse{Script: resp.Script, Message: resp.Message}
	if resp.AudioURL != "" {
		out.AudioURL = c.resolve(resp.AudioURL)
	}
	if out.Message == "" {
		out.Message = resp.Error
	}
	return out, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
