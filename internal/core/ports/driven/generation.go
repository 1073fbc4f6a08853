package driven

import "context"

// InsightRequest is the input to insight generation.
type InsightRequest struct {
	// Text is the content of the active context.
	Text string

	// EnrichedContext summarises the current connections, one per line.
	EnrichedContext string
}

// InsightGenerator produces an insight payload for a context.
// The payload is returned raw; parsing belongs to the core.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, req InsightRequest) (string, error)
}

// AudioRequest is the input to audio generation.
type AudioRequest struct {
	Content        string
	RelatedContent string
}

// AudioResponse is the output of audio generation.
// AudioURL is empty when the narration script was produced but synthesis failed.
type AudioResponse struct {
	AudioURL string
	Script   string
	Message  string
}

// AudioGenerator produces an audio summary for a context.
type AudioGenerator interface {
	GenerateAudio(ctx context.Context, req AudioRequest) (AudioResponse, error)
}
