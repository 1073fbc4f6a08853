package domain

import (
	"context"
	"fmt"
	"time"
)

// ArtifactKind identifies a generated artifact.
type ArtifactKind string

// Available artifact kinds.
const (
	ArtifactInsight ArtifactKind = "insight"
	ArtifactAudio   ArtifactKind = "audio"
)

// InsightItem is one generated insight with its attribution.
type InsightItem struct {
	Insight     string `json:"insight"`
	Source      string `json:"source"`
	Explanation string `json:"explanation"`
}

// Insights is the canonical insight payload schema.
type Insights struct {
	Contradictions     []InsightItem `json:"contradictions"`
	SupportingExamples []InsightItem `json:"supporting_examples"`
	RelatedConcepts    []InsightItem `json:"related_concepts"`
	KeyTakeaways       []InsightItem `json:"key_takeaways"`
	DidYouKnow         []InsightItem `json:"did_you_know"`
}

// Count returns the total number of items across categories.
func (i Insights) Count() int {
	return len(i.Contradictions) + len(i.SupportingExamples) + len(i.RelatedConcepts) +
		len(i.KeyTakeaways) + len(i.DidYouKnow)
}

// Categories returns the categories in display order with their labels.
func (i Insights) Categories() []InsightCategory {
	return []InsightCategory{
		{Label: "Contradictions", Items: i.Contradictions},
		{Label: "Supporting examples", Items: i.SupportingExamples},
		{Label: "Related concepts", Items: i.RelatedConcepts},
		{Label: "Key takeaways", Items: i.KeyTakeaways},
		{Label: "Did you know", Items: i.DidYouKnow},
	}
}

// InsightCategory is a labelled group of insights.
type InsightCategory struct {
	Label string
	Items []InsightItem
}

// ErrorCategory classifies a generation failure for the user.
type ErrorCategory string

// Available error categories.
const (
	// ErrorBusy means the service is temporarily overloaded or rate limited.
	ErrorBusy ErrorCategory = "busy"

	// ErrorNetwork means the service could not be reached in time.
	ErrorNetwork ErrorCategory = "network"

	// ErrorUnavailable means the service refused or is not configured.
	ErrorUnavailable ErrorCategory = "unavailable"
)

// GenerationError is the user-facing form of a generation failure.
type GenerationError struct {
	Category ErrorCategory
	Message  string
	CanRetry bool
	Cause    error
}

// Error implements error.
func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// ArtifactMeta carries the fields the stability rules look at.
type ArtifactMeta struct {
	// Context is the canonical context the artifact was generated for.
	Context CanonicalContext

	// SourceContextKind is the kind of that context.
	SourceContextKind SignalKind

	// GeneratedAt is when generation completed.
	GeneratedAt time.Time
}

// Age returns how long ago the artifact was generated.
func (m ArtifactMeta) Age(now time.Time) time.Duration {
	return now.Sub(m.GeneratedAt)
}

// InsightArtifact is a generated insight set, or the error that replaced it.
type InsightArtifact struct {
	ArtifactMeta

	// Insights holds the parsed payload.
	Insights Insights

	// Degraded is true when the payload failed to parse and Insights
	// holds the raw payload as a single item.
	Degraded bool

	// Err is set when generation failed.
	Err *GenerationError
}

// Failed reports whether the artifact is an error artifact.
func (a *InsightArtifact) Failed() bool {
	return a != nil && a.Err != nil
}

// AudioArtifact is a generated audio summary, or the error that replaced it.
type AudioArtifact struct {
	ArtifactMeta

	// AudioURL locates the synthesised audio.
	AudioURL string

	// Script is the narration text, kept even when audio synthesis failed.
	Script string

	// Err is set when generation failed.
	Err *GenerationError
}

// Failed reports whether the artifact is an error artifact.
func (a *AudioArtifact) Failed() bool {
	return a != nil && a.Err != nil
}

type confirmationKey struct{}

// WithConfirmation answers any regeneration prompt raised while handling ctx.
// Callers that cannot ask interactively use it to state intent up front.
func WithConfirmation(ctx context.Context, replace bool) context.Context {
	return context.WithValue(ctx, confirmationKey{}, replace)
}

// ConfirmationFrom returns the answer stored by WithConfirmation.
func ConfirmationFrom(ctx context.Context) (replace, ok bool) {
	replace, ok = ctx.Value(confirmationKey{}).(bool)
	return replace, ok
}
