package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var artifactLog = logger.Scope("artifacts")

// ArtifactManager generates insight and audio artifacts for the canonical
// context and decides when a context change clears them.
//
// Each kind has one slot and one in-flight generation at a time. A failure
// of one kind never touches the other kind's slot.
type ArtifactManager struct {
	insights  driven.InsightGenerator
	audio     driven.AudioGenerator
	confirmer driven.Confirmer
	window    time.Duration
	now       func() time.Time

	insightGate *semaphore.Weighted
	audioGate   *semaphore.Weighted

	mu      sync.Mutex
	insight *domain.InsightArtifact
	podcast *domain.AudioArtifact
}

// NewArtifactManager creates an artifact manager. Artifacts younger than
// window survive any context change. A nil confirmer declines every
// regeneration.
func NewArtifactManager(
	insights driven.InsightGenerator,
	audio driven.AudioGenerator,
	confirmer driven.Confirmer,
	window time.Duration,
) *ArtifactManager {
	return &ArtifactManager{
		insights:    insights,
		audio:       audio,
		confirmer:   confirmer,
		window:      window,
		now:         time.Now,
		insightGate: semaphore.NewWeighted(1),
		audioGate:   semaphore.NewWeighted(1),
	}
}

// Insight returns the current insight artifact, or nil.
func (m *ArtifactManager) Insight() *domain.InsightArtifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insight
}

// Audio returns the current audio artifact, or nil.
func (m *ArtifactManager) Audio() *domain.AudioArtifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.podcast
}

// GenerateInsights generates insights for canonical using related as
// enriched context. Generation failures are returned as an artifact with
// Err set, not as an error.
func (m *ArtifactManager) GenerateInsights(
	ctx context.Context,
	canonical domain.CanonicalContext,
	related []domain.ConnectionResult,
) (*domain.InsightArtifact, error) {
	if canonical.IsZero() {
		return nil, domain.ErrNoContext
	}
	if !m.insightGate.TryAcquire(1) {
		return m.Insight(), domain.ErrGenerationInProgress
	}
	defer m.insightGate.Release(1)

	existing := m.Insight()
	if existing != nil && !existing.Failed() {
		if !m.confirm(ctx, "Replace the current insights with a new generation?") {
			return existing, domain.ErrRegenerationDeclined
		}
	}

	artifact := &domain.InsightArtifact{ArtifactMeta: domain.ArtifactMeta{
		Context:           canonical,
		SourceContextKind: canonical.Kind(),
	}}

	if m.insights == nil {
		artifact.Err = ClassifyGenerationError(domain.ArtifactInsight, domain.ErrLLMUnavailable)
	} else {
		payload, err := m.insights.GenerateInsights(ctx, driven.InsightRequest{
			Text:            CleanQueryText(canonical.Signal.RawText),
			EnrichedContext: BuildEnrichedContext(related),
		})
		switch {
		case err != nil:
			artifactLog.Warn("insight generation failed: %v", err)
			artifact.Err = ClassifyGenerationError(domain.ArtifactInsight, err)
		default:
			parsed, perr := ParseInsights(payload)
			if perr != nil {
				artifactLog.Debug("degrading insight payload: %v", perr)
				parsed = DegradedInsights(payload)
				artifact.Degraded = true
			}
			artifact.Insights = parsed
		}
	}
	artifact.GeneratedAt = m.now()

	m.mu.Lock()
	m.insight = artifact
	m.mu.Unlock()
	return artifact, nil
}

// GenerateAudio generates an audio summary for canonical.
// A script without audio is reported as a retryable failure that keeps
// the script.
func (m *ArtifactManager) GenerateAudio(
	ctx context.Context,
	canonical domain.CanonicalContext,
	related []domain.ConnectionResult,
) (*domain.AudioArtifact, error) {
	if canonical.IsZero() {
		return nil, domain.ErrNoContext
	}
	if !m.audioGate.TryAcquire(1) {
		return m.Audio(), domain.ErrGenerationInProgress
	}
	defer m.audioGate.Release(1)

	existing := m.Audio()
	if existing != nil && !existing.Failed() {
		if !m.confirm(ctx, "Replace the current audio summary with a new generation?") {
			return existing, domain.ErrRegenerationDeclined
		}
	}

	artifact := &domain.AudioArtifact{ArtifactMeta: domain.ArtifactMeta{
		Context:           canonical,
		SourceContextKind: canonical.Kind(),
	}}

	if m.audio == nil {
		artifact.Err = ClassifyGenerationError(domain.ArtifactAudio, domain.ErrBackendUnavailable)
	} else {
		resp, err := m.audio.GenerateAudio(ctx, driven.AudioRequest{
			Content:        CleanQueryText(canonical.Signal.RawText),
			RelatedContent: BuildRelatedContent(related),
		})
		switch {
		case err != nil:
			artifactLog.Warn("audio generation failed: %v", err)
			artifact.Err = ClassifyGenerationError(domain.ArtifactAudio, err)
		case resp.AudioURL == "":
			msg := resp.Message
			if msg == "" {
				msg = "Audio is unavailable right now. The script is still shown."
			}
			artifact.Script = resp.Script
			artifact.Err = &domain.GenerationError{
				Category: domain.ErrorUnavailable,
				Message:  msg,
				CanRetry: true,
			}
		default:
			artifact.AudioURL = resp.AudioURL
			artifact.Script = resp.Script
		}
	}
	artifact.GeneratedAt = m.now()

	m.mu.Lock()
	m.podcast = artifact
	m.mu.Unlock()
	return artifact, nil
}

// HandleContextChange applies the stability rules to both slots:
// selection-sourced artifacts stay, artifacts younger than the window
// stay, anything else is cleared only on a significant change.
func (m *ArtifactManager) HandleContextChange(change domain.ContextChange) {
	if !change.Significant {
		return
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insight != nil && m.expired(m.insight.ArtifactMeta, now) {
		artifactLog.Debug("clearing insights after context change")
		m.insight = nil
	}
	if m.podcast != nil && m.expired(m.podcast.ArtifactMeta, now) {
		artifactLog.Debug("clearing audio after context change")
		m.podcast = nil
	}
}

func (m *ArtifactManager) expired(meta domain.ArtifactMeta, now time.Time) bool {
	if meta.SourceContextKind == domain.SignalSelection {
		return false
	}
	return meta.Age(now) >= m.window
}

// Clear drops both artifacts.
func (m *ArtifactManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insight = nil
	m.podcast = nil
}

func (m *ArtifactManager) confirm(ctx context.Context, message string) bool {
	if replace, ok := domain.ConfirmationFrom(ctx); ok {
		return replace
	}
	if m.confirmer == nil {
		return false
	}
	return m.confirmer.Confirm(ctx, message)
}

// ClassifyGenerationError maps a generator failure to a user-facing error.
func ClassifyGenerationError(kind domain.ArtifactKind, err error) *domain.GenerationError {
	if err == nil {
		return nil
	}
	var existing *domain.GenerationError
	if errors.As(err, &existing) {
		return existing
	}

	what := "insights"
	if kind == domain.ArtifactAudio {
		what = "an audio summary"
	}
	if errors.Is(err, domain.ErrLLMUnavailable) || errors.Is(err, domain.ErrBackendUnavailable) {
		return &domain.GenerationError{
			Category: domain.ErrorUnavailable,
			Message:  "Generating " + what + " is not configured.",
			CanRetry: false,
			Cause:    err,
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "503", "service unavailable", "overloaded"):
		return &domain.GenerationError{
			Category: domain.ErrorBusy,
			Message:  "The AI service is busy. Please try again in a moment.",
			CanRetry: true,
			Cause:    err,
		}
	case containsAny(msg, "429", "rate limit", "too many requests"):
		return &domain.GenerationError{
			Category: domain.ErrorBusy,
			Message:  "Too many requests. Please wait a moment and try again.",
			CanRetry: true,
			Cause:    err,
		}
	case errors.Is(err, context.DeadlineExceeded),
		containsAny(msg, "timeout", "deadline exceeded", "connection refused", "no such host", "network"):
		return &domain.GenerationError{
			Category: domain.ErrorNetwork,
			Message:  "Couldn't reach the AI service. Check your connection and try again.",
			CanRetry: true,
			Cause:    err,
		}
	}

	return &domain.GenerationError{
		Category: domain.ErrorUnavailable,
		Message:  "Unable to generate " + what + " right now.",
		CanRetry: true,
		Cause:    err,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
