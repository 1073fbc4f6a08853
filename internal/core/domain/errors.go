package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSignal indicates a context signal was too short or had no document.
	// Invalid signals are dropped silently and never cached.
	ErrInvalidSignal = errors.New("invalid context signal")

	// ErrSearchInFlight indicates a search for the same consumer has not finished.
	// The new call is dropped, not queued.
	ErrSearchInFlight = errors.New("search already in flight")

	// ErrSearchUnavailable indicates the relevance service is not configured.
	ErrSearchUnavailable = errors.New("relevance service unavailable")

	// ErrStaleContext indicates a result arrived after its context was superseded.
	ErrStaleContext = errors.New("context superseded")

	// Generation Errors.

	// ErrGenerationInProgress indicates a generation of the same kind is running.
	ErrGenerationInProgress = errors.New("generation in progress")

	// ErrRegenerationDeclined indicates the user declined replacing an existing artifact.
	ErrRegenerationDeclined = errors.New("regeneration declined")

	// ErrNoContext indicates a generation was requested with no active context.
	ErrNoContext = errors.New("no active context")

	// ErrInsightParse indicates a generation payload did not match the insight schema.
	ErrInsightParse = errors.New("insight payload does not match schema")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Direct insight generation is disabled; the backend is used instead.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrBackendUnavailable indicates the generation backend is not configured.
	ErrBackendUnavailable = errors.New("generation backend unavailable")

	// Navigation Errors.

	// ErrViewerNotReady indicates the viewer did not become ready within the wait bound.
	ErrViewerNotReady = errors.New("viewer not ready")

	// ErrNavigationFailed indicates the viewer rejected a navigation after all attempts.
	ErrNavigationFailed = errors.New("navigation failed")
)
