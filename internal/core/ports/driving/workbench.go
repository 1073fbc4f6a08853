package driving

import (
	"context"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// ContextObserver feeds attention signals into the engine.
type ContextObserver interface {
	// Scroll reports a raw scroll position. Scrolls are settled and
	// filtered down to page changes before reaching the arbiter.
	Scroll(documentID string, page int, text string)

	// ObserveReading offers a reading signal for arbitration.
	ObserveReading(ctx context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error)

	// ObserveSelection offers a selection signal; it always takes over.
	ObserveSelection(ctx context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error)

	// ClearSelection leaves selection mode and re-detects the reading context.
	ClearSelection(ctx context.Context) (domain.ConnectionsView, error)
}

// ConnectionFinder exposes the current connections.
type ConnectionFinder interface {
	// Connections returns the latest snapshot.
	Connections() domain.ConnectionsView

	// State returns the arbiter state.
	State() domain.ArbiterState

	// Subscribe registers a listener for snapshot updates.
	Subscribe(fn func(domain.ConnectionsView)) (unsubscribe func())

	// InvalidateDocument drops cached connections for one document.
	InvalidateDocument(ctx context.Context, documentID string) error
}

// ArtifactService runs the on-demand generation pipelines.
type ArtifactService interface {
	// GenerateInsights generates insights for the current context.
	GenerateInsights(ctx context.Context) (*domain.InsightArtifact, error)

	// GenerateAudio generates an audio summary for the current context.
	GenerateAudio(ctx context.Context) (*domain.AudioArtifact, error)

	// Insight returns the current insight artifact, or nil.
	Insight() *domain.InsightArtifact

	// Audio returns the current audio artifact, or nil.
	Audio() *domain.AudioArtifact
}

// NavigationService moves the viewer and records the breadcrumb trail.
type NavigationService interface {
	// OpenConnection navigates to a connection's location.
	// The trail is extended only when the viewer confirms the move.
	OpenConnection(ctx context.Context, result domain.ConnectionResult) (bool, error)

	// Breadcrumbs returns the trail in visit order.
	Breadcrumbs() []domain.BreadcrumbEntry

	// NavigateBreadcrumb jumps back to an entry, truncating later entries.
	NavigateBreadcrumb(ctx context.Context, entryID string) (bool, error)

	// SwitchDocument opens a document manually, clearing cache and trail.
	SwitchDocument(ctx context.Context, documentID string) error
}

// Workbench is the UI-facing façade over the engine.
type Workbench interface {
	ContextObserver
	ConnectionFinder
	ArtifactService
	NavigationService

	// Reset clears cache, trail, artifacts and context.
	Reset(ctx context.Context) error

	// Close releases subscriptions and timers.
	Close() error
}
