package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

// Ensure Workbench implements the interface.
var _ driving.Workbench = (*Workbench)(nil)

var workbenchLog = logger.Scope("workbench")

// WorkbenchConfig holds the dependencies of a Workbench.
// Only Settings and Relevance are required.
type WorkbenchConfig struct {
	Settings        domain.AppSettings
	Relevance       driven.RelevanceService
	Insights        driven.InsightGenerator
	Audio           driven.AudioGenerator
	Viewer          driven.Viewer
	Pages           driven.PageSource
	Confirmer       driven.Confirmer
	ConnectionStore driven.ConnectionStore
	TrailStore      driven.TrailStore
}

// Workbench wires the engine components behind the driving ports.
type Workbench struct {
	viewer    driven.Viewer
	cache     *ConnectionCache
	arbiter   *ContextArbiter
	artifacts *ArtifactManager
	navigator *Navigator
	trail     *BreadcrumbTrail
	tracker   *PageTracker

	mu          sync.Mutex
	baseCtx     context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// NewWorkbench builds the engine from cfg.
func NewWorkbench(cfg WorkbenchConfig) (*Workbench, error) {
	if cfg.Relevance == nil {
		return nil, fmt.Errorf("%w: relevance service is required", domain.ErrInvalidInput)
	}
	s := cfg.Settings

	cache, err := NewConnectionCache(s.Engine.CacheSize, s.Engine.NearDuplicateThreshold, cfg.ConnectionStore)
	if err != nil {
		return nil, err
	}
	search := NewConnectionSearch(cfg.Relevance, s.Search)
	arbiter := NewContextArbiter(NewIdentityService(), cache, search, cfg.Viewer, cfg.Pages, s.Engine)
	artifacts := NewArtifactManager(cfg.Insights, cfg.Audio, cfg.Confirmer, s.Engine.StabilityWindow)
	arbiter.OnContextChange(artifacts.HandleContextChange)
	navigator := NewNavigator(cfg.Viewer, s.Navigation)

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workbench{
		viewer:    cfg.Viewer,
		cache:     cache,
		arbiter:   arbiter,
		artifacts: artifacts,
		navigator: navigator,
		trail:     NewBreadcrumbTrail(navigator, cfg.TrailStore),
		baseCtx:   ctx,
		cancel:    cancel,
	}
	w.tracker = NewPageTracker(s.Engine.ScrollDebounce, w.onPageSettled)
	return w, nil
}

// Start restores persisted state and subscribes to viewer selections.
func (w *Workbench) Start(ctx context.Context) error {
	if err := w.cache.Warm(ctx); err != nil {
		workbenchLog.Warn("warm cache: %v", err)
	}
	if err := w.trail.Restore(ctx); err != nil {
		workbenchLog.Warn("restore trail: %v", err)
	}
	if w.viewer != nil {
		unsubscribe := w.viewer.OnSelectionEnd(w.onSelectionEnd)
		w.mu.Lock()
		w.unsubscribe = unsubscribe
		w.mu.Unlock()
	}
	return nil
}

// Scroll implements driving.ContextObserver.
func (w *Workbench) Scroll(documentID string, page int, text string) {
	w.tracker.Scroll(documentID, page, text)
}

// ObserveReading implements driving.ContextObserver.
func (w *Workbench) ObserveReading(ctx context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error) {
	return w.arbiter.ObserveReading(ctx, signal)
}

// ObserveSelection implements driving.ContextObserver.
func (w *Workbench) ObserveSelection(ctx context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error) {
	return w.arbiter.ObserveSelection(ctx, signal)
}

// ClearSelection implements driving.ContextObserver.
func (w *Workbench) ClearSelection(ctx context.Context) (domain.ConnectionsView, error) {
	return w.arbiter.ClearSelection(ctx)
}

// Connections implements driving.ConnectionFinder.
func (w *Workbench) Connections() domain.ConnectionsView {
	return w.arbiter.View()
}

// State implements driving.ConnectionFinder.
func (w *Workbench) State() domain.ArbiterState {
	return w.arbiter.State()
}

// Subscribe implements driving.ConnectionFinder.
func (w *Workbench) Subscribe(fn func(domain.ConnectionsView)) func() {
	return w.arbiter.Subscribe(fn)
}

// InvalidateDocument implements driving.ConnectionFinder.
func (w *Workbench) InvalidateDocument(ctx context.Context, documentID string) error {
	return w.cache.Invalidate(ctx, documentID)
}

// GenerateInsights implements driving.ArtifactService.
func (w *Workbench) GenerateInsights(ctx context.Context) (*domain.InsightArtifact, error) {
	current, results := w.arbiter.Snapshot()
	return w.artifacts.GenerateInsights(ctx, current, results)
}

// GenerateAudio implements driving.ArtifactService.
func (w *Workbench) GenerateAudio(ctx context.Context) (*domain.AudioArtifact, error) {
	current, results := w.arbiter.Snapshot()
	return w.artifacts.GenerateAudio(ctx, current, results)
}

// Insight implements driving.ArtifactService.
func (w *Workbench) Insight() *domain.InsightArtifact {
	return w.artifacts.Insight()
}

// Audio implements driving.ArtifactService.
func (w *Workbench) Audio() *domain.AudioArtifact {
	return w.artifacts.Audio()
}

// OpenConnection implements driving.NavigationService.
func (w *Workbench) OpenConnection(ctx context.Context, result domain.ConnectionResult) (bool, error) {
	if w.viewer == nil {
		return false, domain.ErrViewerNotReady
	}

	origin, hasOrigin := w.origin(ctx)
	moved, err := w.navigator.Navigate(ctx, domain.Location{
		DocumentID: result.SourceDocumentID,
		PageNumber: result.PageNumber,
	})
	if !moved {
		return false, err
	}

	if hasOrigin && w.trail.Len() == 0 {
		w.trail.Append(ctx, origin.DocumentID, origin.PageNumber, w.arbiter.Current().Signal.RawText)
	}
	w.trail.Append(ctx, result.SourceDocumentID, result.PageNumber, result.TextSnippet)
	return true, nil
}

func (w *Workbench) origin(ctx context.Context) (domain.Location, bool) {
	doc := w.viewer.CurrentDocument()
	if doc == "" {
		return domain.Location{}, false
	}
	page, err := w.viewer.CurrentPage(ctx)
	if err != nil || page < 1 {
		return domain.Location{}, false
	}
	return domain.Location{DocumentID: doc, PageNumber: page}, true
}

// Breadcrumbs implements driving.NavigationService.
func (w *Workbench) Breadcrumbs() []domain.BreadcrumbEntry {
	return w.trail.Entries()
}

// NavigateBreadcrumb implements driving.NavigationService.
func (w *Workbench) NavigateBreadcrumb(ctx context.Context, entryID string) (bool, error) {
	return w.trail.NavigateTo(ctx, entryID)
}

// SwitchDocument implements driving.NavigationService.
// A manual switch starts a fresh exploration: cache and trail are cleared.
func (w *Workbench) SwitchDocument(ctx context.Context, documentID string) error {
	if err := w.clearState(ctx); err != nil {
		return err
	}
	if w.viewer == nil {
		return nil
	}
	if err := w.viewer.OpenDocument(ctx, documentID); err != nil {
		return fmt.Errorf("open %s: %w", documentID, err)
	}
	return nil
}

// Reset implements driving.Workbench.
func (w *Workbench) Reset(ctx context.Context) error {
	if err := w.clearState(ctx); err != nil {
		return err
	}
	w.artifacts.Clear()
	return nil
}

func (w *Workbench) clearState(ctx context.Context) error {
	w.tracker.Reset()
	w.arbiter.Reset()
	return errors.Join(w.cache.Clear(ctx), w.trail.Clear(ctx))
}

// Close implements driving.Workbench.
func (w *Workbench) Close() error {
	w.mu.Lock()
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	w.tracker.Close()
	w.cancel()
	return nil
}

func (w *Workbench) onPageSettled(signal domain.ContextSignal) {
	if _, err := w.arbiter.ObserveReading(w.baseCtx, signal); err != nil && !isQuietError(err) {
		workbenchLog.Warn("page %d: %v", signal.PageNumber, err)
		// Let the next scroll of this page retry the search.
		w.tracker.Reset()
	}
}

func (w *Workbench) onSelectionEnd() {
	ctx := w.baseCtx
	text, err := w.viewer.SelectedText(ctx)
	if err != nil {
		workbenchLog.Warn("read selection: %v", err)
		return
	}
	if text == "" {
		if _, err := w.arbiter.ClearSelection(ctx); err != nil && !isQuietError(err) {
			workbenchLog.Warn("clear selection: %v", err)
		}
		return
	}

	page, err := w.viewer.CurrentPage(ctx)
	if err != nil {
		page = 0
	}
	_, err = w.arbiter.ObserveSelection(ctx, domain.ContextSignal{
		Kind:       domain.SignalSelection,
		RawText:    text,
		DocumentID: w.viewer.CurrentDocument(),
		PageNumber: page,
	})
	if err != nil && !isQuietError(err) {
		workbenchLog.Warn("selection: %v", err)
	}
}

// isQuietError reports errors that are expected during normal reading.
func isQuietError(err error) bool {
	return errors.Is(err, domain.ErrInvalidSignal) ||
		errors.Is(err, domain.ErrStaleContext) ||
		errors.Is(err, domain.ErrSearchInFlight) ||
		errors.Is(err, context.Canceled)
}
