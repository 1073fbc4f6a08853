package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var arbiterLog = logger.Scope("arbiter")

// Search consumers. Each has its own single-flight slot.
const (
	consumerReading   = "reading"
	consumerSelection = "selection"
)

// ContextArbiter decides which context is authoritative.
//
// A selection overrides reading: while a selection is active, reading
// signals still update page tracking but never trigger a search. Every
// arbitration decision bumps a sequence number; search results are applied
// only while their sequence is still current.
type ContextArbiter struct {
	identities *IdentityService
	cache      *ConnectionCache
	search     *ConnectionSearch
	viewer     driven.Viewer
	pages      driven.PageSource
	settings   domain.EngineSettings
	now        func() time.Time

	mu          sync.Mutex
	state       domain.ArbiterState
	current     domain.CanonicalContext
	lastReading domain.ContextSignal
	readingCtx  domain.CanonicalContext
	sequence    uint64
	view        domain.ConnectionsView

	nextListener int
	listeners    map[int]func(domain.ConnectionsView)
	onChange     []func(domain.ContextChange)
}

// NewContextArbiter creates an arbiter. viewer and pages may be nil, in
// which case clearing a selection falls back to the last reading signal.
func NewContextArbiter(
	identities *IdentityService,
	cache *ConnectionCache,
	search *ConnectionSearch,
	viewer driven.Viewer,
	pages driven.PageSource,
	settings domain.EngineSettings,
) *ContextArbiter {
	return &ContextArbiter{
		identities: identities,
		cache:      cache,
		search:     search,
		viewer:     viewer,
		pages:      pages,
		settings:   settings,
		now:        time.Now,
		state:      domain.ArbiterIdle,
		view:       domain.ConnectionsView{State: domain.ConnectionIdle},
		listeners:  make(map[int]func(domain.ConnectionsView)),
	}
}

// State returns the arbiter state.
func (a *ContextArbiter) State() domain.ArbiterState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Current returns the canonical context.
func (a *ContextArbiter) Current() domain.CanonicalContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// LastReading returns the most recent valid reading signal, including
// signals received while a selection was active.
func (a *ContextArbiter) LastReading() domain.ContextSignal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastReading
}

// Snapshot returns the canonical context together with the results found
// for it. Results belonging to an earlier context are not returned.
func (a *ContextArbiter) Snapshot() (domain.CanonicalContext, []domain.ConnectionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view.Context.Sequence != a.current.Sequence {
		return a.current, nil
	}
	return a.current, a.view.Results
}

// View returns the current connections snapshot.
func (a *ContextArbiter) View() domain.ConnectionsView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Subscribe registers fn to receive every published snapshot.
func (a *ContextArbiter) Subscribe(fn func(domain.ConnectionsView)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// OnContextChange registers fn to run synchronously after each transition.
func (a *ContextArbiter) OnContextChange(fn func(domain.ContextChange)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = append(a.onChange, fn)
}

// ObserveReading handles a reading signal and blocks until its search, if
// any, completes. The returned view is the snapshot after the decision.
func (a *ContextArbiter) ObserveReading(ctx context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error) {
	signal.Kind = domain.SignalReading
	if err := signal.Validate(a.settings.MinSignalLength); err != nil {
		arbiterLog.Debug("dropping reading signal: %v", err)
		return a.View(), fmt.Errorf("reading signal: %w", err)
	}
	return a.observeReading(ctx, signal, false)
}

func (a *ContextArbiter) observeReading(
	ctx context.Context,
	signal domain.ContextSignal,
	force bool,
) (domain.ConnectionsView, error) {
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = a.now()
	}
	identity := a.identities.Derive(signal)

	a.mu.Lock()
	a.lastReading = signal
	if a.state == domain.ArbiterSelection && !force {
		view := a.view
		a.mu.Unlock()
		arbiterLog.Debug("selection active, ignoring reading on page %d", signal.PageNumber)
		return view, nil
	}

	if !force && a.isDuplicate(identity) {
		if a.view.State != domain.ConnectionIdle && a.view.State != domain.ConnectionFailed {
			view := a.view
			a.mu.Unlock()
			return view, nil
		}
		// Previous search for this context was dropped or failed; retry it.
		canonical := a.current
		a.view = domain.ConnectionsView{Context: canonical, State: domain.ConnectionLoading}
		view := a.view
		a.mu.Unlock()
		a.publish(view)
		return a.runSearch(ctx, consumerReading, canonical)
	}

	a.state = domain.ArbiterReading
	change := a.activate(signal, identity)
	a.readingCtx = change.Current

	entry, hit := a.cache.Get(identity)
	if hit {
		a.view = domain.ConnectionsView{
			Context: change.Current,
			Results: entry.Results,
			State:   domain.ConnectionCached,
		}
	} else {
		a.view = domain.ConnectionsView{Context: change.Current, State: domain.ConnectionLoading}
	}
	view := a.view
	a.mu.Unlock()

	a.notify(change)
	a.publish(view)
	if hit {
		return view, nil
	}
	return a.runSearch(ctx, consumerReading, change.Current)
}

// isDuplicate reports whether identity matches the current reading context.
// Caller holds mu.
func (a *ContextArbiter) isDuplicate(identity domain.ContentIdentity) bool {
	if a.current.IsZero() || a.current.Kind() != domain.SignalReading {
		return false
	}
	prev := a.current.Identity
	if !prev.Same(identity) {
		return false
	}
	if prev.ContentHash == identity.ContentHash {
		return true
	}
	return identity.IsPageBased() &&
		HashDistance(prev.ContentHash, identity.ContentHash) < a.settings.NearDuplicateThreshold
}

// ObserveSelection handles a selection signal. Selections always supersede
// the current context and are never served from the cache.
func (a *ContextArbiter) ObserveSelection(ctx context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error) {
	signal.Kind = domain.SignalSelection
	if err := signal.Validate(a.settings.MinSignalLength); err != nil {
		arbiterLog.Debug("dropping selection: %v", err)
		return a.View(), fmt.Errorf("selection signal: %w", err)
	}
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = a.now()
	}
	identity := a.identities.Derive(signal)

	a.mu.Lock()
	a.state = domain.ArbiterSelection
	change := a.activate(signal, identity)
	a.view = domain.ConnectionsView{Context: change.Current, State: domain.ConnectionLoading}
	view := a.view
	a.mu.Unlock()

	a.notify(change)
	a.publish(view)
	return a.runSearch(ctx, consumerSelection, change.Current)
}

// ClearSelection ends an active selection and re-detects the reading
// context from the viewer instead of resurrecting older results.
func (a *ContextArbiter) ClearSelection(ctx context.Context) (domain.ConnectionsView, error) {
	a.mu.Lock()
	if a.state != domain.ArbiterSelection {
		view := a.view
		a.mu.Unlock()
		return view, nil
	}
	fallback := a.lastReading
	a.mu.Unlock()

	signal, ok := a.detectReading(ctx, fallback)
	if !ok {
		a.mu.Lock()
		a.state = domain.ArbiterIdle
		a.sequence++
		a.current = domain.CanonicalContext{}
		a.view = domain.ConnectionsView{State: domain.ConnectionIdle}
		view := a.view
		a.mu.Unlock()
		arbiterLog.Debug("selection cleared, no reading context")
		a.publish(view)
		return view, nil
	}

	arbiterLog.Debug("selection cleared, resuming %s page %d", signal.DocumentID, signal.PageNumber)
	return a.observeReading(ctx, signal, true)
}

// detectReading asks the viewer for the visible page and its text. While
// the viewer is loading another document there is no reading context yet;
// the settled page will report one.
func (a *ContextArbiter) detectReading(ctx context.Context, fallback domain.ContextSignal) (domain.ContextSignal, bool) {
	if a.viewer != nil && !a.viewer.Ready() {
		return domain.ContextSignal{}, false
	}
	if a.viewer != nil && a.pages != nil {
		doc := a.viewer.CurrentDocument()
		page, err := a.viewer.CurrentPage(ctx)
		if err == nil && doc != "" {
			text, err := a.pages.PageText(ctx, doc, page)
			if err == nil {
				signal := domain.ContextSignal{
					Kind:       domain.SignalReading,
					RawText:    text,
					DocumentID: doc,
					PageNumber: page,
					CreatedAt:  a.now(),
				}
				if signal.Validate(a.settings.MinSignalLength) == nil {
					return signal, true
				}
			}
		}
		if err != nil {
			arbiterLog.Warn("re-detect reading context: %v", err)
		}
	}
	if fallback.Kind == domain.SignalReading && fallback.Validate(a.settings.MinSignalLength) == nil {
		return fallback, true
	}
	return domain.ContextSignal{}, false
}

// Reset returns to idle and discards any in-flight results.
func (a *ContextArbiter) Reset() {
	a.mu.Lock()
	a.state = domain.ArbiterIdle
	a.sequence++
	a.current = domain.CanonicalContext{}
	a.readingCtx = domain.CanonicalContext{}
	a.lastReading = domain.ContextSignal{}
	a.view = domain.ConnectionsView{State: domain.ConnectionIdle}
	view := a.view
	a.mu.Unlock()
	a.publish(view)
}

// activate makes a new canonical context current. Caller holds mu.
func (a *ContextArbiter) activate(signal domain.ContextSignal, identity domain.ContentIdentity) domain.ContextChange {
	a.sequence++
	next := domain.CanonicalContext{
		Identity:    identity,
		Signal:      signal,
		Sequence:    a.sequence,
		ActivatedAt: a.now(),
	}
	change := domain.ContextChange{
		Previous:    a.current,
		Current:     next,
		Significant: a.isSignificant(next),
	}
	a.current = next
	arbiterLog.Debug("context %d: %s (%s)", next.Sequence, identity.Key(), a.state)
	return change
}

// isSignificant reports whether next is far enough from the previous
// context to invalidate artifacts. Caller holds mu.
func (a *ContextArbiter) isSignificant(next domain.CanonicalContext) bool {
	if a.current.IsZero() {
		return false
	}
	if a.current.Identity.DocumentID != next.Identity.DocumentID {
		return true
	}
	prevPage := a.readingCtx.Signal.PageNumber
	if a.readingCtx.IsZero() || prevPage == 0 || next.Signal.PageNumber == 0 {
		return false
	}
	delta := next.Signal.PageNumber - prevPage
	if delta < 0 {
		delta = -delta
	}
	return delta > a.settings.SignificantPageDelta
}

// runSearch performs the search for canonical and applies the outcome if
// canonical is still current.
func (a *ContextArbiter) runSearch(
	ctx context.Context,
	consumer string,
	canonical domain.CanonicalContext,
) (domain.ConnectionsView, error) {
	generation := a.cache.Generation()
	results, err := a.search.Search(ctx, consumer, canonical.Signal.RawText)

	a.mu.Lock()
	if a.sequence != canonical.Sequence {
		view := a.view
		a.mu.Unlock()
		arbiterLog.Debug("discarding stale results for context %d", canonical.Sequence)
		return view, domain.ErrStaleContext
	}

	switch {
	case errors.Is(err, domain.ErrSearchInFlight):
		a.view = domain.ConnectionsView{
			Context: canonical,
			State:   domain.ConnectionIdle,
			Message: "A search is already running.",
		}
	case err != nil:
		arbiterLog.Warn("%s search failed: %v", consumer, err)
		a.view = domain.ConnectionsView{
			Context: canonical,
			State:   domain.ConnectionFailed,
			Message: "Couldn't search for connections. Try again shortly.",
		}
	case len(results) == 0:
		a.view = domain.ConnectionsView{Context: canonical, Results: results, State: domain.ConnectionEmpty}
	default:
		a.view = domain.ConnectionsView{Context: canonical, Results: results, State: domain.ConnectionReady}
	}
	view := a.view
	a.mu.Unlock()

	if err == nil && consumer == consumerReading {
		a.cache.PutAt(ctx, generation, canonical.Identity, results)
	}
	a.publish(view)
	return view, err
}

func (a *ContextArbiter) publish(view domain.ConnectionsView) {
	a.mu.Lock()
	fns := make([]func(domain.ConnectionsView), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(view)
	}
}

func (a *ContextArbiter) notify(change domain.ContextChange) {
	a.mu.Lock()
	fns := slices.Clone(a.onChange)
	a.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}
