package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

const (
	pageOne   = "the first page talks about river deltas"
	pageTwo   = "the second page covers sediment transport"
	pageFive  = "page five is about coastal erosion rates"
	someQuote = "a carefully selected passage about floods"
)

func newTestArbiter(t *testing.T, rel *mockRelevance, viewer driven.Viewer, pages driven.PageSource) *ContextArbiter {
	t.Helper()
	cache, err := NewConnectionCache(16, 1000, nil)
	require.NoError(t, err)
	search := NewConnectionSearch(rel, testSearchSettings())
	return NewContextArbiter(NewIdentityService(), cache, search, viewer, pages, testEngineSettings())
}

type viewRecorder struct {
	mu    sync.Mutex
	views []domain.ConnectionsView
}

func (r *viewRecorder) record(v domain.ConnectionsView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *viewRecorder) states() []domain.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ConnectionState, len(r.views))
	for i, v := range r.views {
		out[i] = v.State
	}
	return out
}

func TestContextArbiter_ReadingSearch(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.95, 0.9, 0.85)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	rec := &viewRecorder{}
	arbiter.Subscribe(rec.record)

	view, err := arbiter.ObserveReading(context.Background(), reading("doc1", 1, pageOne))

	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionReady, view.State)
	assert.Len(t, view.Results, 3)
	assert.Equal(t, domain.ArbiterReading, arbiter.State())
	assert.Equal(t, "page_1", arbiter.Current().Identity.Identifier)
	assert.Equal(t, []domain.ConnectionState{domain.ConnectionLoading, domain.ConnectionReady}, rec.states())
}

func TestContextArbiter_InvalidSignalDropped(t *testing.T) {
	rel := &mockRelevance{}
	arbiter := newTestArbiter(t, rel, nil, nil)

	_, err := arbiter.ObserveReading(context.Background(), reading("doc1", 1, "too short"))
	assert.ErrorIs(t, err, domain.ErrInvalidSignal)

	_, err = arbiter.ObserveSelection(context.Background(), selection("", 1, someQuote))
	assert.ErrorIs(t, err, domain.ErrInvalidSignal)

	assert.Equal(t, int32(0), rel.calls.Load())
	assert.Equal(t, domain.ArbiterIdle, arbiter.State())
}

func TestContextArbiter_DuplicateProcessedOnce(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.5)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)
	view, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)

	assert.Equal(t, int32(1), rel.calls.Load())
	assert.Equal(t, domain.ConnectionReady, view.State)
}

func TestContextArbiter_DuplicateWhileInFlight(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.5), block: make(chan struct{}), started: make(chan struct{}, 2)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	}()
	<-rel.started

	view, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionLoading, view.State)

	close(rel.block)
	<-done
	assert.Equal(t, int32(1), rel.calls.Load())
	assert.Equal(t, domain.ConnectionReady, arbiter.View().State)
}

func TestContextArbiter_CacheHit(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.7)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 2, pageTwo))
	view, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))

	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionCached, view.State)
	assert.Len(t, view.Results, 1)
	assert.Equal(t, int32(2), rel.calls.Load())
}

func TestContextArbiter_EmptyAndFailedAreDistinct(t *testing.T) {
	ctx := context.Background()

	empty := newTestArbiter(t, &mockRelevance{}, nil, nil)
	view, err := empty.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionEmpty, view.State)
	assert.Empty(t, view.Message)

	failed := newTestArbiter(t, &mockRelevance{err: errors.New("503 service unavailable")}, nil, nil)
	view, err = failed.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.Error(t, err)
	assert.Equal(t, domain.ConnectionFailed, view.State)
	assert.NotEmpty(t, view.Message)
}

func TestContextArbiter_FailureIsNotCached(t *testing.T) {
	rel := &mockRelevance{err: errors.New("connection refused")}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 2, pageTwo))

	rel.mu.Lock()
	rel.err = nil
	rel.mu.Unlock()
	rel.setResults(ranked(0.6))

	view, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionReady, view.State)
	assert.Equal(t, int32(3), rel.calls.Load())
}

func TestContextArbiter_FailedSearchRetriedOnSamePage(t *testing.T) {
	rel := &mockRelevance{err: errors.New("connection refused")}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	view, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.Error(t, err)
	assert.Equal(t, domain.ConnectionFailed, view.State)

	rel.mu.Lock()
	rel.err = nil
	rel.mu.Unlock()
	rel.setResults(ranked(0.6))

	view, err = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionReady, view.State)
	assert.Equal(t, int32(2), rel.calls.Load())

	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	assert.Equal(t, int32(2), rel.calls.Load(), "ready context is not searched again")
}

func TestContextArbiter_SelectionOverridesReading(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, err := arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))
	require.NoError(t, err)
	require.Equal(t, domain.ArbiterSelection, arbiter.State())

	for page := 2; page < 6; page++ {
		view, err := arbiter.ObserveReading(ctx, reading("doc1", page, pageTwo+" variant"))
		require.NoError(t, err)
		assert.Equal(t, domain.SignalSelection, view.Context.Kind())
	}

	assert.Equal(t, int32(1), rel.calls.Load())
	assert.Equal(t, domain.SignalSelection, arbiter.Current().Kind())
	assert.Equal(t, 5, arbiter.LastReading().PageNumber)
}

func TestContextArbiter_SelectionNeverCached(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, _ = arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))
	view, err := arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))

	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionReady, view.State)
	assert.Equal(t, int32(2), rel.calls.Load())
}

func TestContextArbiter_ClearSelectionRedetects(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9)}
	viewer := &mockViewer{document: "doc1", page: 5, ready: true}
	pages := &mockPages{pages: map[string]map[int]string{"doc1": {5: pageFive}}}
	arbiter := newTestArbiter(t, rel, viewer, pages)
	ctx := context.Background()

	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	_, _ = arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))

	view, err := arbiter.ClearSelection(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.ArbiterReading, arbiter.State())
	assert.Equal(t, 5, view.Context.Signal.PageNumber)
	assert.Equal(t, pageFive, view.Context.Signal.RawText)
	assert.Equal(t, int32(3), rel.calls.Load())
}

func TestContextArbiter_ClearSelectionFallsBackToLastReading(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, _ = arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 2, pageTwo))

	view, err := arbiter.ClearSelection(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.ArbiterReading, arbiter.State())
	assert.Equal(t, 2, view.Context.Signal.PageNumber)
}

func TestContextArbiter_ClearSelectionWhileViewerLoading(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9)}
	viewer := &mockViewer{document: "doc2", page: 1, ready: false}
	pages := &mockPages{pages: map[string]map[int]string{"doc2": {1: pageFive}}}
	arbiter := newTestArbiter(t, rel, viewer, pages)
	ctx := context.Background()

	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	_, _ = arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))

	view, err := arbiter.ClearSelection(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.ArbiterIdle, arbiter.State())
	assert.Equal(t, domain.ConnectionIdle, view.State)
	assert.Equal(t, int32(2), rel.calls.Load(), "no search for the document being left")
}

func TestContextArbiter_ClearSelectionWithoutReading(t *testing.T) {
	arbiter := newTestArbiter(t, &mockRelevance{}, nil, nil)
	ctx := context.Background()

	_, _ = arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))
	view, err := arbiter.ClearSelection(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.ArbiterIdle, arbiter.State())
	assert.Equal(t, domain.ConnectionIdle, view.State)
	assert.True(t, arbiter.Current().IsZero())
}

func TestContextArbiter_ClearSelectionNoop(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))

	view, err := arbiter.ClearSelection(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionReady, view.State)
	assert.Equal(t, int32(1), rel.calls.Load())
}

func TestContextArbiter_StaleResultsDiscarded(t *testing.T) {
	rel := &mockRelevance{
		results:    ranked(0.9),
		block:      make(chan struct{}),
		blockFirst: true,
		started:    make(chan struct{}, 4),
	}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	var staleErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, staleErr = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	}()
	<-rel.started

	view, err := arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))
	<-rel.started
	require.NoError(t, err)
	selected := view.Context.Sequence

	close(rel.block)
	<-done

	assert.ErrorIs(t, staleErr, domain.ErrStaleContext)
	assert.Equal(t, selected, arbiter.View().Context.Sequence)
	assert.Equal(t, domain.SignalSelection, arbiter.View().Context.Kind())
}

func TestContextArbiter_ResetDropsInFlightResults(t *testing.T) {
	rel := &mockRelevance{
		results: ranked(0.9),
		block:   make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	var searchErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, searchErr = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	}()
	<-rel.started

	arbiter.Reset()
	require.NoError(t, arbiter.cache.Clear(ctx))
	close(rel.block)
	<-done

	assert.ErrorIs(t, searchErr, domain.ErrStaleContext)
	assert.Equal(t, 0, arbiter.cache.Len())
	assert.Equal(t, domain.ConnectionIdle, arbiter.View().State)
}

func TestContextArbiter_InvalidatedResultsNotCached(t *testing.T) {
	rel := &mockRelevance{
		results: ranked(0.9),
		block:   make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	}()
	<-rel.started

	require.NoError(t, arbiter.cache.Invalidate(ctx, "doc1"))
	close(rel.block)
	<-done

	assert.Equal(t, domain.ConnectionReady, arbiter.View().State)
	assert.Equal(t, 0, arbiter.cache.Len())
}

func TestContextArbiter_SnapshotPairsContextWithItsResults(t *testing.T) {
	rel := &mockRelevance{results: ranked(0.9, 0.8), started: make(chan struct{}, 4)}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	_, err := arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	require.NoError(t, err)
	<-rel.started
	current, results := arbiter.Snapshot()
	assert.Equal(t, 1, current.Signal.PageNumber)
	assert.NotEmpty(t, results)

	block := make(chan struct{})
	rel.mu.Lock()
	rel.block = block
	rel.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = arbiter.ObserveSelection(ctx, selection("doc1", 1, someQuote))
	}()
	<-rel.started

	current, results = arbiter.Snapshot()
	assert.Equal(t, domain.SignalSelection, current.Kind())
	assert.Empty(t, results)

	close(block)
	<-done
	current, results = arbiter.Snapshot()
	assert.Equal(t, someQuote, current.Signal.RawText)
	assert.Equal(t, arbiter.View().Results, results)
}

func TestContextArbiter_RejectedSearchRetriesOnRepeat(t *testing.T) {
	rel := &mockRelevance{
		results:    ranked(0.9),
		block:      make(chan struct{}),
		blockFirst: true,
		started:    make(chan struct{}, 4),
	}
	arbiter := newTestArbiter(t, rel, nil, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	}()
	<-rel.started

	view, err := arbiter.ObserveReading(ctx, reading("doc1", 2, pageTwo))
	assert.ErrorIs(t, err, domain.ErrSearchInFlight)
	assert.Equal(t, domain.ConnectionIdle, view.State)
	assert.Equal(t, 2, view.Context.Signal.PageNumber)

	close(rel.block)
	<-done

	view, err = arbiter.ObserveReading(ctx, reading("doc1", 2, pageTwo))
	<-rel.started
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionReady, view.State)
	assert.Equal(t, 2, view.Context.Signal.PageNumber)
}

func TestContextArbiter_SignificantChange(t *testing.T) {
	arbiter := newTestArbiter(t, &mockRelevance{}, nil, nil)
	ctx := context.Background()

	var changes []domain.ContextChange
	arbiter.OnContextChange(func(c domain.ContextChange) { changes = append(changes, c) })

	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 3, pageTwo))
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 6, pageFive))
	_, _ = arbiter.ObserveReading(ctx, reading("doc2", 6, pageFive))

	require.Len(t, changes, 4)
	assert.False(t, changes[0].Significant, "first context")
	assert.False(t, changes[1].Significant, "two pages forward")
	assert.True(t, changes[2].Significant, "three pages forward")
	assert.True(t, changes[3].Significant, "document changed")
	assert.Equal(t, changes[2].Current.Sequence, changes[3].Previous.Sequence)
}

func TestContextArbiter_Reset(t *testing.T) {
	arbiter := newTestArbiter(t, &mockRelevance{results: ranked(0.9)}, nil, nil)
	ctx := context.Background()
	_, _ = arbiter.ObserveReading(ctx, reading("doc1", 1, pageOne))

	arbiter.Reset()

	assert.Equal(t, domain.ArbiterIdle, arbiter.State())
	assert.Equal(t, domain.ConnectionIdle, arbiter.View().State)
	assert.True(t, arbiter.Current().IsZero())
}

func TestContextArbiter_Unsubscribe(t *testing.T) {
	arbiter := newTestArbiter(t, &mockRelevance{}, nil, nil)
	rec := &viewRecorder{}
	unsubscribe := arbiter.Subscribe(rec.record)
	unsubscribe()

	_, _ = arbiter.ObserveReading(context.Background(), reading("doc1", 1, pageOne))

	assert.Empty(t, rec.states())
}
