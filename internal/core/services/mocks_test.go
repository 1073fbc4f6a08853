package services

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockRelevance implements driven.RelevanceService for testing.
// When block is non-nil calls wait for it to be closed; with blockFirst
// only the first call waits.
type mockRelevance struct {
	mu         sync.Mutex
	results    []domain.ConnectionResult
	err        error
	block      chan struct{}
	blockFirst bool
	started    chan struct{}
	queries    []driven.RelevanceQuery
	calls      atomic.Int32
}

func (m *mockRelevance) Search(ctx context.Context, q driven.RelevanceQuery) ([]domain.ConnectionResult, error) {
	n := m.calls.Add(1)
	m.mu.Lock()
	m.queries = append(m.queries, q)
	block, started := m.block, m.started
	results := append([]domain.ConnectionResult(nil), m.results...)
	err := m.err
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil && (!m.blockFirst || n == 1) {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, err
}

func (m *mockRelevance) setResults(results []domain.ConnectionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

func (m *mockRelevance) lastQuery() driven.RelevanceQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		return driven.RelevanceQuery{}
	}
	return m.queries[len(m.queries)-1]
}

// mockViewer implements driven.Viewer for testing.
type mockViewer struct {
	mu            sync.Mutex
	document      string
	page          int
	selection     string
	ready         bool
	readyAfter    int // Ready returns false this many times first
	readyChecks   int
	navigateOK    []bool // result per attempt; last value repeats
	navigateCalls int
	opened        []string
	openErr       error
	listeners     []func()
}

func (v *mockViewer) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readyChecks++
	if v.readyChecks <= v.readyAfter {
		return false
	}
	return v.ready
}

func (v *mockViewer) CurrentDocument() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.document
}

func (v *mockViewer) CurrentPage(_ context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, nil
}

func (v *mockViewer) OpenDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.openErr != nil {
		return v.openErr
	}
	v.opened = append(v.opened, documentID)
	v.document = documentID
	v.page = 1
	return nil
}

func (v *mockViewer) NavigateToPage(_ context.Context, page int) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ok := true
	if len(v.navigateOK) > 0 {
		idx := min(v.navigateCalls, len(v.navigateOK)-1)
		ok = v.navigateOK[idx]
	}
	v.navigateCalls++
	if ok {
		v.page = page
	}
	return ok, nil
}

func (v *mockViewer) SelectedText(_ context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection, nil
}

func (v *mockViewer) OnSelectionEnd(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
	idx := len(v.listeners) - 1
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.listeners[idx] = nil
	}
}

func (v *mockViewer) endSelection(text string) {
	v.mu.Lock()
	v.selection = text
	fns := slices.Clone(v.listeners)
	v.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

func (v *mockViewer) attempts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.navigateCalls
}

// mockPages implements driven.PageSource for testing.
type mockPages struct {
	pages map[string]map[int]string
}

func (m *mockPages) PageText(_ context.Context, documentID string, page int) (string, error) {
	text, ok := m.pages[documentID][page]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

// mockConfirmer implements driven.Confirmer for testing.
type mockConfirmer struct {
	answer bool
	asked  int
}

func (m *mockConfirmer) Confirm(_ context.Context, _ string) bool {
	m.asked++
	return m.answer
}

// mockInsightGenerator implements driven.InsightGenerator for testing.
type mockInsightGenerator struct {
	payload string
	err     error
	calls   int
	lastReq driven.InsightRequest
}

func (m *mockInsightGenerator) GenerateInsights(_ context.Context, req driven.InsightRequest) (string, error) {
	m.calls++
	m.lastReq = req
	return m.payload, m.err
}

// mockAudioGenerator implements driven.AudioGenerator for testing.
type mockAudioGenerator struct {
	resp  driven.AudioResponse
	err   error
	calls int
}

func (m *mockAudioGenerator) GenerateAudio(_ context.Context, _ driven.AudioRequest) (driven.AudioResponse, error) {
	m.calls++
	return m.resp, m.err
}

// mockConnectionStore implements driven.ConnectionStore for testing.
type mockConnectionStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	saveErr error
}

func newMockConnectionStore() *mockConnectionStore {
	return &mockConnectionStore{entries: make(map[string]domain.CacheEntry)}
}

func (m *mockConnectionStore) Save(_ context.Context, entry domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[entry.Key()] = entry
	return nil
}

func (m *mockConnectionStore) List(_ context.Context) ([]domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CacheEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockConnectionStore) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.DocumentID == documentID {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *mockConnectionStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]domain.CacheEntry)
	return nil
}

// mockTrailStore implements driven.TrailStore for testing.
type mockTrailStore struct {
	entries []domain.BreadcrumbEntry
	saves   int
}

func (m *mockTrailStore) Save(_ context.Context, entries []domain.BreadcrumbEntry) error {
	m.saves++
	m.entries = append([]domain.BreadcrumbEntry(nil), entries...)
	return nil
}

func (m *mockTrailStore) Load(_ context.Context) ([]domain.BreadcrumbEntry, error) {
	return append([]domain.BreadcrumbEntry(nil), m.entries...), nil
}

func (m *mockTrailStore) Clear(_ context.Context) error {
	m.entries = nil
	return nil
}

// --- Helpers ---

func testEngineSettings() domain.EngineSettings {
	return domain.DefaultAppSettings().Engine
}

// testSearchSettings disables pacing so tests do not wait on the limiter.
func testSearchSettings() domain.SearchSettings {
	s := domain.DefaultAppSettings().Search
	s.RequestsPerSecond = 0
	return s
}

func testNavigationSettings() domain.NavigationSettings {
	return domain.NavigationSettings{
		PollInterval:       time.Millisecond,
		ReadyTimeout:       50 * time.Millisecond,
		RetryBackoff:       time.Millisecond,
		MaxRetries:         2,
		CrossDocumentDelay: time.Millisecond,
		SameDocumentDelay:  0,
	}
}

func reading(doc string, page int, text string) domain.ContextSignal {
	return domain.ContextSignal{Kind: domain.SignalReading, DocumentID: doc, PageNumber: page, RawText: text}
}

func selection(doc string, page int, text string) domain.ContextSignal {
	return domain.ContextSignal{Kind: domain.SignalSelection, DocumentID: doc, PageNumber: page, RawText: text}
}

func result(doc string, page int, score float64) domain.ConnectionResult {
	return domain.ConnectionResult{
		SourceDocumentID: doc,
		PageNumber:       page,
		TextSnippet:      "snippet from " + doc,
		RelevanceScore:   score,
	}
}
