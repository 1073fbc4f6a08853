package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
	"github.com/custodia-labs/synapse-reader/internal/core/services"
)

// mockCatalog implements driving.DocumentCatalog.
type mockCatalog struct {
	docs  []domain.Document
	pages map[string][]string
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		docs: []domain.Document{
			{ID: "paper-a", Name: "Neural Plasticity", Pages: 2},
			{ID: "paper-b", Name: "Sleep and Memory", Pages: 1},
		},
		pages: map[string][]string{
			"paper-a": {"Neural plasticity in adults.", "Synaptic pruning during sleep."},
			"paper-b": {"Memory consolidation overnight."},
		},
	}
}

func (m *mockCatalog) Documents() []domain.Document { return m.docs }

func (m *mockCatalog) PageText(_ context.Context, documentID string, page int) (string, error) {
	pages, ok := m.pages[documentID]
	if !ok || page < 1 || page > len(pages) {
		return "", fmt.Errorf("%s page %d: %w", documentID, page, domain.ErrNotFound)
	}
	return pages[page-1], nil
}

// mockReader implements driving.Reader over a mockCatalog.
type mockReader struct {
	catalog  *mockCatalog
	document string
	page     int
	notReady bool
}

func (m *mockReader) Ready() bool { return !m.notReady }

func (m *mockReader) CurrentDocument() string { return m.document }

func (m *mockReader) OpenDocument(_ context.Context, documentID string) error {
	if _, ok := m.catalog.pages[documentID]; !ok {
		return fmt.Errorf("document %q: %w", documentID, domain.ErrNotFound)
	}
	m.document = documentID
	m.page = 1
	return nil
}

func (m *mockReader) CurrentPage(context.Context) (int, error) { return m.page, nil }

func (m *mockReader) NavigateToPage(_ context.Context, page int) (bool, error) {
	if page < 1 || page > len(m.catalog.pages[m.document]) {
		return false, nil
	}
	m.page = page
	return true, nil
}

func (m *mockReader) Select(string) {}

func (m *mockReader) Deselect() {}

// mockWorkbench implements driving.Workbench.
type mockWorkbench struct {
	mu          sync.Mutex
	view        domain.ConnectionsView
	signals     []domain.ContextSignal
	trail       []domain.BreadcrumbEntry
	insight     *domain.InsightArtifact
	audio       *domain.AudioArtifact
	invalidated []string
	resets      int
	closed      bool
}

func (m *mockWorkbench) Scroll(string, int, string) {}

func (m *mockWorkbench) observe(signal domain.ContextSignal) (domain.ConnectionsView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, signal)
	return m.view, nil
}

func (m *mockWorkbench) ObserveReading(_ context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error) {
	return m.observe(signal)
}

func (m *mockWorkbench) ObserveSelection(_ context.Context, signal domain.ContextSignal) (domain.ConnectionsView, error) {
	return m.observe(signal)
}

func (m *mockWorkbench) ClearSelection(context.Context) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{State: domain.ConnectionIdle}, nil
}

func (m *mockWorkbench) Connections() domain.ConnectionsView { return m.view }

func (m *mockWorkbench) State() domain.ArbiterState { return domain.ArbiterIdle }

func (m *mockWorkbench) Subscribe(func(domain.ConnectionsView)) func() { return func() {} }

func (m *mockWorkbench) InvalidateDocument(_ context.Context, documentID string) error {
	m.invalidated = append(m.invalidated, documentID)
	return nil
}

func (m *mockWorkbench) GenerateInsights(context.Context) (*domain.InsightArtifact, error) {
	if m.insight == nil {
		return nil, domain.ErrNoContext
	}
	return m.insight, nil
}

func (m *mockWorkbench) GenerateAudio(context.Context) (*domain.AudioArtifact, error) {
	if m.audio == nil {
		return nil, domain.ErrNoContext
	}
	return m.audio, nil
}

func (m *mockWorkbench) Insight() *domain.InsightArtifact { return m.insight }

func (m *mockWorkbench) Audio() *domain.AudioArtifact { return m.audio }

func (m *mockWorkbench) OpenConnection(context.Context, domain.ConnectionResult) (bool, error) {
	return false, nil
}

func (m *mockWorkbench) Breadcrumbs() []domain.BreadcrumbEntry { return m.trail }

func (m *mockWorkbench) NavigateBreadcrumb(context.Context, string) (bool, error) { return false, nil }

func (m *mockWorkbench) SwitchDocument(context.Context, string) error { return nil }

func (m *mockWorkbench) Reset(context.Context) error {
	m.resets++
	m.trail = nil
	return nil
}

func (m *mockWorkbench) Close() error {
	m.closed = true
	return nil
}

// fakeWiring hands out one prepared session and an in-memory settings
// service.
type fakeWiring struct {
	workbench *mockWorkbench
	catalog   *mockCatalog
	reader    *mockReader
	settings  *services.SettingsService
	opened    []Options
	openErr   error
	validated []domain.LLMSettings
}

func newFakeWiring() *fakeWiring {
	catalog := newMockCatalog()
	return &fakeWiring{
		workbench: &mockWorkbench{},
		catalog:   catalog,
		reader:    &mockReader{catalog: catalog},
		settings:  services.NewSettingsService(memory.NewConfigStore()),
	}
}

func (f *fakeWiring) Settings(Options) (driving.SettingsService, error) {
	return f.settings, nil
}

func (f *fakeWiring) Open(_ context.Context, opts Options) (*Session, error) {
	f.opened = append(f.opened, opts)
	if f.openErr != nil {
		return nil, f.openErr
	}
	if opts.LibraryDir == "" {
		return NewSession(f.workbench, nil, nil), nil
	}
	return NewSession(f.workbench, f.catalog, f.reader), nil
}

func (f *fakeWiring) ValidateLLM(_ context.Context, settings domain.LLMSettings) error {
	f.validated = append(f.validated, settings)
	return nil
}

// setupTestWiring installs a fake wiring and returns it with a cleanup.
func setupTestWiring() (*fakeWiring, func()) {
	previous := wiring
	f := newFakeWiring()
	SetWiring(f)
	return f, func() { SetWiring(previous) }
}
