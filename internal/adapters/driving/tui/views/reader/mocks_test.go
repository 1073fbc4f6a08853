package reader

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// mockCatalog implements driving.DocumentCatalog for testing.
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

func (m *mockCatalog) Documents() []domain.Document {
	return m.docs
}

func (m *mockCatalog) PageText(_ context.Context, documentID string, page int) (string, error) {
	pages, ok := m.pages[documentID]
	if !ok || page < 1 || page > len(pages) {
		return "", fmt.Errorf("%s page %d: %w", documentID, page, domain.ErrNotFound)
	}
	return pages[page-1], nil
}

// mockReader implements driving.Reader for testing.
type mockReader struct {
	mu        sync.Mutex
	catalog   *mockCatalog
	document  string
	page      int
	selection string
	selects   []string
	deselects int
}

func (m *mockReader) Ready() bool { return true }

func (m *mockReader) CurrentDocument() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.document
}

func (m *mockReader) OpenDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalog.pages[documentID]; !ok {
		return domain.ErrNotFound
	}
	m.document = documentID
	m.page = 1
	return nil
}

func (m *mockReader) CurrentPage(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page, nil
}

func (m *mockReader) NavigateToPage(_ context.Context, page int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page < 1 || page > len(m.catalog.pages[m.document]) {
		return false, nil
	}
	m.page = page
	return true, nil
}

func (m *mockReader) Select(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = text
	m.selects = append(m.selects, text)
}

func (m *mockReader) Deselect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = ""
	m.deselects++
}

type scrollCall struct {
	documentID string
	page       int
	text       string
}

// mockWorkbench implements driving.Workbench for testing.
type mockWorkbench struct {
	reader   *mockReader
	scrolls  []scrollCall
	switched []string
	followed []domain.ConnectionResult
	moveErr  error
	insight  *domain.InsightArtifact
	audio    *domain.AudioArtifact
}

func (m *mockWorkbench) Scroll(documentID string, page int, text string) {
	m.scrolls = append(m.scrolls, scrollCall{documentID, page, text})
}

func (m *mockWorkbench) ObserveReading(_ context.Context, _ domain.ContextSignal) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{}, nil
}

func (m *mockWorkbench) ObserveSelection(_ context.Context, _ domain.ContextSignal) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{}, nil
}

func (m *mockWorkbench) ClearSelection(_ context.Context) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{}, nil
}

func (m *mockWorkbench) Connections() domain.ConnectionsView {
	return domain.ConnectionsView{State: domain.ConnectionIdle}
}

func (m *mockWorkbench) State() domain.ArbiterState {
	return domain.ArbiterIdle
}

func (m *mockWorkbench) Subscribe(_ func(domain.ConnectionsView)) func() {
	return func() {}
}

func (m *mockWorkbench) InvalidateDocument(_ context.Context, _ string) error {
	return nil
}

func (m *mockWorkbench) GenerateInsights(_ context.Context) (*domain.InsightArtifact, error) {
	return m.insight, nil
}

func (m *mockWorkbench) GenerateAudio(_ context.Context) (*domain.AudioArtifact, error) {
	return m.audio, nil
}

func (m *mockWorkbench) Insight() *domain.InsightArtifact { return m.insight }

func (m *mockWorkbench) Audio() *domain.AudioArtifact { return m.audio }

func (m *mockWorkbench) OpenConnection(ctx context.Context, result domain.ConnectionResult) (bool, error) {
	if m.moveErr != nil {
		return false, m.moveErr
	}
	if err := m.reader.OpenDocument(ctx, result.SourceDocumentID); err != nil {
		return false, err
	}
	moved, err := m.reader.NavigateToPage(ctx, result.PageNumber)
	if moved {
		m.followed = append(m.followed, result)
	}
	return moved, err
}

func (m *mockWorkbench) Breadcrumbs() []domain.BreadcrumbEntry {
	return nil
}

func (m *mockWorkbench) NavigateBreadcrumb(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockWorkbench) SwitchDocument(ctx context.Context, documentID string) error {
	m.switched = append(m.switched, documentID)
	return m.reader.OpenDocument(ctx, documentID)
}

func (m *mockWorkbench) Reset(_ context.Context) error { return nil }

func (m *mockWorkbench) Close() error { return nil }
