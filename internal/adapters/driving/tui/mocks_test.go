package tui

import (
	"context"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// MockCatalog implements driving.DocumentCatalog for testing.
type MockCatalog struct {
	Docs  []domain.Document
	Pages map[string][]string
}

func newMockCatalog() *MockCatalog {
	return &MockCatalog{
		Docs: []domain.Document{
			{ID: "paper-a", Name: "Neural Plasticity", Pages: 2},
			{ID: "paper-b", Name: "Sleep and Memory", Pages: 1},
		},
		Pages: map[string][]string{
			"paper-a": {"Neural plasticity in adults.", "Synaptic pruning during sleep."},
			"paper-b": {"Memory consolidation overnight."},
		},
	}
}

func (m *MockCatalog) Documents() []domain.Document {
	return m.Docs
}

func (m *MockCatalog) PageText(_ context.Context, documentID string, page int) (string, error) {
	pages := m.Pages[documentID]
	if page < 1 || page > len(pages) {
		return "", domain.ErrNotFound
	}
	return pages[page-1], nil
}

// MockReader implements driving.Reader for testing.
type MockReader struct {
	Catalog  *MockCatalog
	Document string
	PageNum  int
}

func (m *MockReader) Ready() bool { return true }

func (m *MockReader) CurrentDocument() string { return m.Document }

func (m *MockReader) OpenDocument(_ context.Context, documentID string) error {
	if _, ok := m.Catalog.Pages[documentID]; !ok {
		return domain.ErrNotFound
	}
	m.Document = documentID
	m.PageNum = 1
	return nil
}

func (m *MockReader) CurrentPage(_ context.Context) (int, error) { return m.PageNum, nil }

func (m *MockReader) NavigateToPage(_ context.Context, page int) (bool, error) {
	if page < 1 || page > len(m.Catalog.Pages[m.Document]) {
		return false, nil
	}
	m.PageNum = page
	return true, nil
}

func (m *MockReader) Select(_ string) {}

func (m *MockReader) Deselect() {}

// MockWorkbench implements driving.Workbench for testing.
type MockWorkbench struct {
	Reader  *MockReader
	Trail   []domain.BreadcrumbEntry
	Visited []string
}

func (m *MockWorkbench) Scroll(_ string, _ int, _ string) {}

func (m *MockWorkbench) ObserveReading(_ context.Context, _ domain.ContextSignal) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{}, nil
}

func (m *MockWorkbench) ObserveSelection(_ context.Context, _ domain.ContextSignal) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{}, nil
}

func (m *MockWorkbench) ClearSelection(_ context.Context) (domain.ConnectionsView, error) {
	return domain.ConnectionsView{}, nil
}

func (m *MockWorkbench) Connections() domain.ConnectionsView { return domain.ConnectionsView{} }

func (m *MockWorkbench) State() domain.ArbiterState { return domain.ArbiterIdle }

func (m *MockWorkbench) Subscribe(_ func(domain.ConnectionsView)) func() { return func() {} }

func (m *MockWorkbench) InvalidateDocument(_ context.Context, _ string) error { return nil }

func (m *MockWorkbench) GenerateInsights(_ context.Context) (*domain.InsightArtifact, error) {
	return &domain.InsightArtifact{}, nil
}

func (m *MockWorkbench) GenerateAudio(_ context.Context) (*domain.AudioArtifact, error) {
	return &domain.AudioArtifact{}, nil
}

func (m *MockWorkbench) Insight() *domain.InsightArtifact { return nil }

func (m *MockWorkbench) Audio() *domain.AudioArtifact { return nil }

func (m *MockWorkbench) OpenConnection(_ context.Context, _ domain.ConnectionResult) (bool, error) {
	return false, nil
}

func (m *MockWorkbench) Breadcrumbs() []domain.BreadcrumbEntry { return m.Trail }

func (m *MockWorkbench) NavigateBreadcrumb(ctx context.Context, entryID string) (bool, error) {
	for _, e := range m.Trail {
		if e.ID == entryID {
			m.Visited = append(m.Visited, entryID)
			if err := m.Reader.OpenDocument(ctx, e.DocumentID); err != nil {
				return false, err
			}
			return m.Reader.NavigateToPage(ctx, e.PageNumber)
		}
	}
	return false, domain.ErrNotFound
}

func (m *MockWorkbench) SwitchDocument(ctx context.Context, documentID string) error {
	return m.Reader.OpenDocument(ctx, documentID)
}

func (m *MockWorkbench) Reset(_ context.Context) error { return nil }

func (m *MockWorkbench) Close() error { return nil }
