package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// mockWorkbench is a mock implementation of driving.Workbench.
type mockWorkbench struct {
	view     domain.ConnectionsView
	err      error
	trail    []domain.BreadcrumbEntry
	insight  *domain.InsightArtifact
	existing bool
	moved    bool
	signals  []domain.ContextSignal
	followed []domain.ConnectionResult
}

var _ driving.Workbench = (*mockWorkbench)(nil)

func (m *mockWorkbench) Scroll(string, int, string) {}

func (m *mockWorkbench) ObserveReading(_ context.Context, s domain.ContextSignal) (domain.ConnectionsView, error) {
	m.signals = append(m.signals, s)
	return m.view, m.err
}

func (m *mockWorkbench) ObserveSelection(_ context.Context, s domain.ContextSignal) (domain.ConnectionsView, error) {
	m.signals = append(m.signals, s)
	return m.view, m.err
}

func (m *mockWorkbench) ClearSelection(context.Context) (domain.ConnectionsView, error) {
	return m.view, nil
}

func (m *mockWorkbench) Connections() domain.ConnectionsView { return m.view }

func (m *mockWorkbench) State() domain.ArbiterState { return domain.ArbiterIdle }

func (m *mockWorkbench) Subscribe(func(domain.ConnectionsView)) func() { return func() {} }

func (m *mockWorkbench) InvalidateDocument(context.Context, string) error { return nil }

func (m *mockWorkbench) GenerateInsights(ctx context.Context) (*domain.InsightArtifact, error) {
	if m.insight == nil {
		return nil, domain.ErrNoContext
	}
	if replace, ok := domain.ConfirmationFrom(ctx); m.existing && ok && !replace {
		return m.insight, domain.ErrRegenerationDeclined
	}
	return m.insight, nil
}

func (m *mockWorkbench) GenerateAudio(context.Context) (*domain.AudioArtifact, error) {
	return nil, domain.ErrNoContext
}

func (m *mockWorkbench) Insight() *domain.InsightArtifact { return m.insight }

func (m *mockWorkbench) Audio() *domain.AudioArtifact { return nil }

func (m *mockWorkbench) OpenConnection(_ context.Context, r domain.ConnectionResult) (bool, error) {
	m.followed = append(m.followed, r)
	if !m.moved {
		return false, domain.ErrNavigationFailed
	}
	return true, nil
}

func (m *mockWorkbench) Breadcrumbs() []domain.BreadcrumbEntry { return m.trail }

func (m *mockWorkbench) NavigateBreadcrumb(context.Context, string) (bool, error) { return false, nil }

func (m *mockWorkbench) SwitchDocument(context.Context, string) error { return nil }

func (m *mockWorkbench) Reset(context.Context) error { return nil }

func (m *mockWorkbench) Close() error { return nil }

// mockCatalog is a mock implementation of driving.DocumentCatalog.
type mockCatalog struct {
	docs  []domain.Document
	pages map[string][]string
}

func (m *mockCatalog) Documents() []domain.Document { return m.docs }

func (m *mockCatalog) PageText(_ context.Context, documentID string, page int) (string, error) {
	pages, ok := m.pages[documentID]
	if !ok || page < 1 || page > len(pages) {
		return "", fmt.Errorf("%s page %d: %w", documentID, page, domain.ErrNotFound)
	}
	return pages[page-1], nil
}

// mockReader is a mock implementation of driving.Reader.
type mockReader struct {
	document string
	page     int
	opened   []string
}

func (m *mockReader) Ready() bool { return true }

func (m *mockReader) CurrentDocument() string { return m.document }

func (m *mockReader) OpenDocument(_ context.Context, id string) error {
	m.opened = append(m.opened, id)
	m.document, m.page = id, 1
	return nil
}

func (m *mockReader) CurrentPage(context.Context) (int, error) { return m.page, nil }

func (m *mockReader) NavigateToPage(_ context.Context, page int) (bool, error) {
	m.page = page
	return true, nil
}

func (m *mockReader) Select(string) {}

func (m *mockReader) Deselect() {}

func newTestCatalog() *mockCatalog {
	return &mockCatalog{
		docs: []domain.Document{
			{ID: "paper-a", Name: "paper-a.txt", Pages: 2},
			{ID: "paper-b", Name: "paper-b.txt", Pages: 1},
		},
		pages: map[string][]string{
			"paper-a": {"Neural plasticity in adults.", "Synaptic pruning during sleep."},
			"paper-b": {"Memory consolidation overnight."},
		},
	}
}
