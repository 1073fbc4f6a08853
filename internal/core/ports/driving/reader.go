package driving

import (
	"context"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// DocumentCatalog lists the documents available for reading.
type DocumentCatalog interface {
	// Documents lists documents sorted by id.
	Documents() []domain.Document
	// PageText returns the text of a 1-based page.
	PageText(ctx context.Context, documentID string, page int) (string, error)
}

// Reader is the user-facing side of the document viewer.
// Selection changes made here reach the engine through the viewer's
// selection-end notifications.
type Reader interface {
	// Ready reports whether the viewer accepts navigation.
	Ready() bool
	// CurrentDocument returns the open document id, or "".
	CurrentDocument() string
	// OpenDocument shows page 1 of a document without touching the
	// engine's cache or trail.
	OpenDocument(ctx context.Context, documentID string) error
	// CurrentPage returns the page shown.
	CurrentPage(ctx context.Context) (int, error)
	// NavigateToPage moves within the open document.
	NavigateToPage(ctx context.Context, page int) (bool, error)
	// Select marks text as selected.
	Select(text string)
	// Deselect clears the selection.
	Deselect()
}
