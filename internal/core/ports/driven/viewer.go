package driven

import "context"

// Viewer is the external document viewer the engine drives.
// All calls may block while the viewer is busy; Ready is non-blocking.
type Viewer interface {
	// Ready reports whether the viewer can accept navigation right now.
	Ready() bool

	// CurrentDocument returns the id of the open document, or "" if none.
	CurrentDocument() string

	// CurrentPage returns the 1-based page currently shown.
	CurrentPage(ctx context.Context) (int, error)

	// OpenDocument selects a document. The viewer may become not-ready
	// while the document loads.
	OpenDocument(ctx context.Context, documentID string) error

	// NavigateToPage moves the open document to a page.
	// Returns false when the viewer rejected the navigation.
	NavigateToPage(ctx context.Context, page int) (bool, error)

	// SelectedText returns the current selection, or "" if none.
	SelectedText(ctx context.Context) (string, error)

	// OnSelectionEnd subscribes to selection-ended and deselection
	// notifications. The returned function unsubscribes.
	OnSelectionEnd(fn func()) (unsubscribe func())
}

// PageSource returns the text of a rendered page.
// Used to re-detect the reading context after a selection is cleared.
type PageSource interface {
	PageText(ctx context.Context, documentID string, page int) (string, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}
