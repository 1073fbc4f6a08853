// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewLibrary lists the documents in the library.
	ViewLibrary ViewType = iota
	// ViewReader shows a page with its connections.
	ViewReader
	// ViewTrail lists the breadcrumb trail.
	ViewTrail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewLibrary:
		return "library"
	case ViewReader:
		return "reader"
	case ViewTrail:
		return "trail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentSelected signals a document was picked from the library.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentOpened reports that the reader switched documents.
type DocumentOpened struct {
	DocumentID string
	Err        error
}

// PageChanged reports that the reader shows a new page.
type PageChanged struct {
	DocumentID string
	Page       int
	Text       string
	Err        error
}

// ConnectionsUpdated carries a snapshot published by the engine.
type ConnectionsUpdated struct {
	View domain.ConnectionsView
}

// ConnectionFollowed reports the outcome of opening a connection.
type ConnectionFollowed struct {
	Result domain.ConnectionResult
	Moved  bool
	Err    error
}

// BreadcrumbSelected asks to jump back to a trail entry.
type BreadcrumbSelected struct {
	Entry domain.BreadcrumbEntry
}

// BreadcrumbVisited reports the outcome of a trail jump.
type BreadcrumbVisited struct {
	Entry domain.BreadcrumbEntry
	Moved bool
	Err   error
}

// InsightsGenerated carries a finished insight generation.
type InsightsGenerated struct {
	Artifact *domain.InsightArtifact
	Err      error
}

// AudioGenerated carries a finished audio generation.
type AudioGenerated struct {
	Artifact *domain.AudioArtifact
	Err      error
}

// LibraryChanged reports that a document changed on disk.
type LibraryChanged struct {
	DocumentID string
}

// ConfirmRequested asks the user a yes/no question on behalf of the engine.
// Exactly one answer must be sent on Reply.
type ConfirmRequested struct {
	Message string
	Reply   chan<- bool
}
