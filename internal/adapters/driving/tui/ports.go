// Package tui provides an interactive terminal reader for synapse.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Workbench observes reading context, finds connections and
	// generates artifacts.
	Workbench driving.Workbench

	// Catalog lists documents and serves page text.
	Catalog driving.DocumentCatalog

	// Reader drives the document viewer.
	Reader driving.Reader
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Workbench == nil {
		return ErrMissingWorkbench
	}
	if p.Catalog == nil {
		return ErrMissingCatalog
	}
	if p.Reader == nil {
		return ErrMissingReader
	}
	return nil
}
