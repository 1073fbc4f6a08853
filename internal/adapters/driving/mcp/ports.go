package mcp

import (
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Workbench runs arbitration, search, generation and navigation.
	Workbench driving.Workbench

	// Catalog lists documents and serves page text.
	Catalog driving.DocumentCatalog

	// Reader positions the viewer. Optional: without it connections are
	// still found but cannot be followed.
	Reader driving.Reader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Workbench == nil {
		return ErrMissingWorkbench
	}
	if p.Catalog == nil {
		return ErrMissingCatalog
	}
	return nil
}
