// Package mcp provides an MCP (Model Context Protocol) server adapter for synapse.
// It lets AI assistants read a document library and follow its connections.
package mcp

import "errors"

// ErrMissingWorkbench is returned when the workbench is not provided.
var ErrMissingWorkbench = errors.New("mcp: workbench is required")

// ErrMissingCatalog is returned when the document catalog is not provided.
var ErrMissingCatalog = errors.New("mcp: document catalog is required")
