package tui

import "errors"

// ErrMissingWorkbench is returned when the workbench is not provided.
var ErrMissingWorkbench = errors.New("tui: workbench is required")

// ErrMissingCatalog is returned when the document catalog is not provided.
var ErrMissingCatalog = errors.New("tui: document catalog is required")

// ErrMissingReader is returned when the reader is not provided.
var ErrMissingReader = errors.New("tui: reader is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
