// Package domain defines the core business entities for Synapse.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ContextSignal: A raw observation of user attention (reading or selection)
//   - ContentIdentity: The comparable, deduplicated key derived from a signal
//   - ConnectionResult / CacheEntry: Cross-document relevance results
//   - InsightArtifact / AudioArtifact: Generated outputs bound to a context
//   - BreadcrumbEntry: A visited document location
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
