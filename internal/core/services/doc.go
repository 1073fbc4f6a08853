// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The engine is built from small components that each own their state:
//
//   - IdentityService: signal -> comparable ContentIdentity
//   - ConnectionCache: identity -> cached results, near-duplicate reuse
//   - ConnectionSearch: single-flight, rate-paced relevance search
//   - ContextArbiter: reading vs selection state machine
//   - ArtifactManager: insight/audio generation and stability rules
//   - Navigator / BreadcrumbTrail: viewer navigation with retries
//   - PageTracker: scroll events -> page changes
//   - Workbench: the façade wiring them together
package services
