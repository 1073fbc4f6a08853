// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Collaborators
//
// The engine is a pure orchestration layer over these contracts:
//
//   - RelevanceService: Cross-document relevance search
//   - InsightGenerator / AudioGenerator: On-demand generation pipelines
//   - Viewer: The external, asynchronous document viewer
//   - PageSource: Page text for reading-context detection
//   - Confirmer: Asks the user before destructive regeneration
//
// # Persistence
//
//   - ConnectionStore: Durable copy of the connection cache (optional)
//   - TrailStore: Durable breadcrumb trail (optional)
//   - ConfigStore / PromptStore: Application configuration and prompts
//
// # Optional Interfaces
//
//   - LLMService: Direct insight generation. Without it, insights come from
//     the backend InsightGenerator.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
