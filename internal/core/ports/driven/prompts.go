package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptInsightsSystem is the system prompt describing the insight schema.
	// This prompt has no format placeholders.
	PromptInsightsSystem = "insights_system"

	// PromptInsightsUser wraps the context text and related snippets.
	// The template expects two %s placeholders: main text, then snippets.
	PromptInsightsUser = "insights_user"
)
