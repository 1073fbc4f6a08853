package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for direct insight generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EngineSettings tunes context arbitration, caching and artifact stability.
type EngineSettings struct {
	// MinSignalLength is the minimum rune count for a valid signal.
	MinSignalLength int

	// NearDuplicateThreshold is the hash distance below which a reading
	// identity reuses a cached entry stored under the same page.
	NearDuplicateThreshold int64

	// SignificantPageDelta is the page distance beyond which a change is significant.
	SignificantPageDelta int

	// StabilityWindow protects freshly generated artifacts from auto-clearing.
	StabilityWindow time.Duration

	// CacheSize bounds the in-memory connection cache.
	CacheSize int

	// ScrollDebounce is how long scroll events settle before page detection.
	ScrollDebounce time.Duration
}

// SearchSettings configures the connection search orchestrator.
type SearchSettings struct {
	// TopK is the number of results shown.
	TopK int

	// Overfetch is the number of candidates requested from the service.
	Overfetch int

	// StrongScore is the relevance score above which a result is preferred.
	StrongScore float64

	// SimilarityThreshold is forwarded to the relevance service.
	SimilarityThreshold float64

	// RequestsPerSecond paces calls to the relevance service.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int
}

// NavigationSettings configures the viewer retry protocol.
type NavigationSettings struct {
	// PollInterval is the readiness polling interval.
	PollInterval time.Duration

	// ReadyTimeout bounds the total readiness wait.
	ReadyTimeout time.Duration

	// RetryBackoff is the fixed delay between cross-document retries.
	RetryBackoff time.Duration

	// MaxRetries is the number of additional cross-document attempts.
	MaxRetries int

	// CrossDocumentDelay is waited after opening a different document.
	CrossDocumentDelay time.Duration

	// SameDocumentDelay is waited before a same-document navigation.
	SameDocumentDelay time.Duration
}

// BackendSettings locates the relevance/insight/audio service.
type BackendSettings struct {
	// BaseURL is the service root, e.g. http://localhost:8080.
	BaseURL string

	// Timeout is the transport-level request timeout.
	Timeout time.Duration
}

// IsConfigured returns true if a backend URL is set.
func (b BackendSettings) IsConfigured() bool {
	return b.BaseURL != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	Engine     EngineSettings
	Search     SearchSettings
	Navigation NavigationSettings
	Backend    BackendSettings
	LLM        LLMSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; insights then come from the backend.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Engine: EngineSettings{
			MinSignalLength:        10,
			NearDuplicateThreshold: 1000,
			SignificantPageDelta:   2,
			StabilityWindow:        10 * time.Second,
			CacheSize:              256,
			ScrollDebounce:         150 * time.Millisecond,
		},
		Search: SearchSettings{
			TopK:                3,
			Overfetch:           6,
			StrongScore:         0.8,
			SimilarityThreshold: 0.3,
			RequestsPerSecond:   2,
			Burst:               2,
		},
		Navigation: NavigationSettings{
			PollInterval:       100 * time.Millisecond,
			ReadyTimeout:       2000 * time.Millisecond,
			RetryBackoff:       500 * time.Millisecond,
			MaxRetries:         2,
			CrossDocumentDelay: 1500 * time.Millisecond,
			SameDocumentDelay:  50 * time.Millisecond,
		},
		Backend: BackendSettings{
			BaseURL: "http://localhost:8080",
			Timeout: 60 * time.Second,
		},
		LLM: LLMSettings{},
	}
}
