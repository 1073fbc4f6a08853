package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
)

// settingField binds a config key to a field of AppSettings.
type settingField struct {
	key   string
	get   func(s *domain.AppSettings) any
	parse func(s *domain.AppSettings, value string) error
}

func intField(key string, ptr func(s *domain.AppSettings) *int) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("%s: expected a non-negative integer, got %q", key, v)
			}
			*ptr(s) = n
			return nil
		},
	}
}

func floatField(key string, ptr func(s *domain.AppSettings) *float64) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("%s: expected a non-negative number, got %q", key, v)
			}
			*ptr(s) = f
			return nil
		},
	}
}

func durationField(key string, unit time.Duration, ptr func(s *domain.AppSettings) *time.Duration) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return int(*ptr(s) / unit) },
		parse: func(s *domain.AppSettings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("%s: expected a non-negative integer, got %q", key, v)
			}
			*ptr(s) = time.Duration(n) * unit
			return nil
		},
	}
}

func stringField(key string, ptr func(s *domain.AppSettings) *string) settingField {
	return settingField{
		key: key,
		get: func(s *domain.AppSettings) any { return *ptr(s) },
		parse: func(s *domain.AppSettings, v string) error {
			*ptr(s) = v
			return nil
		},
	}
}

var settingFields = []settingField{
	intField("engine.min_signal_length", func(s *domain.AppSettings) *int { return &s.Engine.MinSignalLength }),
	{
		key: "engine.near_duplicate_threshold",
		get: func(s *domain.AppSettings) any { return int(s.Engine.NearDuplicateThreshold) },
		parse: func(s *domain.AppSettings, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("engine.near_duplicate_threshold: expected a non-negative integer, got %q", v)
			}
			s.Engine.NearDuplicateThreshold = n
			return nil
		},
	},
	intField("engine.significant_page_delta", func(s *domain.AppSettings) *int { return &s.Engine.SignificantPageDelta }),
	durationField("engine.stability_window_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Engine.StabilityWindow }),
	intField("engine.cache_size", func(s *domain.AppSettings) *int { return &s.Engine.CacheSize }),
	durationField("engine.scroll_debounce_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Engine.ScrollDebounce }),

	intField("search.top_k", func(s *domain.AppSettings) *int { return &s.Search.TopK }),
	intField("search.overfetch", func(s *domain.AppSettings) *int { return &s.Search.Overfetch }),
	floatField("search.strong_score", func(s *domain.AppSettings) *float64 { return &s.Search.StrongScore }),
	floatField("search.similarity_threshold",
		func(s *domain.AppSettings) *float64 { return &s.Search.SimilarityThreshold }),
	floatField("search.requests_per_second",
		func(s *domain.AppSettings) *float64 { return &s.Search.RequestsPerSecond }),
	intField("search.burst", func(s *domain.AppSettings) *int { return &s.Search.Burst }),

	durationField("navigation.poll_interval_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Navigation.PollInterval }),
	durationField("navigation.ready_timeout_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Navigation.ReadyTimeout }),
	durationField("navigation.retry_backoff_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Navigation.RetryBackoff }),
	intField("navigation.max_retries", func(s *domain.AppSettings) *int { return &s.Navigation.MaxRetries }),
	durationField("navigation.cross_document_delay_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Navigation.CrossDocumentDelay }),
	durationField("navigation.same_document_delay_ms", time.Millisecond,
		func(s *domain.AppSettings) *time.Duration { return &s.Navigation.SameDocumentDelay }),

	stringField("backend.base_url", func(s *domain.AppSettings) *string { return &s.Backend.BaseURL }),
	durationField("backend.timeout_s", time.Second,
		func(s *domain.AppSettings) *time.Duration { return &s.Backend.Timeout }),

	{
		key: keyLLMProvider,
		get: func(s *domain.AppSettings) any { return s.LLM.Provider.String() },
		parse: func(s *domain.AppSettings, v string) error {
			p := domain.AIProvider(v)
			if v != "" && !p.IsValid() {
				return fmt.Errorf("invalid LLM provider: %s", v)
			}
			s.LLM.Provider = p
			return nil
		},
	},
	stringField(keyLLMModel, func(s *domain.AppSettings) *string { return &s.LLM.Model }),
	stringField(keyLLMBaseURL, func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
	stringField(keyLLMAPIKey, func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or malformed keys
// keep their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for _, f := range settingFields {
		raw, ok := s.configStore.Get(f.key)
		if !ok {
			continue
		}
		value := fmt.Sprint(raw)
		if value == "" && f.key != keyLLMProvider {
			continue
		}
		_ = f.parse(&settings, value)
	}
	return &settings, nil
}

// Save persists application settings. An empty API key is not written so
// an existing key is never wiped by accident.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingFields {
		value := f.get(settings)
		if f.key == keyLLMAPIKey && value == "" {
			continue
		}
		if err := s.configStore.Set(f.key, value); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Set updates one setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(key)
	for _, f := range settingFields {
		if f.key != key {
			continue
		}
		settings, err := s.Get()
		if err != nil {
			return err
		}
		if err := f.parse(settings, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if err := s.configStore.Set(f.key, f.get(settings)); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
}

// Keys lists the recognised config keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// Value returns the stored form of one setting.
func Value(settings *domain.AppSettings, key string) (any, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f.get(settings), true
		}
	}
	return nil, false
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	// Local providers need a base URL, cloud providers use their default
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
