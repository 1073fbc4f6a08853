package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change engine, search, navigation, backend and LLM settings.

Settings live in config.toml under the configuration directory. Keys use
dotted names such as search.top_k or engine.stability_window_ms.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	RunE:  runSettingsKeys,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the LLM API key",
	Long:  `Read the API key for the configured LLM provider from the terminal without echo.`,
	RunE:  runSettingsSetKey,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure a direct LLM provider for insight generation.

When an LLM provider is configured, insights are generated locally through
it instead of the backend service.`,
	RunE: runSettingsLLM,
}

// settingsInput is where interactive commands read from.
var settingsInput io.Reader = os.Stdin

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	printSettings(cmd, settings)
	return nil
}

func printSettings(cmd *cobra.Command, s *domain.AppSettings) {
	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Engine]")
	cmd.Printf("  Min signal length: %d\n", s.Engine.MinSignalLength)
	cmd.Printf("  Near-duplicate threshold: %d\n", s.Engine.NearDuplicateThreshold)
	cmd.Printf("  Significant page delta: %d\n", s.Engine.SignificantPageDelta)
	cmd.Printf("  Stability window: %s\n", s.Engine.StabilityWindow)
	cmd.Printf("  Cache size: %d\n", s.Engine.CacheSize)
	cmd.Printf("  Scroll debounce: %s\n", s.Engine.ScrollDebounce)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %d (overfetch %d)\n", s.Search.TopK, s.Search.Overfetch)
	cmd.Printf("  Strong score: %.2f\n", s.Search.StrongScore)
	cmd.Printf("  Similarity threshold: %.2f\n", s.Search.SimilarityThreshold)
	cmd.Printf("  Rate: %g/s (burst %d)\n", s.Search.RequestsPerSecond, s.Search.Burst)
	cmd.Println()

	cmd.Println("[Navigation]")
	cmd.Printf("  Poll interval: %s\n", s.Navigation.PollInterval)
	cmd.Printf("  Ready timeout: %s\n", s.Navigation.ReadyTimeout)
	cmd.Printf("  Retries: %d (backoff %s)\n", s.Navigation.MaxRetries, s.Navigation.RetryBackoff)
	cmd.Printf("  Cross-document delay: %s\n", s.Navigation.CrossDocumentDelay)
	cmd.Printf("  Same-document delay: %s\n", s.Navigation.SameDocumentDelay)
	cmd.Println()

	cmd.Println("[Backend]")
	cmd.Printf("  Base URL: %s\n", orNotSet(s.Backend.BaseURL))
	cmd.Printf("  Timeout: %s\n", s.Backend.Timeout)
	cmd.Println()

	cmd.Println("[LLM]")
	if s.LLM.Provider == "" {
		cmd.Println("  Provider: (not set, insights use the backend)")
		return
	}
	cmd.Printf("  Provider: %s\n", s.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", s.LLM.Model)
	if s.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", orNotSet(s.LLM.BaseURL))
	}
	if s.LLM.Provider.RequiresAPIKey() {
		if s.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(s.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !s.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}
	if err := svc.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s updated\n", args[0])
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.LLM.Provider.RequiresAPIKey() {
		return errors.New("the configured LLM provider does not use an API key; run 'synapse settings llm' first")
	}

	cmd.Printf("Enter API key for %s: ", settings.LLM.Provider.Description())
	apiKey := readPassword(bufio.NewReader(settingsInput))
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required for this provider")
	}
	if err := svc.Set("llm.api_key", apiKey); err != nil {
		return err
	}
	cmd.Println("API key saved.")
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}
	return configureLLMProvider(cmd, svc, bufio.NewReader(settingsInput))
}

func configureLLMProvider(cmd *cobra.Command, svc driving.SettingsService, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderAnthropic}
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := svc.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	if wiring != nil {
		settings, err := svc.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Print("Validating configuration... ")
		if err := wiring.ValidateLLM(cmd.Context(), settings.LLM); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("LLM provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal and falls back
// to reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if f, ok := settingsInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// formatAge renders how long ago t was, for listings.
func formatAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}
