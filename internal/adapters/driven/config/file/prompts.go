package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

var log = logger.Scope("prompts")

// placeholders is the number of %s verbs a template must keep.
var placeholders = map[string]int{
	driven.PromptInsightsSystem: 0,
	driven.PromptInsightsUser:   2,
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptInsightsSystem: `You are a research assistant helping a reader connect the passage they are reading with the rest of their library.

You will be given the passage and a list of related passages from other documents. Analyse the related passages in relation to the main passage and produce structured insights in ALL of these categories, using empty arrays where nothing applies:

1. contradictions: opposing findings, challenges to assumptions, counter-arguments
2. supporting_examples: concrete examples or reinforcing data
3. related_concepts: similar techniques, extensions or alternative approaches
4. key_takeaways: high-level implications from combining the information
5. did_you_know: interesting or lesser-known details from the content

Base your analysis only on the text provided. Cite the source document for every insight. When no related passages are given, analyse the main passage on its own.

Respond with a single JSON object and nothing else:
{
  "contradictions": [{"insight": "...", "source": "document name", "explanation": "..."}],
  "supporting_examples": [],
  "related_concepts": [],
  "key_takeaways": [],
  "did_you_know": []
}`,

	driven.PromptInsightsUser: `Main passage:
%s

Related passages:
%s

Return insights for all five categories.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to the prompts directory under DefaultDir.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if want, ok := placeholders[name]; ok && strings.Count(prompt, "%s") != want {
		log.Warn("%s.txt needs %d %%s placeholders, using the built-in prompt", name, want)
		prompt = defaultPrompts[name]
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Synapse Prompts

These prompts drive direct insight generation when an LLM provider is
configured (see ` + "`synapse settings set-key`" + `).

## Files

- ` + "`insights_system.txt`" + ` - Describes the five insight categories and the JSON schema
- ` + "`insights_user.txt`" + ` - Wraps the passage and its related passages

## Customisation

Edit any file to customise the output. Changes take effect the next time
insights are generated. Keep the JSON keys unchanged: responses without
any known category are rejected.

## Format Placeholders

` + "`insights_user.txt`" + ` takes two ` + "`%s`" + ` placeholders: the passage,
then the related passages. Keep both, in that order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
