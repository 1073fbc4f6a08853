// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the synapse home directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: User-editable insight prompts with embedded defaults
package file
