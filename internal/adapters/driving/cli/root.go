// Package cli provides the cobra command tree for synapse.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/synapse-reader/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configDir  string
	backendURL string
	ephemeral  bool
)

var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Read documents with live cross-document connections",
	Long: `Synapse watches what you read in a local document library and surfaces
related passages from other documents as you go.

Scroll through a document or select a passage and synapse finds connections,
generates insights and audio summaries, and keeps a breadcrumb trail of the
places you jumped to.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log engine decisions to stderr")
	flags.StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.synapse)")
	flags.StringVar(&backendURL, "backend-url", "", "override backend.base_url for this run")
	flags.BoolVar(&ephemeral, "ephemeral", false, "keep settings, cache and trail in memory only")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// currentOptions collects the global flags into session options.
func currentOptions(libraryDir string) Options {
	return Options{
		ConfigDir:  configDir,
		LibraryDir: libraryDir,
		BackendURL: backendURL,
		Ephemeral:  ephemeral,
	}
}
