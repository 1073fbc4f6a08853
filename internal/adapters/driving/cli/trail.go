package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var trailJSON bool

var trailCmd = &cobra.Command{
	Use:   "trail",
	Short: "Show the breadcrumb trail",
	Long: `Lists the places visited by following connections, oldest first.
The trail persists between runs until it is reset or a document is opened
manually in the reader.`,
	Args: cobra.NoArgs,
	RunE: runTrail,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear cached connections and the breadcrumb trail",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var forgetCmd = &cobra.Command{
	Use:   "forget <document>",
	Short: "Drop cached connections for one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func init() {
	trailCmd.Flags().BoolVar(&trailJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(trailCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(forgetCmd)
}

func runTrail(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(""))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	entries := sess.Workbench.Breadcrumbs()
	if trailJSON {
		return outputJSON(cmd, entries)
	}
	if len(entries) == 0 {
		cmd.Println("The trail is empty.")
		return nil
	}

	now := time.Now()
	for i, e := range entries {
		cmd.Printf("  %d. %s, page %d  %s\n", i+1, e.DocumentID, e.PageNumber, formatAge(e.Timestamp, now))
		if e.ContextPreview != "" {
			cmd.Printf("     %s\n", snippet(e.ContextPreview, 100))
		}
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(""))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	if err := sess.Workbench.Reset(ctx); err != nil {
		return err
	}
	cmd.Println("Cache and trail cleared.")
	return nil
}

func runForget(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(""))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	if err := sess.Workbench.InvalidateDocument(ctx, args[0]); err != nil {
		return err
	}
	cmd.Printf("Forgot cached connections for %s.\n", args[0])
	return nil
}
