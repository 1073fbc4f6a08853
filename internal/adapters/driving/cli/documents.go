package cli

import (
	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents <library>",
	Short: "List the documents in a library",
	Long: `Lists the readable documents in a library directory.

Documents are .txt and .md files; pages are separated by form feed
characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(args[0]))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	docs := sess.Catalog.Documents()
	if documentsJSON {
		return outputJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("  %-24s %3d pages  %s\n", d.ID, d.Pages, d.Name)
	}
	return nil
}
