package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// passageFlags locate the passage a one-shot command works on.
type passageFlags struct {
	page      int
	selection string
	json      bool
}

func (f *passageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "page to read")
	cmd.Flags().StringVarP(&f.selection, "select", "s", "", "use this text as a selection instead of the page")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
}

var connectionsFlags passageFlags

var connectionsCmd = &cobra.Command{
	Use:   "connections <library> <document>",
	Short: "Find passages in other documents related to a page or selection",
	Long: `Reads one page of a document (or a selected passage) and prints the
related passages found in the rest of the library.

Results are cached per page; repeated calls for an unchanged page are served
from the cache.`,
	Args: cobra.ExactArgs(2),
	RunE: runConnections,
}

func init() {
	connectionsFlags.register(connectionsCmd)
	rootCmd.AddCommand(connectionsCmd)
}

func runConnections(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(args[0]))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	view, err := observePassage(ctx, sess, args[1], connectionsFlags)
	if err != nil {
		return err
	}

	if connectionsFlags.json {
		return outputJSON(cmd, view.Results)
	}
	printConnections(cmd, view)
	return nil
}

// observePassage opens a document at a page and feeds the page text, or the
// given selection, to the workbench.
func observePassage(
	ctx context.Context,
	sess *Session,
	documentID string,
	flags passageFlags,
) (domain.ConnectionsView, error) {
	if err := openAt(ctx, sess.Reader, documentID, flags.page); err != nil {
		return domain.ConnectionsView{}, err
	}

	if flags.selection != "" {
		return sess.Workbench.ObserveSelection(ctx, domain.ContextSignal{
			Kind:       domain.SignalSelection,
			RawText:    flags.selection,
			DocumentID: documentID,
			PageNumber: flags.page,
		})
	}

	text, err := sess.Catalog.PageText(ctx, documentID, flags.page)
	if err != nil {
		return domain.ConnectionsView{}, err
	}
	return sess.Workbench.ObserveReading(ctx, domain.ContextSignal{
		Kind:       domain.SignalReading,
		RawText:    text,
		DocumentID: documentID,
		PageNumber: flags.page,
	})
}

func printConnections(cmd *cobra.Command, view domain.ConnectionsView) {
	switch view.State {
	case domain.ConnectionFailed, domain.ConnectionIdle:
		cmd.Println(orDefault(view.Message, "No context."))
		return
	case domain.ConnectionEmpty:
		cmd.Println("No connections found.")
		return
	case domain.ConnectionLoading, domain.ConnectionReady, domain.ConnectionCached:
	}

	label := "Connections:"
	if view.State == domain.ConnectionCached {
		label = "Connections (cached):"
	}
	cmd.Println(label)
	cmd.Println()
	for i, r := range view.Results {
		cmd.Printf("  [%d] %s, page %d (%.2f)\n", i+1, resultName(r), r.PageNumber, r.RelevanceScore)
		cmd.Printf("      %s\n", snippet(r.TextSnippet, 160))
		cmd.Println()
	}
}

func resultName(r domain.ConnectionResult) string {
	if r.DocumentName != "" {
		return r.DocumentName
	}
	return r.SourceDocumentID
}

// snippet collapses whitespace and truncates to limit runes.
func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
