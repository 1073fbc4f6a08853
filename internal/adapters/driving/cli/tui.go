package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// readCmd represents the interactive reader.
var readCmd = &cobra.Command{
	Use:   "read <library> [document]",
	Short: "Open the interactive reader",
	Long: `Launch the interactive reader over a document library.

Connections to other documents appear beside the page as you read. Select
a passage to search on it instead of the page.

Controls:
  ←/h, →/l  - Previous / next page
  s         - Select a passage
  tab       - Focus connections
  enter     - Follow the highlighted connection
  b         - Breadcrumb trail
  i / a     - Generate insights / audio summary
  esc       - Back / clear selection
  q         - Quit`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in reader: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	opts := currentOptions(args[0])
	opts.Interactive = true
	sess, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	app, err := tui.NewApp(&tui.Ports{
		Workbench: sess.Workbench,
		Catalog:   sess.Catalog,
		Reader:    sess.Reader,
	})
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	app.WithContext(cmd.Context())
	if len(args) == 2 {
		app.WithDocument(args[1])
	}

	p := tea.NewProgram(app, tea.WithAltScreen())

	// The engine publishes from its own goroutines; hand updates to the
	// program loop.
	unsubscribe := sess.Workbench.Subscribe(func(view domain.ConnectionsView) {
		p.Send(messages.ConnectionsUpdated{View: view})
	})
	defer unsubscribe()

	unwatch := sess.Changes.Subscribe(func(documentID string) {
		p.Send(messages.LibraryChanged{DocumentID: documentID})
	})
	defer unwatch()

	if sess.Confirmations != nil {
		restore := sess.Confirmations.Set(tui.NewConfirmer(p.Send))
		defer restore()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("reader error: %w", err)
	}
	return nil
}
