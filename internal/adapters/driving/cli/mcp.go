package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve <library>",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can explore a
document library through synapse.

Tools: list_documents, read_page, find_connections, generate_insights,
follow_connection and breadcrumbs.

By default the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  synapse mcp serve ~/papers

  # HTTP mode (for MCP Inspector, remote access)
  synapse mcp serve ~/papers --port 8080`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	opts := currentOptions(args[0])
	opts.Interactive = true
	sess, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	server, err := mcp.NewServer(&mcp.Ports{
		Workbench: sess.Workbench,
		Catalog:   sess.Catalog,
		Reader:    sess.Reader,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
