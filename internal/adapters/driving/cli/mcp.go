package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search
GitHub through gitscope.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve HTTP instead, for example to test with MCP Inspector.

The server uses the token stored by 'gitscope auth login'.

Examples:
  # Stdio mode (default)
  gitscope mcp serve

  # HTTP mode
  gitscope mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "gitscope": {
        "command": "/path/to/gitscope",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Session:             sessionService,
		History:             historyService,
		NewRepositorySearch: newRepositorySearch,
		NewUserSearch:       newUserSearch,
		NewUserRepositories: newUserRepositories,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
