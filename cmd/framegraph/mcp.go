package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/framegraph/internal/cli"
	"github.com/aretw0/framegraph/pkg/runner"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts a live framegraph engine as an MCP server, so agents can inspect and rewire the graph
and read the latest control record as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()

		return cli.ServeMCP(sm.Context(), cli.MCPOptions{
			ConfigPath: configPath,
			Debug:      debug,
			Transport:  transport,
			Port:       port,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
