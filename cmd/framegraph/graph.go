package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/framegraph/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the graph visualization",
	Long:  `Builds the configured graph and prints it as a Mermaid flowchart (graph LR), a markdown report or JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		format, _ := cmd.Flags().GetString("format")
		return cli.RenderGraph(os.Stdout, configPath, format)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", cli.FormatMermaid, "Output format: mermaid, markdown or json")
}
