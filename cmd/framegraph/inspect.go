package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/framegraph/internal/cli"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe the graph nodes, ports and evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return cli.Inspect(os.Stdout, configPath)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
