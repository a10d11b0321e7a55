package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/framegraph/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and graph for consistency",
	Long: `Loads the configuration, replays its graph and reports every rejected node or edge,
plus nodes no source can reach.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if err := cli.Validate(configPath); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
