package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/presentation/tui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of framegraph",
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(framegraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
