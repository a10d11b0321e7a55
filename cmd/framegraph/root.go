package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "framegraph",
	Short: "Framegraph is a per-frame dataflow engine for camera pipelines",
	Long: `Framegraph evaluates a graph of capture, landmark, overlay and mapping nodes once per frame
and publishes the composited image together with a normalized control record.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a framegraph YAML configuration")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and per-node trace hooks")
}
