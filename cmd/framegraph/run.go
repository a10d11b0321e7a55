package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/framegraph/internal/cli"
	"github.com/aretw0/framegraph/pkg/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame pipeline",
	Long: `Builds the configured graph against the synthetic capture and scripted landmarkers and ticks it
at the configured rate until interrupted. With --addr the latest frame, control record and graph
are served over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		quiet, _ := cmd.Flags().GetBool("quiet")
		addr, _ := cmd.Flags().GetString("addr")
		frames, _ := cmd.Flags().GetUint64("frames")

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()

		return cli.Run(sm.Context(), cli.RunOptions{
			ConfigPath: configPath,
			Debug:      debug,
			Quiet:      quiet,
			HTTPAddr:   addr,
			MaxFrames:  frames,
			Out:        os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and run summary")
	runCmd.Flags().String("addr", "", "Serve the HTTP API on this address (overrides http.addr)")
	runCmd.Flags().Uint64("frames", 0, "Stop after this many frames (overrides max_frames)")
}
