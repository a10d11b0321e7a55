/*
Package runner implements the frame driver for the framegraph engine.

It owns the frame counter and calls the engine once per display frame on a
single goroutine, so node executions are never concurrent. Cancelling the
context passed to Run stops scheduling, and the engine is closed once the last
tick has returned.

# Key Components

  - Runner: The tick loop, with manual Step for tests and tools.
  - SignalManager: Maps SIGINT/SIGTERM to context cancellation for the CLI.

# Usage

	sm := runner.NewSignalManager(context.Background())
	defer sm.Stop()

	r := runner.New(engine,
		runner.WithFPS(60),
		runner.WithLogger(logger),
	)

	if err := r.Run(sm.Context()); err != nil {
		log.Fatal(err)
	}
*/
package runner
