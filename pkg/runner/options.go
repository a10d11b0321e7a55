package runner

import (
	"log/slog"
	"time"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithFPS sets the tick rate. Non-positive values keep the default.
func WithFPS(fps int) Option {
	return func(r *Runner) {
		if fps > 0 {
			r.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithInterval sets the time between ticks directly.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxFrames stops Run after n ticks. Zero means unlimited.
func WithMaxFrames(n uint64) Option {
	return func(r *Runner) {
		r.maxFrames = n
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}
