package runner

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
)

// DefaultFPS is the tick rate used when none is configured.
const DefaultFPS = 60

// Ticker is the engine surface the runner drives.
type Ticker interface {
	Tick(ctx context.Context, frame uint64) (*domain.TickReport, error)
}

// Stats is a point-in-time summary of a runner.
type Stats struct {
	RunID        string        `json:"run_id"`
	Frames       uint64        `json:"frames"`
	NodeFailures uint64        `json:"node_failures"`
	Overruns     uint64        `json:"overruns"`
	LastTick     time.Duration `json:"last_tick"`
}

// Runner is the frame driver. It owns the frame counter and calls the engine
// once per interval, sequentially: a tick never starts before the previous one
// returned.
type Runner struct {
	engine    Ticker
	interval  time.Duration
	maxFrames uint64
	runID     string
	logger    *slog.Logger

	frames   atomic.Uint64
	failures atomic.Uint64
	overruns atomic.Uint64
	lastTick atomic.Int64

	// mu serializes Step so manual steps and the loop never overlap.
	mu sync.Mutex
}

// New creates a runner for engine.
func New(engine Ticker, opts ...Option) *Runner {
	r := &Runner{
		engine:   engine,
		interval: time.Second / DefaultFPS,
		runID:    uuid.NewString(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("run_id", r.runID)
	return r
}

// RunID identifies this runner in logs and published snapshots.
func (r *Runner) RunID() string { return r.runID }

// Frames returns how many ticks have been started.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

// Stats returns a summary of the run so far.
func (r *Runner) Stats() Stats {
	return Stats{
		RunID:        r.runID,
		Frames:       r.frames.Load(),
		NodeFailures: r.failures.Load(),
		Overruns:     r.overruns.Load(),
		LastTick:     time.Duration(r.lastTick.Load()),
	}
}

// Step advances the frame counter and runs one tick.
func (r *Runner) Step(ctx context.Context) (*domain.TickReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.frames.Add(1)
	report, err := r.engine.Tick(domain.WithRunID(ctx, r.runID), frame)
	if err != nil {
		return nil, err
	}

	r.failures.Add(uint64(len(report.Failures)))
	r.lastTick.Store(int64(report.Duration))
	if report.Duration > r.interval {
		r.overruns.Add(1)
	}
	return report, nil
}

// Run ticks at the configured rate until ctx is cancelled or the frame limit
// is reached. On exit the engine is closed if it implements io.Closer; since
// ticks are sequential, none is in flight at that point.
func (r *Runner) Run(ctx context.Context) error {
	defer r.closeEngine()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("runner started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped", "frames", r.frames.Load(), "reason", context.Cause(ctx))
			return nil
		case <-ticker.C:
		}

		if _, err := r.Step(ctx); err != nil {
			r.logger.Error("tick failed", "frame", r.frames.Load(), "err", err)
			return err
		}
		if r.maxFrames > 0 && r.frames.Load() >= r.maxFrames {
			r.logger.Info("runner finished", "frames", r.frames.Load())
			return nil
		}
	}
}

func (r *Runner) closeEngine() {
	c, ok := r.engine.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		r.logger.Warn("engine close failed", "err", err)
	}
}
