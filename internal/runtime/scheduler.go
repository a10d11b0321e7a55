package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
)

// Scheduler evaluates a graph once per tick, in topological order.
type Scheduler struct {
	graph  *graph.Graph
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) {
		s.hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a scheduler bound to g.
func NewScheduler(g *graph.Graph, opts ...Option) *Scheduler {
	s := &Scheduler{
		graph:  g,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick runs every node exactly once. Node failures are contained: the node's
// outputs revert to their kind defaults and evaluation continues with the next
// node. The only error Tick returns is a graph that cannot be ordered.
func (s *Scheduler) Tick(ctx context.Context, frame uint64) (*domain.TickReport, error) {
	ctx = domain.WithFrame(ctx, frame)
	report := &domain.TickReport{Frame: frame}

	err := s.graph.Evaluate(func(order []*graph.Entry) error {
		start := s.now()
		if s.hooks.OnTickStart != nil {
			s.guard("OnTickStart", func() {
				s.hooks.OnTickStart(ctx, &domain.TickEvent{Timestamp: start, Frame: frame, Nodes: len(order)})
			})
		}

		report.Executed = make([]domain.NodeID, 0, len(order))
		for _, entry := range order {
			s.execute(ctx, frame, entry, report)
		}

		report.Duration = s.now().Sub(start)
		if s.hooks.OnTickEnd != nil {
			s.guard("OnTickEnd", func() {
				s.hooks.OnTickEnd(ctx, &domain.TickEvent{
					Timestamp: start,
					Frame:     frame,
					Nodes:     len(order),
					Failures:  len(report.Failures),
					Duration:  report.Duration,
				})
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Scheduler) execute(ctx context.Context, frame uint64, entry *graph.Entry, report *domain.TickReport) {
	entry.Pull()

	start := s.now()
	err := invoke(ctx, entry)
	event := &domain.NodeEvent{
		Frame:    frame,
		NodeID:   entry.ID,
		Variant:  entry.Node.Variant(),
		Duration: s.now().Sub(start),
	}
	report.Executed = append(report.Executed, entry.ID)

	if err == nil {
		if s.hooks.OnNodeExecuted != nil {
			s.guard("OnNodeExecuted", func() { s.hooks.OnNodeExecuted(ctx, event) })
		}
		return
	}

	// Partial writes from a failed node are discarded.
	entry.ResetOutputs()

	failure := &domain.NodeExecutionError{Frame: frame, NodeID: entry.ID, Variant: event.Variant, Err: err}
	report.Failures = append(report.Failures, failure)
	event.Err = failure

	s.logger.Warn("node execution failed",
		"frame", frame,
		"node_id", entry.ID,
		"variant", event.Variant,
		"err", err,
	)
	if s.hooks.OnNodeError != nil {
		s.guard("OnNodeError", func() { s.hooks.OnNodeError(ctx, event) })
	}
}

// guard runs a lifecycle hook. A panicking hook is logged and the tick goes on.
func (s *Scheduler) guard(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lifecycle hook panicked", "hook", hook, "err", fmt.Errorf("%v", r))
		}
	}()
	fn()
}

func invoke(ctx context.Context, entry *graph.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrNodePanic, r)
		}
	}()
	return entry.Node.Execute(ctx, graph.NewIO(entry))
}
