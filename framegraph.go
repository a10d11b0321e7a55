package framegraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/internal/runtime"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/aretw0/framegraph/pkg/nodes"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Engine is the high-level entry point for the framegraph library.
// It owns the graph, the scheduler and the collaborators nodes are built from,
// and is the single mutable context handed to the frame driver.
type Engine struct {
	graph     *graph.Graph
	scheduler *runtime.Scheduler
	deps      nodes.Deps
	topology  Topology
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	closed    atomic.Bool
	Name      string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDeps sets the collaborators (capture, landmarkers, publisher) nodes are built with.
func WithDeps(deps nodes.Deps) Option {
	return func(e *Engine) {
		e.deps = deps
	}
}

// WithTopology replaces the topology Reset rebuilds (default: DefaultTopology).
func WithTopology(t Topology) Option {
	return func(e *Engine) {
		e.topology = t
	}
}

// WithName labels the engine in logs.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New creates an engine with an empty graph. Call Reset to build the default pipeline.
func New(opts ...Option) *Engine {
	eng := &Engine{topology: DefaultTopology()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}
	if eng.deps.Logger == nil {
		eng.deps.Logger = eng.logger
	}

	eng.graph = graph.New(graph.WithLogger(eng.logger))
	eng.scheduler = runtime.NewScheduler(eng.graph,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	return eng
}

// AddNode builds a node of the given variant and inserts it under a generated ID.
func (e *Engine) AddNode(variant domain.Variant, config map[string]any) (domain.NodeID, error) {
	return e.AddNodeAs("", variant, config)
}

// AddNodeAs builds a node and inserts it under id.
func (e *Engine) AddNodeAs(id domain.NodeID, variant domain.Variant, config map[string]any) (domain.NodeID, error) {
	if e.closed.Load() {
		return "", domain.ErrEngineClosed
	}
	if _, exists := e.graph.Node(id); id != "" && exists {
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateNode, id)
	}
	node, err := nodes.New(variant, config, e.nodeDeps())
	if err != nil {
		return "", err
	}
	added, err := e.graph.AddNamed(id, node)
	if err != nil {
		// The node never made it into the graph; release what it holds.
		closeNode(node)
		return "", err
	}
	return added, nil
}

// RemoveNode deletes a node, its edges, and releases its resources.
func (e *Engine) RemoveNode(id domain.NodeID) error {
	return e.graph.RemoveNode(id)
}

// Connect routes an output port to an input port.
func (e *Engine) Connect(src domain.NodeID, srcPort string, dst domain.NodeID, dstPort string) (domain.EdgeID, error) {
	if e.closed.Load() {
		return "", domain.ErrEngineClosed
	}
	return e.graph.Connect(src, srcPort, dst, dstPort)
}

// Disconnect removes an edge.
func (e *Engine) Disconnect(id domain.EdgeID) error {
	return e.graph.Disconnect(id)
}

// Clear empties the graph.
func (e *Engine) Clear() {
	e.graph.Clear()
}

// Reset replaces the graph with the configured topology. The topology is
// built aside and swapped in at once: ticks never see a partial graph, and a
// topology that fails to build leaves the current graph untouched.
func (e *Engine) Reset() error {
	return e.rebuild(e.topology)
}

func (e *Engine) rebuild(t Topology) error {
	if e.closed.Load() {
		return domain.ErrEngineClosed
	}
	staged, err := t.stage(e.nodeDeps(), e.logger)
	if err != nil {
		return fmt.Errorf("failed to build topology: %w", err)
	}
	e.graph.Replace(staged)
	e.logger.Info("graph reset", "nodes", e.graph.Len(), "edges", len(e.graph.Edges()))
	return nil
}

// Tick evaluates every node once. Node failures are reported, not returned.
func (e *Engine) Tick(ctx context.Context, frame uint64) (*domain.TickReport, error) {
	if e.closed.Load() {
		return nil, domain.ErrEngineClosed
	}
	return e.scheduler.Tick(ctx, frame)
}

// Inspect returns the current graph structure for visualization or introspection tools.
func (e *Engine) Inspect() (domain.GraphView, error) {
	return e.graph.View()
}

// Value returns the last value published on a port.
func (e *Engine) Value(id domain.NodeID, port string) (any, error) {
	return e.graph.Value(id, port)
}

// Node returns the node stored under id.
func (e *Engine) Node(id domain.NodeID) (graph.Node, bool) {
	return e.graph.Node(id)
}

// Graph exposes the underlying graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Close waits for an in-flight tick, then removes every node and releases the
// capture device and landmarkers. Further ticks fail with ErrEngineClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.graph.Clear()

	var errs []error
	for _, dev := range []any{e.deps.Capture, e.deps.Face, e.deps.Hand} {
		if c, ok := dev.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	e.logger.Debug("engine closed")
	return errors.Join(errs...)
}

// nodeDeps is e.deps with Close hidden on every device. The engine owns the
// devices: removing or replacing a node leaves them open for its successor,
// and Close releases them once.
func (e *Engine) nodeDeps() nodes.Deps {
	d := e.deps
	if d.Capture != nil {
		d.Capture = sharedCapture{d.Capture}
	}
	if d.Face != nil {
		d.Face = sharedLandmarker{d.Face}
	}
	if d.Hand != nil {
		d.Hand = sharedLandmarker{d.Hand}
	}
	return d
}

type sharedCapture struct{ ports.Capture }

type sharedLandmarker struct{ ports.Landmarker }

func closeNode(n graph.Node) {
	if c, ok := n.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
