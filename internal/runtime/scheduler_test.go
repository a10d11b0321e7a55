package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/internal/runtime"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcNode struct {
	ports []domain.PortSpec
	fn    func(ctx context.Context, io *graph.IO) error
}

func (f *funcNode) Variant() domain.Variant  { return domain.VariantMapper }
func (f *funcNode) Ports() []domain.PortSpec { return f.ports }
func (f *funcNode) Execute(ctx context.Context, io *graph.IO) error {
	return f.fn(ctx, io)
}

// constant publishes v on "out".
func constant(v float64) *funcNode {
	return &funcNode{
		ports: []domain.PortSpec{domain.Out("out", domain.KindNumber)},
		fn:    func(_ context.Context, io *graph.IO) error { return io.Set("out", v) },
	}
}

// plusOne publishes in+1 on "out".
func plusOne() *funcNode {
	return &funcNode{
		ports: []domain.PortSpec{domain.In("in", domain.KindNumber), domain.Out("out", domain.KindNumber)},
		fn: func(_ context.Context, io *graph.IO) error {
			return io.Set("out", io.Number("in")+1)
		},
	}
}

func TestScheduler_ExecutesEveryNodeOnceInOrder(t *testing.T) {
	g := graph.New()
	c, _ := g.AddNamed("c", plusOne())
	b, _ := g.AddNamed("b", plusOne())
	a, _ := g.AddNamed("a", constant(1))
	_, err := g.Connect(a, "out", b, "in")
	require.NoError(t, err)
	_, err = g.Connect(b, "out", c, "in")
	require.NoError(t, err)

	var executed []domain.NodeID
	s := runtime.NewScheduler(g, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeExecuted: func(_ context.Context, e *domain.NodeEvent) {
			executed = append(executed, e.NodeID)
		},
	}))

	report, err := s.Tick(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []domain.NodeID{a, b, c}, report.Executed)
	assert.Equal(t, report.Executed, executed)
	assert.Empty(t, report.Failures)

	v, _ := g.Value(c, "out")
	assert.Equal(t, 3.0, v)
}

func TestScheduler_FailureIsContained(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNamed("a", constant(5))
	broken, _ := g.AddNamed("broken", &funcNode{
		ports: []domain.PortSpec{domain.In("in", domain.KindNumber), domain.Out("out", domain.KindNumber)},
		fn: func(_ context.Context, io *graph.IO) error {
			// Partial write before failing must not leak downstream.
			_ = io.Set("out", 99.0)
			return errors.New("model crashed")
		},
	})
	down, _ := g.AddNamed("down", plusOne())
	sibling, _ := g.AddNamed("sibling", plusOne())

	_, _ = g.Connect(a, "out", broken, "in")
	_, _ = g.Connect(broken, "out", down, "in")
	_, _ = g.Connect(a, "out", sibling, "in")

	var errored []domain.NodeID
	s := runtime.NewScheduler(g, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeError: func(_ context.Context, e *domain.NodeEvent) {
			errored = append(errored, e.NodeID)
		},
	}))

	report, err := s.Tick(context.Background(), 7)
	require.NoError(t, err)

	assert.Len(t, report.Executed, 4)
	require.Len(t, report.Failures, 1)
	assert.True(t, report.Failed(broken))
	assert.Equal(t, uint64(7), report.Failures[0].Frame)
	assert.Equal(t, []domain.NodeID{broken}, errored)

	out, _ := g.Value(broken, "out")
	assert.Equal(t, 0.0, out)
	v, _ := g.Value(down, "out")
	assert.Equal(t, 1.0, v)
	v, _ = g.Value(sibling, "out")
	assert.Equal(t, 6.0, v)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	g := graph.New()
	_, _ = g.AddNamed("panics", &funcNode{
		ports: []domain.PortSpec{domain.Out("out", domain.KindNumber)},
		fn:    func(context.Context, *graph.IO) error { panic("index out of range") },
	})
	after, _ := g.AddNamed("after", constant(2))

	report, err := runtime.NewScheduler(g).Tick(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], domain.ErrNodePanic)

	v, _ := g.Value(after, "out")
	assert.Equal(t, 2.0, v)
}

func TestScheduler_HookPanicsAreContained(t *testing.T) {
	g := graph.New()
	_, _ = g.AddNamed("fails", &funcNode{
		ports: []domain.PortSpec{domain.Out("out", domain.KindNumber)},
		fn:    func(context.Context, *graph.IO) error { return errors.New("boom") },
	})
	after, _ := g.AddNamed("after", constant(3))

	var buf bytes.Buffer
	ended := false
	s := runtime.NewScheduler(g,
		runtime.WithLogger(logging.NewWithWriter(&buf, slog.LevelDebug)),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnTickStart:    func(context.Context, *domain.TickEvent) { panic("start") },
			OnNodeExecuted: func(context.Context, *domain.NodeEvent) { panic("executed") },
			OnNodeError:    func(context.Context, *domain.NodeEvent) { panic("failed") },
			OnTickEnd: func(context.Context, *domain.TickEvent) {
				ended = true
				panic("end")
			},
		}),
	)

	var report *domain.TickReport
	var err error
	assert.NotPanics(t, func() { report, err = s.Tick(context.Background(), 1) })
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Len(t, report.Executed, 2)
	assert.Len(t, report.Failures, 1)
	assert.True(t, ended)
	v, _ := g.Value(after, "out")
	assert.Equal(t, 3.0, v)

	logs := buf.String()
	assert.Equal(t, 4, strings.Count(logs, "lifecycle hook panicked"))
	assert.Contains(t, logs, "hook=OnNodeError")
	assert.Contains(t, logs, "err=end")
}

func TestScheduler_MutationsWaitForInFlightTick(t *testing.T) {
	g := graph.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	blocker, _ := g.AddNamed("blocker", &funcNode{
		ports: []domain.PortSpec{domain.Out("out", domain.KindNumber)},
		fn: func(context.Context, *graph.IO) error {
			close(entered)
			<-release
			return nil
		},
	})

	ticked := make(chan error, 1)
	go func() {
		_, err := runtime.NewScheduler(g).Tick(context.Background(), 1)
		ticked <- err
	}()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("tick never reached the blocking node")
	}

	var added, connected atomic.Bool
	go func() {
		id, err := g.AddNamed("late", plusOne())
		if err != nil {
			return
		}
		added.Store(true)
		if _, err := g.Connect(blocker, "out", id, "in"); err == nil {
			connected.Store(true)
		}
	}()

	assert.Never(t, added.Load, 100*time.Millisecond, 5*time.Millisecond, "AddNamed finished while a node was executing")

	close(release)
	require.NoError(t, <-ticked)
	require.Eventually(t, connected.Load, time.Second, time.Millisecond)
	assert.Equal(t, 2, g.Len())
}

func TestScheduler_TickHooksAndFrameContext(t *testing.T) {
	g := graph.New()
	var seenFrame uint64
	_, _ = g.AddNode(&funcNode{
		fn: func(ctx context.Context, _ *graph.IO) error {
			seenFrame = domain.FrameFromContext(ctx)
			return nil
		},
	})

	clock := time.Unix(100, 0)
	var start, end *domain.TickEvent
	s := runtime.NewScheduler(g,
		runtime.WithClock(func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		}),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnTickStart: func(_ context.Context, e *domain.TickEvent) { start = e },
			OnTickEnd:   func(_ context.Context, e *domain.TickEvent) { end = e },
		}),
	)

	report, err := s.Tick(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, uint64(12), seenFrame)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 1, start.Nodes)
	assert.Equal(t, report.Duration, end.Duration)
	assert.Positive(t, end.Duration)
}

func TestScheduler_EmptyGraph(t *testing.T) {
	report, err := runtime.NewScheduler(graph.New()).Tick(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, report.Executed)
}
