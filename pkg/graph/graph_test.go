package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubNode declares arbitrary ports and records executions.
type stubNode struct {
	ports  []domain.PortSpec
	exec   func(ctx context.Context, io *graph.IO) error
	closed int
}

func (s *stubNode) Variant() domain.Variant  { return domain.VariantMapper }
func (s *stubNode) Ports() []domain.PortSpec { return s.ports }
func (s *stubNode) Execute(ctx context.Context, io *graph.IO) error {
	if s.exec != nil {
		return s.exec(ctx, io)
	}
	return nil
}
func (s *stubNode) Close() error {
	s.closed++
	return nil
}

func numNode() *stubNode {
	return &stubNode{ports: []domain.PortSpec{
		domain.In("in", domain.KindNumber),
		domain.Out("out", domain.KindNumber),
	}}
}

func TestGraph_AddNodeGeneratesIDs(t *testing.T) {
	g := graph.New()

	a, err := g.AddNode(numNode())
	require.NoError(t, err)
	b, err := g.AddNode(numNode())
	require.NoError(t, err)

	assert.Equal(t, domain.NodeID("n1"), a)
	assert.Equal(t, domain.NodeID("n2"), b)
	assert.Equal(t, 2, g.Len())
}

func TestGraph_AddNamedRejectsDuplicates(t *testing.T) {
	g := graph.New()
	_, err := g.AddNamed("x", numNode())
	require.NoError(t, err)

	_, err = g.AddNamed("x", numNode())
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)

	_, err = g.AddNode(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidNode)

	bad := &stubNode{ports: []domain.PortSpec{
		domain.In("a", domain.KindNumber),
		domain.Out("a", domain.KindNumber),
	}}
	_, err = g.AddNode(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidNode)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_ConnectValidation(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(numNode())
	b, _ := g.AddNode(numNode())
	img, _ := g.AddNode(&stubNode{ports: []domain.PortSpec{domain.In("frame", domain.KindImage)}})

	tests := []struct {
		name    string
		src     domain.NodeID
		srcPort string
		dst     domain.NodeID
		dstPort string
		want    error
	}{
		{"unknown source node", "zz", "out", b, "in", domain.ErrNodeNotFound},
		{"unknown port", a, "nope", b, "in", domain.ErrPortNotFound},
		{"input used as source", a, "in", b, "in", domain.ErrInvalidPort},
		{"output used as target", a, "out", b, "out", domain.ErrInvalidPort},
		{"kind mismatch", a, "out", img, "frame", domain.ErrTypeMismatch},
		{"self loop", a, "out", a, "in", domain.ErrSelfLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := g.Version()
			_, err := g.Connect(tt.src, tt.srcPort, tt.dst, tt.dstPort)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, g.Edges())
			assert.Equal(t, before, g.Version())
		})
	}
}

func TestGraph_PortOccupied(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(numNode())
	b, _ := g.AddNode(numNode())
	c, _ := g.AddNode(numNode())

	_, err := g.Connect(a, "out", c, "in")
	require.NoError(t, err)

	_, err = g.Connect(b, "out", c, "in")
	assert.ErrorIs(t, err, domain.ErrPortOccupied)

	// Fan-out from one output is allowed.
	_, err = g.Connect(a, "out", b, "in")
	assert.NoError(t, err)
	assert.Len(t, g.Edges(), 2)
}

func TestGraph_CycleRejected(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(numNode())
	b, _ := g.AddNode(numNode())
	c, _ := g.AddNode(numNode())

	_, err := g.Connect(a, "out", b, "in")
	require.NoError(t, err)
	_, err = g.Connect(b, "out", c, "in")
	require.NoError(t, err)

	_, err = g.Connect(c, "out", a, "in")
	assert.True(t, errors.Is(err, domain.ErrCycleDetected))
	assert.Len(t, g.Edges(), 2)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{a, b, c}, order)
}

func TestGraph_OrderRespectsEdgesAndInsertion(t *testing.T) {
	g := graph.New()
	// Inserted consumer-first so insertion order alone would be wrong.
	sink, _ := g.AddNamed("sink", numNode())
	mid, _ := g.AddNamed("mid", numNode())
	head, _ := g.AddNamed("head", numNode())
	free, _ := g.AddNamed("free", numNode())

	_, err := g.Connect(head, "out", mid, "in")
	require.NoError(t, err)
	_, err = g.Connect(mid, "out", sink, "in")
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{head, mid, sink, free}, order)
}

func TestGraph_OrderIsDeterministicAcrossReplays(t *testing.T) {
	build := func() []domain.NodeID {
		g := graph.New()
		ids := make([]domain.NodeID, 6)
		for i := range ids {
			ids[i], _ = g.AddNode(numNode())
		}
		_, _ = g.Connect(ids[5], "out", ids[0], "in")
		_, _ = g.Connect(ids[3], "out", ids[1], "in")
		order, err := g.Order()
		require.NoError(t, err)
		return order
	}

	first := build()
	for range 10 {
		assert.Equal(t, first, build())
	}
	assert.Equal(t, []domain.NodeID{"n3", "n4", "n2", "n5", "n6", "n1"}, first)
}

func TestGraph_OrderCachedUntilMutation(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(numNode())
	b, _ := g.AddNode(numNode())

	for range 5 {
		_, err := g.Order()
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(1), g.Sorts())

	_, err := g.Connect(a, "out", b, "in")
	require.NoError(t, err)
	_, err = g.Order()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), g.Sorts())
}

func TestGraph_RemoveNodeCascades(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(numNode())
	removed := numNode()
	b, _ := g.AddNode(removed)
	c, _ := g.AddNode(numNode())

	_, _ = g.Connect(a, "out", b, "in")
	_, _ = g.Connect(b, "out", c, "in")

	require.NoError(t, g.RemoveNode(b))
	assert.Empty(t, g.Edges())
	assert.Equal(t, 1, removed.closed)

	err := g.RemoveNode(b)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	// c's input is free again.
	_, err = g.Connect(a, "out", c, "in")
	assert.NoError(t, err)
}

func TestGraph_DisconnectResetsTarget(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNode(&stubNode{
		ports: []domain.PortSpec{domain.Out("out", domain.KindNumber)},
		exec:  func(_ context.Context, io *graph.IO) error { return io.Set("out", 7.0) },
	})
	b, _ := g.AddNode(numNode())
	edge, err := g.Connect(a, "out", b, "in")
	require.NoError(t, err)

	runAll(t, g)
	v, err := g.Value(b, "in")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	require.NoError(t, g.Disconnect(edge))
	v, _ = g.Value(b, "in")
	assert.Equal(t, 0.0, v)

	assert.ErrorIs(t, g.Disconnect(edge), domain.ErrEdgeNotFound)
}

func TestGraph_ClearClosesNodes(t *testing.T) {
	g := graph.New()
	n1, n2 := numNode(), numNode()
	a, _ := g.AddNode(n1)
	b, _ := g.AddNode(n2)
	_, _ = g.Connect(a, "out", b, "in")

	g.Clear()

	assert.Zero(t, g.Len())
	assert.Empty(t, g.Edges())
	assert.Equal(t, 1, n1.closed)
	assert.Equal(t, 1, n2.closed)

	// IDs are not reused after a clear.
	id, _ := g.AddNode(numNode())
	assert.Equal(t, domain.NodeID("n3"), id)
}

func TestGraph_ReplaceSwapsContents(t *testing.T) {
	g := graph.New()
	old1, old2 := numNode(), numNode()
	a, _ := g.AddNamed("a", old1)
	b, _ := g.AddNamed("b", old2)
	_, err := g.Connect(a, "out", b, "in")
	require.NoError(t, err)
	version := g.Version()

	staged := graph.New()
	for _, id := range []domain.NodeID{"z", "y", "x"} {
		_, err := staged.AddNamed(id, numNode())
		require.NoError(t, err)
	}
	_, err = staged.Connect("x", "out", "y", "in")
	require.NoError(t, err)
	_, err = staged.Connect("y", "out", "z", "in")
	require.NoError(t, err)

	g.Replace(staged)

	assert.Equal(t, 1, old1.closed)
	assert.Equal(t, 1, old2.closed)
	assert.Zero(t, staged.Len())
	assert.Greater(t, g.Version(), version)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{"x", "y", "z"}, order)

	// Edge IDs continue from the receiving graph.
	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, domain.EdgeID("e2"), edges[0].ID)
	assert.Equal(t, domain.EdgeID("e3"), edges[1].ID)
	require.NoError(t, g.Disconnect("e2"))
	_, err = g.Connect("x", "out", "y", "in")
	assert.NoError(t, err)

	runAll(t, g)
}

func TestGraph_View(t *testing.T) {
	g := graph.New()
	a, _ := g.AddNamed("src", numNode())
	b, _ := g.AddNamed("dst", numNode())
	_, _ = g.Connect(a, "out", b, "in")

	view, err := g.View()
	require.NoError(t, err)

	require.Len(t, view.Nodes, 2)
	assert.Equal(t, []domain.NodeID{"src", "dst"}, view.Order)
	require.Len(t, view.Edges, 1)
	assert.Equal(t, domain.KindNumber, view.Edges[0].Kind)

	n, ok := view.Node("dst")
	require.True(t, ok)
	assert.Equal(t, "in", n.Inputs[0].Name)
}

func runAll(t *testing.T, g *graph.Graph) {
	t.Helper()
	err := g.Evaluate(func(order []*graph.Entry) error {
		for _, e := range order {
			e.Pull()
			if err := e.Node.Execute(context.Background(), graph.NewIO(e)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}
