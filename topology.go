package framegraph

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/aretw0/framegraph/pkg/nodes"
)

// Default node IDs.
const (
	NodeSource  domain.NodeID = "source"
	NodeFace    domain.NodeID = "face"
	NodeHand    domain.NodeID = "hand"
	NodeOverlay domain.NodeID = "overlay"
	NodeMapper  domain.NodeID = "mapper"
	NodeOutput  domain.NodeID = "output"
)

// NodeSpec describes a node to add.
type NodeSpec struct {
	ID      domain.NodeID  `json:"id" yaml:"id" mapstructure:"id"`
	Variant domain.Variant `json:"variant" yaml:"variant" mapstructure:"variant"`
	Config  map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
}

// EdgeSpec describes a connection to make.
type EdgeSpec struct {
	From     domain.NodeID `json:"from" yaml:"from" mapstructure:"from"`
	FromPort string        `json:"from_port" yaml:"from_port" mapstructure:"from_port"`
	To       domain.NodeID `json:"to" yaml:"to" mapstructure:"to"`
	ToPort   string        `json:"to_port" yaml:"to_port" mapstructure:"to_port"`
}

// Topology is a replayable sequence of AddNode and Connect calls.
type Topology struct {
	Nodes []NodeSpec `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []EdgeSpec `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// DefaultTopology is the standard pipeline:
//
//	source -> face, hand -> overlay -> output
//	face, hand metrics -> mapper -> output
func DefaultTopology() Topology {
	return Topology{
		Nodes: []NodeSpec{
			{ID: NodeSource, Variant: domain.VariantSource},
			{ID: NodeFace, Variant: domain.VariantFace},
			{ID: NodeHand, Variant: domain.VariantHand},
			{ID: NodeOverlay, Variant: domain.VariantOverlay},
			{ID: NodeMapper, Variant: domain.VariantMapper},
			{ID: NodeOutput, Variant: domain.VariantOutput},
		},
		Edges: []EdgeSpec{
			{NodeSource, nodes.PortFrame, NodeFace, nodes.PortFrame},
			{NodeSource, nodes.PortTimestamp, NodeFace, nodes.PortTimestamp},
			{NodeSource, nodes.PortFrame, NodeHand, nodes.PortFrame},
			{NodeSource, nodes.PortTimestamp, NodeHand, nodes.PortTimestamp},
			{NodeSource, nodes.PortFrame, NodeOverlay, nodes.PortFrame},
			{NodeFace, nodes.PortLandmarks, NodeOverlay, nodes.PortFace},
			{NodeHand, nodes.PortLandmarks, NodeOverlay, nodes.PortHand},
			{NodeFace, nodes.PortMetrics, NodeMapper, nodes.PortFace},
			{NodeHand, nodes.PortMetrics, NodeMapper, nodes.PortHand},
			{NodeOverlay, nodes.PortImage, NodeOutput, nodes.PortImage},
			{NodeMapper, nodes.PortControl, NodeOutput, nodes.PortControl},
		},
	}
}

// WithNodeConfig returns a copy of t with config merged into the named nodes.
func (t Topology) WithNodeConfig(overrides map[domain.NodeID]map[string]any) Topology {
	out := Topology{Edges: append([]EdgeSpec(nil), t.Edges...)}
	for _, n := range t.Nodes {
		merged := make(map[string]any, len(n.Config))
		for k, v := range n.Config {
			merged[k] = v
		}
		for k, v := range overrides[n.ID] {
			merged[k] = v
		}
		if len(merged) == 0 {
			merged = nil
		}
		out.Nodes = append(out.Nodes, NodeSpec{ID: n.ID, Variant: n.Variant, Config: merged})
	}
	return out
}

// Apply adds the topology's nodes and edges to the engine's current graph, in
// order. It stops at the first error and keeps what was added before it; use
// Engine.Reset to swap in a whole topology atomically.
func (t Topology) Apply(e *Engine) error {
	for _, n := range t.Nodes {
		if _, err := e.AddNodeAs(n.ID, n.Variant, n.Config); err != nil {
			return err
		}
	}
	for _, c := range t.Edges {
		if _, err := e.Connect(c.From, c.FromPort, c.To, c.ToPort); err != nil {
			return err
		}
	}
	return nil
}

// BuildDefault replaces e's graph with the default pipeline, ignoring any
// topology configured with WithTopology.
func BuildDefault(e *Engine) error {
	return e.rebuild(DefaultTopology())
}

// stage builds t on a detached graph. On error every node built so far is
// closed and nil is returned.
func (t Topology) stage(deps nodes.Deps, logger *slog.Logger) (*graph.Graph, error) {
	g := graph.New(graph.WithLogger(logger))
	for _, n := range t.Nodes {
		node, err := nodes.New(n.Variant, n.Config, deps)
		if err != nil {
			g.Clear()
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		if _, err := g.AddNamed(n.ID, node); err != nil {
			closeNode(node)
			g.Clear()
			return nil, err
		}
	}
	for _, c := range t.Edges {
		if _, err := g.Connect(c.From, c.FromPort, c.To, c.ToPort); err != nil {
			g.Clear()
			return nil, err
		}
	}
	return g, nil
}
