package dsl

import (
	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
)

// NodeBuilder provides a fluent API for configuring a node and its inputs.
type NodeBuilder struct {
	spec    framegraph.NodeSpec
	inputs  []framegraph.EdgeSpec
	builder *Builder
}

// Set adds a configuration key to the node.
func (n *NodeBuilder) Set(key string, value any) *NodeBuilder {
	if n.spec.Config == nil {
		n.spec.Config = make(map[string]any)
	}
	n.spec.Config[key] = value
	return n
}

// Sync makes a landmark node run inference inline instead of in the background.
func (n *NodeBuilder) Sync() *NodeBuilder {
	return n.Set("async", false)
}

// Mirror flips the overlay horizontally.
func (n *NodeBuilder) Mirror() *NodeBuilder {
	return n.Set("mirror", true)
}

// Trail configures the output's trail buffer.
func (n *NodeBuilder) Trail(decay float64, length int) *NodeBuilder {
	return n.Set("trail_decay", decay).Set("trail_length", length)
}

// Feed connects port of src into this node's port toPort.
func (n *NodeBuilder) Feed(src domain.NodeID, port, toPort string) *NodeBuilder {
	n.inputs = append(n.inputs, framegraph.EdgeSpec{
		From:     src,
		FromPort: port,
		To:       n.spec.ID,
		ToPort:   toPort,
	})
	return n
}

// Watch feeds a source's frame and timestamp into a landmark node.
func (n *NodeBuilder) Watch(source domain.NodeID) *NodeBuilder {
	return n.Feed(source, nodes.PortFrame, nodes.PortFrame).
		Feed(source, nodes.PortTimestamp, nodes.PortTimestamp)
}

// Frame feeds a source's frame into an overlay.
func (n *NodeBuilder) Frame(source domain.NodeID) *NodeBuilder {
	return n.Feed(source, nodes.PortFrame, nodes.PortFrame)
}

// Face feeds a face node into this node: its landmarks for an overlay, its
// metrics otherwise.
func (n *NodeBuilder) Face(face domain.NodeID) *NodeBuilder {
	return n.Feed(face, n.landmarkPort(), nodes.PortFace)
}

// Hand is Face for hand nodes.
func (n *NodeBuilder) Hand(hand domain.NodeID) *NodeBuilder {
	return n.Feed(hand, n.landmarkPort(), nodes.PortHand)
}

// Image feeds an overlay's composited image into an output.
func (n *NodeBuilder) Image(overlay domain.NodeID) *NodeBuilder {
	return n.Feed(overlay, nodes.PortImage, nodes.PortImage)
}

// Control feeds a mapper's control record into an output.
func (n *NodeBuilder) Control(mapper domain.NodeID) *NodeBuilder {
	return n.Feed(mapper, nodes.PortControl, nodes.PortControl)
}

func (n *NodeBuilder) landmarkPort() string {
	if n.spec.Variant == domain.VariantOverlay {
		return nodes.PortLandmarks
	}
	return nodes.PortMetrics
}

// Builder returns the builder this node belongs to, for chaining.
func (n *NodeBuilder) Builder() *Builder {
	return n.builder
}

// Build returns the node declaration.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() framegraph.NodeSpec {
	return n.spec
}
