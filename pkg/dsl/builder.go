package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/domain"
)

// Builder manages the topology construction.
type Builder struct {
	nodes []*NodeBuilder
	index map[domain.NodeID]*NodeBuilder
}

// New creates a new topology builder.
func New() *Builder {
	return &Builder{
		index: make(map[domain.NodeID]*NodeBuilder),
	}
}

// Add declares a node of the given variant.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id domain.NodeID, variant domain.Variant) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		spec:    framegraph.NodeSpec{ID: id, Variant: variant},
		builder: b,
	}
	b.nodes = append(b.nodes, nb)
	b.index[id] = nb
	return nb
}

func (b *Builder) Source(id domain.NodeID) *NodeBuilder {
	return b.Add(id, domain.VariantSource)
}

func (b *Builder) Face(id domain.NodeID) *NodeBuilder {
	return b.Add(id, domain.VariantFace)
}

func (b *Builder) Hand(id domain.NodeID) *NodeBuilder {
	return b.Add(id, domain.VariantHand)
}

func (b *Builder) Overlay(id domain.NodeID) *NodeBuilder {
	return b.Add(id, domain.VariantOverlay)
}

func (b *Builder) Mapper(id domain.NodeID) *NodeBuilder {
	return b.Add(id, domain.VariantMapper)
}

func (b *Builder) Output(id domain.NodeID) *NodeBuilder {
	return b.Add(id, domain.VariantOutput)
}

// Build compiles the declarations into a topology. Edges naming a node that
// was never declared are reported together; port compatibility is left to
// the engine when the topology is replayed.
func (b *Builder) Build() (framegraph.Topology, error) {
	var t framegraph.Topology
	var errs []error
	for _, nb := range b.nodes {
		t.Nodes = append(t.Nodes, nb.Build())
	}
	for _, nb := range b.nodes {
		for _, e := range nb.inputs {
			if _, ok := b.index[e.From]; !ok {
				errs = append(errs, fmt.Errorf("%s.%s reads from %s: %w", e.To, e.ToPort, e.From, domain.ErrNodeNotFound))
				continue
			}
			t.Edges = append(t.Edges, e)
		}
	}
	if len(errs) > 0 {
		return framegraph.Topology{}, errors.Join(errs...)
	}
	return t, nil
}
