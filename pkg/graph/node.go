package graph

import (
	"context"

	"github.com/aretw0/framegraph/pkg/domain"
)

// Node is the contract every node variant implements.
//
// Ports returns the node's port declarations; it is read once, when the node is
// inserted into a graph. Execute reads the current input values from io, computes,
// and writes its outputs back through io. An error (or a panic) is contained by the
// scheduler: the node's outputs fall back to their kind defaults for that tick.
type Node interface {
	Variant() domain.Variant
	Ports() []domain.PortSpec
	Execute(ctx context.Context, io *IO) error
}

// Configured is implemented by nodes that expose their configuration bag for
// introspection.
type Configured interface {
	Config() map[string]any
}

// Port is a typed slot on a node. It holds the most recently published value.
type Port struct {
	spec  domain.PortSpec
	owner domain.NodeID
	value any

	// Inputs only: the output feeding this port and the edge that routes it.
	source *Port
	edge   domain.EdgeID
}

func newPort(owner domain.NodeID, spec domain.PortSpec) *Port {
	return &Port{spec: spec, owner: owner, value: spec.Kind.Zero()}
}

func (p *Port) Name() string                { return p.spec.Name }
func (p *Port) Kind() domain.Kind           { return p.spec.Kind }
func (p *Port) Direction() domain.Direction { return p.spec.Direction }
func (p *Port) Spec() domain.PortSpec       { return p.spec }
func (p *Port) Value() any                  { return p.value }

// Connected reports whether an input port has an incoming edge.
func (p *Port) Connected() bool {
	return p.source != nil
}

func (p *Port) reset() {
	p.value = p.spec.Kind.Zero()
}

// Entry is a node inserted into a graph, together with its ports.
type Entry struct {
	ID   domain.NodeID
	Node Node

	seq     uint64
	inputs  []*Port
	outputs []*Port
	byName  map[string]*Port
}

func (e *Entry) Inputs() []*Port  { return e.inputs }
func (e *Entry) Outputs() []*Port { return e.outputs }

// Port returns the port with the given name, or nil.
func (e *Entry) Port(name string) *Port {
	return e.byName[name]
}

// Pull copies the last published value of every upstream output into the
// matching input port. Unconnected inputs hold their kind's zero value.
func (e *Entry) Pull() {
	for _, in := range e.inputs {
		if in.source == nil {
			in.reset()
			continue
		}
		in.value = in.source.value
	}
}

// ResetOutputs publishes the kind default on every output port.
func (e *Entry) ResetOutputs() {
	for _, out := range e.outputs {
		out.reset()
	}
}

// View returns the serializable description of the entry.
func (e *Entry) View() domain.NodeView {
	v := domain.NodeView{
		ID:      e.ID,
		Variant: e.Node.Variant(),
		Inputs:  make([]domain.PortSpec, 0, len(e.inputs)),
		Outputs: make([]domain.PortSpec, 0, len(e.outputs)),
	}
	for _, p := range e.inputs {
		v.Inputs = append(v.Inputs, p.spec)
	}
	for _, p := range e.outputs {
		v.Outputs = append(v.Outputs, p.spec)
	}
	if c, ok := e.Node.(Configured); ok {
		v.Config = c.Config()
	}
	return v
}
