package domain

// NodeView is the serializable description of a node, used by introspection tools.
type NodeView struct {
	ID      NodeID         `json:"id"`
	Variant Variant        `json:"variant"`
	Inputs  []PortSpec     `json:"inputs"`
	Outputs []PortSpec     `json:"outputs"`
	Config  map[string]any `json:"config,omitempty"`
}

// GraphView is a point-in-time description of a graph.
// Nodes are listed in insertion order; Order is the evaluation order.
type GraphView struct {
	Version uint64     `json:"version"`
	Nodes   []NodeView `json:"nodes"`
	Edges   []Edge     `json:"edges"`
	Order   []NodeID   `json:"order"`
}

// Node returns the view of the node with the given ID.
func (v GraphView) Node(id NodeID) (NodeView, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}
