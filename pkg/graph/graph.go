package graph

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
)

// Graph owns a set of nodes and the edges between them, and keeps them acyclic.
//
// Every mutation validates completely before changing anything, so a failed call
// leaves the graph untouched. Mutations and Evaluate share one lock: a tick never
// observes a half-applied mutation, and a mutation never interleaves with a tick.
type Graph struct {
	mu sync.Mutex

	nodes map[domain.NodeID]*Entry
	edges map[domain.EdgeID]*domain.Edge

	nextSeq  uint64
	nextEdge uint64

	// version increments on every topology change; order is valid while
	// orderVersion == version.
	version      uint64
	order        []*Entry
	orderVersion uint64
	sorts        uint64

	logger *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:   make(map[domain.NodeID]*Entry),
		edges:   make(map[domain.EdgeID]*domain.Edge),
		version: 1,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode inserts a node under a generated ID ("n1", "n2", ...).
func (g *Graph) AddNode(node Node) (domain.NodeID, error) {
	return g.AddNamed("", node)
}

// AddNamed inserts a node under the given ID. An empty ID generates one.
func (g *Graph) AddNamed(id domain.NodeID, node Node) (domain.NodeID, error) {
	if node == nil {
		return "", fmt.Errorf("%w: nil node", domain.ErrInvalidNode)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if id == "" {
		id = g.generateID()
	} else if _, exists := g.nodes[id]; exists {
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateNode, id)
	}

	entry, err := newEntry(id, node)
	if err != nil {
		return "", err
	}

	g.nextSeq++
	entry.seq = g.nextSeq
	g.nodes[id] = entry
	g.invalidate()

	g.logger.Debug("node added", "node_id", id, "variant", node.Variant())
	return id, nil
}

func newEntry(id domain.NodeID, node Node) (*Entry, error) {
	entry := &Entry{
		ID:     id,
		Node:   node,
		byName: make(map[string]*Port),
	}
	for _, spec := range node.Ports() {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: %s declares an unnamed port", domain.ErrInvalidNode, id)
		}
		if !spec.Kind.Valid() {
			return nil, fmt.Errorf("%w: %s.%s: %w", domain.ErrInvalidNode, id, spec.Name, domain.ErrUnknownKind)
		}
		if _, dup := entry.byName[spec.Name]; dup {
			return nil, fmt.Errorf("%w: %s declares port %q twice", domain.ErrInvalidNode, id, spec.Name)
		}
		port := newPort(id, spec)
		switch spec.Direction {
		case domain.Input:
			entry.inputs = append(entry.inputs, port)
		case domain.Output:
			entry.outputs = append(entry.outputs, port)
		default:
			return nil, fmt.Errorf("%w: %s.%s", domain.ErrInvalidPort, id, spec.Name)
		}
		entry.byName[spec.Name] = port
	}
	return entry, nil
}

func (g *Graph) generateID() domain.NodeID {
	for n := g.nextSeq + 1; ; n++ {
		id := domain.NodeID("n" + strconv.FormatUint(n, 10))
		if _, taken := g.nodes[id]; !taken {
			return id
		}
	}
}

// RemoveNode deletes a node and every edge touching it. Nodes implementing
// io.Closer are closed after removal.
func (g *Graph) RemoveNode(id domain.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}

	for edgeID, e := range g.edges {
		if e.From == id || e.To == id {
			g.unlink(edgeID)
		}
	}
	delete(g.nodes, id)
	g.invalidate()
	g.closeNode(entry)

	g.logger.Debug("node removed", "node_id", id)
	return nil
}

// Connect routes the output port srcPort of src to the input port dstPort of dst.
func (g *Graph) Connect(src domain.NodeID, srcPort string, dst domain.NodeID, dstPort string) (domain.EdgeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	from, err := g.port(src, srcPort, domain.Output)
	if err != nil {
		return "", err
	}
	to, err := g.port(dst, dstPort, domain.Input)
	if err != nil {
		return "", err
	}

	if from.Kind() != to.Kind() {
		return "", fmt.Errorf("%w: %s.%s (%s) -> %s.%s (%s)",
			domain.ErrTypeMismatch, src, srcPort, from.Kind(), dst, dstPort, to.Kind())
	}
	if to.source != nil {
		return "", fmt.Errorf("%w: %s.%s is fed by edge %s", domain.ErrPortOccupied, dst, dstPort, to.edge)
	}
	if src == dst {
		return "", fmt.Errorf("%w: %s", domain.ErrSelfLoop, src)
	}
	if g.reachable(dst, src) {
		return "", fmt.Errorf("%w: %s -> %s", domain.ErrCycleDetected, src, dst)
	}

	g.nextEdge++
	edge := &domain.Edge{
		ID:       domain.EdgeID("e" + strconv.FormatUint(g.nextEdge, 10)),
		From:     src,
		FromPort: srcPort,
		To:       dst,
		ToPort:   dstPort,
		Kind:     from.Kind(),
	}
	g.edges[edge.ID] = edge
	to.source = from
	to.edge = edge.ID
	g.invalidate()

	g.logger.Debug("edge connected", "edge_id", edge.ID, "from", src, "from_port", srcPort, "to", dst, "to_port", dstPort)
	return edge.ID, nil
}

// Disconnect removes an edge. The target input falls back to its kind default.
func (g *Graph) Disconnect(id domain.EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.edges[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrEdgeNotFound, id)
	}
	g.unlink(id)
	g.invalidate()
	return nil
}

// Clear removes every node and edge, closing nodes that implement io.Closer.
// ID counters keep increasing so stale IDs are never reused.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	entries := g.sortedEntries()
	g.nodes = make(map[domain.NodeID]*Entry)
	g.edges = make(map[domain.EdgeID]*domain.Edge)
	g.invalidate()

	for _, entry := range entries {
		g.closeNode(entry)
	}
}

// Replace moves every node and edge of staged into g in one step and closes
// the nodes it displaces. A concurrent Evaluate sees either the old graph or
// the new one. Edge IDs and insertion order continue from g's counters;
// staged is left empty.
func (g *Graph) Replace(staged *Graph) {
	if staged == g {
		return
	}

	staged.mu.Lock()
	entries := staged.sortedEntries()
	edges := make([]*domain.Edge, 0, len(staged.edges))
	for _, e := range staged.edges {
		edges = append(edges, e)
	}
	staged.nodes = make(map[domain.NodeID]*Entry)
	staged.edges = make(map[domain.EdgeID]*domain.Edge)
	staged.invalidate()
	staged.mu.Unlock()

	slices.SortFunc(edges, func(a, b *domain.Edge) int {
		return compareSeqID(string(a.ID), string(b.ID))
	})

	g.mu.Lock()
	defer g.mu.Unlock()

	displaced := g.sortedEntries()
	g.nodes = make(map[domain.NodeID]*Entry, len(entries))
	g.edges = make(map[domain.EdgeID]*domain.Edge, len(edges))
	for _, entry := range entries {
		g.nextSeq++
		entry.seq = g.nextSeq
		g.nodes[entry.ID] = entry
	}
	for _, e := range edges {
		g.nextEdge++
		e.ID = domain.EdgeID("e" + strconv.FormatUint(g.nextEdge, 10))
		g.edges[e.ID] = e
		if in := g.nodes[e.To].Port(e.ToPort); in != nil {
			in.edge = e.ID
		}
	}
	g.invalidate()

	for _, entry := range displaced {
		g.closeNode(entry)
	}
	g.logger.Debug("graph replaced", "nodes", len(entries), "edges", len(edges))
}

// unlink drops an edge and detaches its target input. Caller holds mu.
func (g *Graph) unlink(id domain.EdgeID) {
	e := g.edges[id]
	delete(g.edges, id)
	if target, ok := g.nodes[e.To]; ok {
		if in := target.Port(e.ToPort); in != nil {
			in.source = nil
			in.edge = ""
			in.reset()
		}
	}
}

func (g *Graph) port(id domain.NodeID, name string, dir domain.Direction) (*Port, error) {
	entry, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	p := entry.Port(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrPortNotFound, id, name)
	}
	if p.Direction() != dir {
		return nil, fmt.Errorf("%w: %s.%s is an %s port", domain.ErrInvalidPort, id, name, p.Direction())
	}
	return p, nil
}

// reachable reports whether to can be reached from from by following edges.
func (g *Graph) reachable(from, to domain.NodeID) bool {
	children := g.adjacency()
	seen := map[domain.NodeID]bool{from: true}
	stack := []domain.NodeID{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		for _, c := range children[n] {
			if !seen[c] {
				seen[c] = true
				stack = append(stack, c)
			}
		}
	}
	return false
}

func (g *Graph) adjacency() map[domain.NodeID][]domain.NodeID {
	children := make(map[domain.NodeID][]domain.NodeID, len(g.nodes))
	for _, e := range g.edges {
		children[e.From] = append(children[e.From], e.To)
	}
	return children
}

func (g *Graph) invalidate() {
	g.version++
}

func (g *Graph) closeNode(entry *Entry) {
	c, ok := entry.Node.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		g.logger.Warn("node close failed", "node_id", entry.ID, "err", err)
	}
}

// Evaluate runs fn with the graph locked and the current evaluation order.
// The order is recomputed only if the topology changed since the last call.
func (g *Graph) Evaluate(fn func(order []*Entry) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, err := g.resolveOrder()
	if err != nil {
		return err
	}
	return fn(order)
}

func (g *Graph) resolveOrder() ([]*Entry, error) {
	if g.order != nil && g.orderVersion == g.version {
		return g.order, nil
	}
	order, err := topoSort(g.nodes, g.edges)
	if err != nil {
		return nil, err
	}
	g.order = order
	g.orderVersion = g.version
	g.sorts++
	return order, nil
}

// Order returns the node IDs in evaluation order.
func (g *Graph) Order() ([]domain.NodeID, error) {
	var ids []domain.NodeID
	err := g.Evaluate(func(order []*Entry) error {
		ids = make([]domain.NodeID, len(order))
		for i, e := range order {
			ids[i] = e.ID
		}
		return nil
	})
	return ids, err
}

// Sorts returns how many times the evaluation order has been computed.
func (g *Graph) Sorts() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sorts
}

// Version returns the topology generation. It changes on every mutation.
func (g *Graph) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Node returns the node stored under id.
func (g *Graph) Node(id domain.NodeID) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return entry.Node, true
}

// Value returns the last value published on a node's port.
func (g *Graph) Value(id domain.NodeID, port string) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	p := entry.Port(port)
	if p == nil {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrPortNotFound, id, port)
	}
	return p.value, nil
}

// Edges returns every edge ordered by ID sequence.
func (g *Graph) Edges() []domain.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sortedEdges()
}

func (g *Graph) sortedEdges() []domain.Edge {
	edges := make([]domain.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, *e)
	}
	slices.SortFunc(edges, func(a, b domain.Edge) int {
		return compareSeqID(string(a.ID), string(b.ID))
	})
	return edges
}

func (g *Graph) sortedEntries() []*Entry {
	entries := make([]*Entry, 0, len(g.nodes))
	for _, e := range g.nodes {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, bySeq)
	return entries
}

// View returns a serializable snapshot of the whole graph.
func (g *Graph) View() (domain.GraphView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, err := g.resolveOrder()
	if err != nil {
		return domain.GraphView{}, err
	}

	view := domain.GraphView{
		Version: g.version,
		Edges:   g.sortedEdges(),
		Order:   make([]domain.NodeID, len(order)),
	}
	for i, e := range order {
		view.Order[i] = e.ID
	}
	for _, e := range g.sortedEntries() {
		view.Nodes = append(view.Nodes, e.View())
	}
	return view, nil
}

// compareSeqID orders generated IDs ("e2" < "e10") numerically.
func compareSeqID(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
