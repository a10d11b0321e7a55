package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
)

// ValidateTopology replays t on a scratch engine without collaborators and
// reports every node or edge the graph rejects, then crawls from the source
// nodes and reports nodes no frame can reach. It does not stop at the first
// problem.
func ValidateTopology(t framegraph.Topology) error {
	eng := framegraph.New(framegraph.WithDeps(nodes.Deps{}))
	defer eng.Close()

	var errors []string

	for _, n := range t.Nodes {
		if n.ID == "" {
			errors = append(errors, fmt.Sprintf("Node of variant '%s' has no id", n.Variant))
			continue
		}
		if _, err := eng.AddNodeAs(n.ID, n.Variant, n.Config); err != nil {
			errors = append(errors, fmt.Sprintf("Node '%s': %v", n.ID, err))
		}
	}

	for _, e := range t.Edges {
		if _, err := eng.Connect(e.From, e.FromPort, e.To, e.ToPort); err != nil {
			errors = append(errors, fmt.Sprintf("Edge %s.%s -> %s.%s: %v", e.From, e.FromPort, e.To, e.ToPort, err))
		}
	}

	view, err := eng.Inspect()
	if err != nil {
		errors = append(errors, fmt.Sprintf("Graph: %v", err))
	} else {
		errors = append(errors, unreachable(view)...)
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

// unreachable crawls the edges breadth-first from every source node.
func unreachable(view domain.GraphView) []string {
	next := make(map[domain.NodeID][]domain.NodeID)
	for _, e := range view.Edges {
		next[e.From] = append(next[e.From], e.To)
	}

	visited := make(map[domain.NodeID]bool)
	var queue []domain.NodeID
	for _, n := range view.Nodes {
		if n.Variant == domain.VariantSource {
			queue = append(queue, n.ID)
		}
	}
	if len(queue) == 0 && len(view.Nodes) > 0 {
		return []string{"Graph has no source node"}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, target := range next[current] {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var errors []string
	for _, n := range view.Nodes {
		if !visited[n.ID] {
			errors = append(errors, fmt.Sprintf("Unreachable node: '%s'", n.ID))
		}
	}
	return errors
}
