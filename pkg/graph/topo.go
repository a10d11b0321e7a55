package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/aretw0/framegraph/pkg/domain"
)

func bySeq(a, b *Entry) int {
	return cmp.Compare(a.seq, b.seq)
}

// topoSort orders nodes so that every producer precedes its consumers (Kahn).
// Among nodes that are ready at the same time, the earlier-inserted one wins, so
// the order is deterministic for a given sequence of mutations.
func topoSort(nodes map[domain.NodeID]*Entry, edges map[domain.EdgeID]*domain.Edge) ([]*Entry, error) {
	indegree := make(map[domain.NodeID]int, len(nodes))
	children := make(map[domain.NodeID][]*Entry, len(nodes))
	for id := range nodes {
		indegree[id] = 0
	}
	for _, e := range edges {
		indegree[e.To]++
		children[e.From] = append(children[e.From], nodes[e.To])
	}

	var ready []*Entry
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, nodes[id])
		}
	}
	slices.SortFunc(ready, bySeq)

	order := make([]*Entry, 0, len(nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, child := range children[next.ID] {
			indegree[child.ID]--
			if indegree[child.ID] == 0 {
				i, _ := slices.BinarySearchFunc(ready, child, bySeq)
				ready = slices.Insert(ready, i, child)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes unordered", domain.ErrCycleDetected, len(nodes)-len(order), len(nodes))
	}
	return order, nil
}
