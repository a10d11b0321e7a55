// Package graph holds the node graph: typed ports, edges between them, and the
// deterministic evaluation order derived from those edges.
//
// A Graph never contains a cycle, an edge between ports of different kinds, or
// an input fed by more than one edge. Rejected mutations leave it unchanged.
package graph
