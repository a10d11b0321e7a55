package domain

import (
	"errors"
	"fmt"
)

// Graph mutation errors. They are returned by connect/add/remove operations and
// always leave the graph unchanged.
var (
	// ErrTypeMismatch is returned when two ports of different kinds are connected,
	// or when a node writes a value of the wrong kind to an output port.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrPortOccupied is returned when the target input already has an incoming edge.
	ErrPortOccupied = errors.New("input port already connected")
	// ErrCycleDetected is returned when an edge would close a cycle.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrSelfLoop is returned when an edge connects a node to itself.
	ErrSelfLoop = errors.New("self-loops are not allowed")

	ErrNodeNotFound   = errors.New("node not found")
	ErrPortNotFound   = errors.New("port not found")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrDuplicateNode  = errors.New("duplicate node ID")
	ErrInvalidNode    = errors.New("invalid node")
	ErrInvalidPort    = errors.New("invalid port direction")
	ErrUnknownVariant = errors.New("unknown node variant")
	ErrUnknownKind    = errors.New("unknown value kind")
)

// ErrNodePanic marks a node failure caused by a recovered panic.
var ErrNodePanic = errors.New("node panicked")

// NodeExecutionError describes a node that failed during a tick.
// The scheduler contains it: the node's outputs fall back to their defaults and
// the tick continues.
type NodeExecutionError struct {
	Frame   uint64  `json:"frame"`
	NodeID  NodeID  `json:"node_id"`
	Variant Variant `json:"variant"`
	Err     error   `json:"-"`
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s (%s) failed at frame %d: %v", e.NodeID, e.Variant, e.Frame, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// ErrEngineClosed is returned by operations on an engine after Close.
var ErrEngineClosed = errors.New("engine closed")
