package domain

import (
	"context"
	"time"
)

// TickEvent describes the start or the end of one full graph evaluation.
type TickEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Frame     uint64        `json:"frame"`
	Nodes     int           `json:"nodes"`
	Failures  int           `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NodeEvent describes one node execution within a tick.
type NodeEvent struct {
	Frame    uint64        `json:"frame"`
	NodeID   NodeID        `json:"node_id"`
	Variant  Variant       `json:"variant"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the tick goroutine and must not block.
type LifecycleHooks struct {
	OnTickStart    func(context.Context, *TickEvent)
	OnTickEnd      func(context.Context, *TickEvent)
	OnNodeExecuted func(context.Context, *NodeEvent)
	OnNodeError    func(context.Context, *NodeEvent)
}

// ChainHooks combines several hook sets; callbacks fire in argument order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnTickStart = chainTick(out.OnTickStart, h.OnTickStart)
		out.OnTickEnd = chainTick(out.OnTickEnd, h.OnTickEnd)
		out.OnNodeExecuted = chainNode(out.OnNodeExecuted, h.OnNodeExecuted)
		out.OnNodeError = chainNode(out.OnNodeError, h.OnNodeError)
	}
	return out
}

func chainTick(a, b func(context.Context, *TickEvent)) func(context.Context, *TickEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *TickEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

// TickReport summarizes one tick.
type TickReport struct {
	Frame    uint64                `json:"frame"`
	Executed []NodeID              `json:"executed"`
	Failures []*NodeExecutionError `json:"failures,omitempty"`
	Duration time.Duration         `json:"duration"`
}

// Failed reports whether the given node failed during the tick.
func (r *TickReport) Failed(id NodeID) bool {
	for _, f := range r.Failures {
		if f.NodeID == id {
			return true
		}
	}
	return false
}

type frameKey struct{}

type runKey struct{}

// WithFrame attaches the current frame counter to ctx.
func WithFrame(ctx context.Context, frame uint64) context.Context {
	return context.WithValue(ctx, frameKey{}, frame)
}

// FrameFromContext returns the frame counter set by WithFrame, or 0.
func FrameFromContext(ctx context.Context) uint64 {
	if f, ok := ctx.Value(frameKey{}).(uint64); ok {
		return f
	}
	return 0
}

// WithRunID attaches the driver's run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runKey{}, id)
}

// RunIDFromContext returns the run identifier set by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runKey{}).(string); ok {
		return id
	}
	return ""
}
