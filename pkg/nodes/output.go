package nodes

import (
	"context"
	"time"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Output is the terminal node. Each execution steps the trail and hands the
// composited frame and control record to the publisher. It is the only node
// with an externally visible side effect.
type Output struct {
	publisher ports.Publisher
	trail     *Trail
	cfg       TrailConfig
	now       func() time.Time
}

// NewOutput creates an output node. A nil publisher discards snapshots.
func NewOutput(p ports.Publisher, cfg TrailConfig, now func() time.Time) *Output {
	if now == nil {
		now = time.Now
	}
	return &Output{publisher: p, trail: NewTrail(cfg), cfg: cfg, now: now}
}

func (o *Output) Variant() domain.Variant { return domain.VariantOutput }

func (o *Output) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.In(PortImage, domain.KindImage),
		domain.In(PortControl, domain.KindControl),
	}
}

func (o *Output) Config() map[string]any { return encodeConfig(o.cfg) }

// Trail exposes the trail buffer for inspection.
func (o *Output) Trail() []domain.TrailPoint { return o.trail.Points() }

func (o *Output) Execute(ctx context.Context, io *graph.IO) error {
	control := io.Control(PortControl)
	o.trail.Step(control)

	if o.publisher == nil {
		return nil
	}
	return o.publisher.Publish(ctx, domain.Snapshot{
		RunID:     domain.RunIDFromContext(ctx),
		Frame:     domain.FrameFromContext(ctx),
		Timestamp: o.now(),
		Image:     io.Image(PortImage),
		Control:   control,
		Trail:     o.trail.Points(),
	})
}
