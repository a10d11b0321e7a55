package nodes

import (
	"context"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
)

// PortControl carries the control record.
const PortControl = "control"

// Mapper derives the control record from the current face and hand metrics.
// It is stateless. Missing metrics map to the neutral value of each field:
//
//	tilt     = face.X - 0.5        (0 without a face)
//	lift     = 0.5 - face.Y        (0 without a face)
//	pinch    = hand.Amount         (0 without a hand)
//	jaw      = face.Amount         (0 without a face)
//	presence = 1 if face or hand, else 0
//	target   = hand (X,Y), else face (X,Y), else (0.5, 0.5)
type Mapper struct{}

func NewMapper() *Mapper { return &Mapper{} }

func (*Mapper) Variant() domain.Variant { return domain.VariantMapper }

func (*Mapper) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.In(PortFace, domain.KindMetrics),
		domain.In(PortHand, domain.KindMetrics),
		domain.Out(PortControl, domain.KindControl),
	}
}

func (*Mapper) Execute(_ context.Context, io *graph.IO) error {
	return io.Set(PortControl, Map(io.Metrics(PortFace), io.Metrics(PortHand)))
}

// Map is the pure function behind the mapper node.
func Map(face, hand *domain.Metrics) domain.Control {
	c := domain.Control{TargetX: 0.5, TargetY: 0.5}
	if face != nil {
		c.Tilt = face.X - 0.5
		c.Lift = 0.5 - face.Y
		c.Jaw = face.Amount
		c.TargetX, c.TargetY = face.X, face.Y
	}
	if hand != nil {
		c.Pinch = hand.Amount
		c.TargetX, c.TargetY = hand.X, hand.Y
	}
	if face != nil || hand != nil {
		c.Presence = 1
	}
	return c
}
