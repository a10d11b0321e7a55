package nodes

import (
	"fmt"

	"github.com/aretw0/framegraph/pkg/domain"
)

// TrailConfig is the configuration bag of the output variant.
type TrailConfig struct {
	Decay  float64 `mapstructure:"trail_decay"`
	MaxLen int     `mapstructure:"trail_length"`
}

func DefaultTrailConfig() TrailConfig {
	return TrailConfig{Decay: 0.05, MaxLen: 48}
}

func (c TrailConfig) validate() error {
	if c.Decay <= 0 || c.Decay > 1 {
		return fmt.Errorf("%w: trail_decay must be in (0,1], got %v", domain.ErrInvalidNode, c.Decay)
	}
	if c.MaxLen < 1 {
		return fmt.Errorf("%w: trail_length must be positive, got %d", domain.ErrInvalidNode, c.MaxLen)
	}
	return nil
}

// Trail is a bounded, decaying history of focal points. It is the only state
// in the pipeline that carries across frames, and it is a pure function of
// the sequence of control records passed to Step.
type Trail struct {
	cfg    TrailConfig
	points []domain.TrailPoint
}

func NewTrail(cfg TrailConfig) *Trail {
	return &Trail{cfg: cfg, points: make([]domain.TrailPoint, 0, cfg.MaxLen)}
}

// Step advances the trail by one tick: every point loses Decay life, points at
// or below zero are dropped, and when c signals presence a fresh point is
// appended at the target. The oldest point is evicted past MaxLen.
func (t *Trail) Step(c domain.Control) {
	kept := t.points[:0]
	for _, p := range t.points {
		p.Life -= t.cfg.Decay
		if p.Life > 0 {
			kept = append(kept, p)
		}
	}
	t.points = kept

	if c.Present() {
		t.points = append(t.points, domain.TrailPoint{X: c.TargetX, Y: c.TargetY, Life: 1})
	}
	if over := len(t.points) - t.cfg.MaxLen; over > 0 {
		t.points = append(t.points[:0], t.points[over:]...)
	}
}

// Points returns a copy of the current points, oldest first.
func (t *Trail) Points() []domain.TrailPoint {
	out := make([]domain.TrailPoint, len(t.points))
	copy(out, t.points)
	return out
}

func (t *Trail) Len() int { return len(t.points) }

// Reset drops every point.
func (t *Trail) Reset() { t.points = t.points[:0] }
