package nodes_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
)

func presence(p float64, x float64) domain.Control {
	return domain.Control{Presence: p, TargetX: x, TargetY: 0.5}
}

func TestTrail_ReplaysPresenceSequence(t *testing.T) {
	trail := nodes.NewTrail(nodes.TrailConfig{Decay: 0.25, MaxLen: 10})

	seq := []domain.Control{presence(1, 0.1), presence(1, 0.2), presence(0, 0), presence(0, 0), presence(1, 0.5)}
	for _, c := range seq {
		trail.Step(c)
	}

	// The first point reached zero life on the last step and was dropped.
	want := []domain.TrailPoint{
		{X: 0.2, Y: 0.5, Life: 0.25},
		{X: 0.5, Y: 0.5, Life: 1},
	}
	if diff := cmp.Diff(want, trail.Points()); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestTrail_IsDeterministic(t *testing.T) {
	run := func() []domain.TrailPoint {
		trail := nodes.NewTrail(nodes.TrailConfig{Decay: 0.125, MaxLen: 5})
		for i := range 40 {
			trail.Step(presence(float64(i%3%2), float64(i)/40))
		}
		return trail.Points()
	}
	assert.Equal(t, run(), run())
}

func TestTrail_NeverExceedsMaxLen(t *testing.T) {
	trail := nodes.NewTrail(nodes.TrailConfig{Decay: 0.0625, MaxLen: 4})
	for i := range 10 {
		trail.Step(presence(1, float64(i)))
		assert.LessOrEqual(t, trail.Len(), 4)
	}

	pts := trail.Points()
	assert.Len(t, pts, 4)
	// Oldest evicted first.
	assert.Equal(t, 6.0, pts[0].X)
	assert.Equal(t, 9.0, pts[3].X)
	assert.Equal(t, 1.0, pts[3].Life)
}

func TestTrail_DecaysToEmpty(t *testing.T) {
	trail := nodes.NewTrail(nodes.TrailConfig{Decay: 0.5, MaxLen: 4})
	trail.Step(presence(1, 0.3))
	trail.Step(presence(0, 0))
	assert.Equal(t, 1, trail.Len())
	trail.Step(presence(0, 0))
	assert.Zero(t, trail.Len())

	trail.Step(presence(1, 0.3))
	trail.Reset()
	assert.Zero(t, trail.Len())
}

func TestTrail_PointsIsACopy(t *testing.T) {
	trail := nodes.NewTrail(nodes.DefaultTrailConfig())
	trail.Step(presence(1, 0.3))
	pts := trail.Points()
	pts[0].Life = 0
	assert.Equal(t, 1.0, trail.Points()[0].Life)
}
