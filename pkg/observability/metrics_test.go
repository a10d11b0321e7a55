package observability_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/adapters/memory"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
	"github.com/aretw0/framegraph/pkg/observability"
	"github.com/aretw0/framegraph/pkg/ports"
)

func TestMetrics_RecordsTicksAndFailures(t *testing.T) {
	m := observability.NewMetrics(nil)
	hand := memory.Constant(memory.Hand(0.4, 0.4, 0.02))
	eng := framegraph.New(
		framegraph.WithLifecycleHooks(m.Hooks()),
		framegraph.WithDeps(nodes.Deps{
			Capture:   memory.NewCapture(8, 8),
			Hand:      hand,
			Publisher: m.Publisher(memory.NewRecorder(1)),
		}),
	)
	require.NoError(t, eng.Reset())
	defer eng.Close()

	for frame := uint64(1); frame <= 3; frame++ {
		_, err := eng.Tick(context.Background(), frame)
		require.NoError(t, err)
	}
	hand.FailWith(memory.ErrScriptedFailure)
	_, err := eng.Tick(context.Background(), 4)
	require.NoError(t, err)

	reg := m.Registry()
	count, err := testutil.GatherAndCount(reg, "framegraph_ticks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP framegraph_node_failures_total Total number of contained node failures.
# TYPE framegraph_node_failures_total counter
framegraph_node_failures_total{node_id="hand",variant="hand"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "framegraph_node_failures_total"))

	expected = `
# HELP framegraph_ticks_total Total number of graph evaluations.
# TYPE framegraph_ticks_total counter
framegraph_ticks_total 4
# HELP framegraph_frame Frame counter of the last completed tick.
# TYPE framegraph_frame gauge
framegraph_frame 4
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "framegraph_ticks_total", "framegraph_frame"))
}

func TestMetrics_PublisherGauges(t *testing.T) {
	m := observability.NewMetrics(nil)
	boom := errors.New("sink down")
	failing := ports.PublisherFunc(func(context.Context, domain.Snapshot) error { return boom })

	pub := m.Publisher(failing)
	err := pub.Publish(context.Background(), domain.Snapshot{
		Control: domain.Control{Presence: 1, Pinch: 0.84},
		Trail:   make([]domain.TrailPoint, 3),
	})
	assert.ErrorIs(t, err, boom)

	expected := `
# HELP framegraph_presence 1 if any modality was detected in the last published frame.
# TYPE framegraph_presence gauge
framegraph_presence 1
# HELP framegraph_trail_length Number of points in the trail buffer.
# TYPE framegraph_trail_length gauge
framegraph_trail_length 3
# HELP framegraph_publish_errors_total Total number of failed publishes.
# TYPE framegraph_publish_errors_total counter
framegraph_publish_errors_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"framegraph_presence", "framegraph_trail_length", "framegraph_publish_errors_total"))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnTickEnd(context.Background(), &domain.TickEvent{Frame: 9})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "framegraph_frame 9")
}
