package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/framegraph/pkg/adapters/memory"
	"github.com/aretw0/framegraph/pkg/domain"
	contract "github.com/aretw0/framegraph/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Contract(t *testing.T) {
	contract.PublisherContractTest(t, memory.NewRecorder(0))
}

func TestRecorder_CopiesImagesAndHonorsLimit(t *testing.T) {
	rec := memory.NewRecorder(2)
	capture := memory.NewCapture(4, 4)
	frame, ok := capture.Frame()
	require.True(t, ok)

	for i := range 3 {
		require.NoError(t, rec.Publish(context.Background(), domain.Snapshot{Frame: uint64(i + 1), Image: frame}))
	}
	frame.Pix[0] = 0x01

	snaps := rec.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, uint64(2), snaps[0].Frame)
	assert.NotEqual(t, uint8(0x01), snaps[1].Image.Pix[0])
}

func TestCapture_Warmup(t *testing.T) {
	start := time.Unix(0, 0)
	c := memory.NewCapture(8, 6, memory.WithWarmup(2), memory.WithFrameStep(start, 16*time.Millisecond))

	_, ok := c.Frame()
	assert.False(t, ok)
	_, ok = c.Frame()
	assert.False(t, ok)

	frame, ok := c.Frame()
	require.True(t, ok)
	assert.Equal(t, 8, frame.Bounds().Dx())
	assert.Equal(t, start.Add(48*time.Millisecond), c.Now())

	require.NoError(t, c.Close())
	_, ok = c.Frame()
	assert.False(t, ok)
	assert.True(t, c.Closed())
}

func TestLandmarker_Script(t *testing.T) {
	first := domain.LandmarkSetList{memory.Hand(0.2, 0.2, 0.1)}
	second := domain.LandmarkSetList{memory.Hand(0.8, 0.8, 0.0)}
	l := memory.NewLandmarker([]domain.LandmarkSetList{first, second}, memory.NotReady())

	assert.False(t, l.Ready())
	l.SetReady(true)
	assert.True(t, l.Ready())

	ctx := context.Background()
	got, err := l.Detect(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, _ = l.Detect(ctx, nil, 2)
	assert.Equal(t, second, got)
	got, _ = l.Detect(ctx, nil, 3)
	assert.Equal(t, second, got, "last entry repeats")

	l.FailWith(memory.ErrScriptedFailure)
	_, err = l.Detect(ctx, nil, 4)
	assert.ErrorIs(t, err, memory.ErrScriptedFailure)

	assert.Equal(t, 4, l.Calls())
	assert.Equal(t, []float64{1, 2, 3, 4}, l.Timestamps())
}

func TestLandmarker_Looping(t *testing.T) {
	first := domain.LandmarkSetList{memory.Hand(0.2, 0.2, 0.1)}
	second := domain.LandmarkSetList{}
	l := memory.NewLandmarker([]domain.LandmarkSetList{first, second}, memory.Looping())

	ctx := context.Background()
	for i, want := range []domain.LandmarkSetList{first, second, first, second} {
		got, err := l.Detect(ctx, nil, float64(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLandmarker_LatencyHonorsContext(t *testing.T) {
	l := memory.NewLandmarker(
		[]domain.LandmarkSetList{{memory.Face(0.5, 0.5, 0.02)}},
		memory.WithLatency(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Detect(ctx, nil, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
