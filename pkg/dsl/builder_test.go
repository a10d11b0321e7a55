package dsl

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/adapters/memory"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
)

func TestBuilder_DefaultPipeline(t *testing.T) {
	// 1. Declare the standard pipeline using the DSL
	b := New()

	b.Source(framegraph.NodeSource)
	b.Face(framegraph.NodeFace).Watch(framegraph.NodeSource)
	b.Hand(framegraph.NodeHand).Watch(framegraph.NodeSource)
	b.Overlay(framegraph.NodeOverlay).
		Frame(framegraph.NodeSource).
		Face(framegraph.NodeFace).
		Hand(framegraph.NodeHand)
	b.Mapper(framegraph.NodeMapper).
		Face(framegraph.NodeFace).
		Hand(framegraph.NodeHand)
	b.Output(framegraph.NodeOutput).
		Image(framegraph.NodeOverlay).
		Control(framegraph.NodeMapper)

	// 2. Compile and compare with the hand-written topology
	got, err := b.Build()
	require.NoError(t, err)
	if diff := cmp.Diff(framegraph.DefaultTopology(), got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	first := b.Output("out").Trail(0.2, 4)
	again := b.Add("out", domain.VariantOutput)
	assert.Same(t, first, again)
	assert.Same(t, b, again.Builder())

	spec := again.Build()
	assert.Equal(t, map[string]any{"trail_decay": 0.2, "trail_length": 4}, spec.Config)
}

func TestBuilder_UnknownNodes(t *testing.T) {
	b := New()
	b.Mapper("mapper").Face("ghost").Hand("phantom")

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "phantom")
}

func TestBuilder_ReplaysOnEngine(t *testing.T) {
	b := New()
	b.Source("cam")
	b.Hand("hand").Sync().Watch("cam")
	b.Mapper("mapper").Hand("hand")
	b.Output("out").Trail(0.5, 2).Control("mapper")

	topology, err := b.Build()
	require.NoError(t, err)

	recorder := memory.NewRecorder(0)
	eng := framegraph.New(
		framegraph.WithTopology(topology),
		framegraph.WithDeps(nodes.Deps{
			Capture:   memory.NewCapture(8, 8),
			Hand:      memory.Constant(memory.Hand(0.25, 0.75, 0.02)),
			Publisher: recorder,
		}),
	)
	require.NoError(t, eng.Reset())
	defer eng.Close()

	view, err := eng.Inspect()
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{"cam", "hand", "mapper", "out"}, view.Order)

	for frame := uint64(1); frame <= 3; frame++ {
		_, err := eng.Tick(context.Background(), frame)
		require.NoError(t, err)
	}
	snaps := recorder.Snapshots()
	require.Len(t, snaps, 3)
	last := snaps[2]
	assert.InDelta(t, 0.25, last.Control.TargetX, 1e-9)
	assert.Len(t, last.Trail, 2)
}
