package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/domain"
)

func TestValidateTopology(t *testing.T) {
	// 1. Scenario A: the default pipeline is valid
	if err := ValidateTopology(framegraph.DefaultTopology()); err != nil {
		t.Errorf("Scenario A (Default) failed: %v", err)
	}

	// 2. Scenario B: every problem is reported at once
	broken := framegraph.Topology{
		Nodes: []framegraph.NodeSpec{
			{ID: "cam", Variant: domain.VariantSource},
			{ID: "map", Variant: domain.VariantMapper},
			{ID: "fx", Variant: "blur"},
			{ID: "draw", Variant: domain.VariantOverlay, Config: map[string]any{"mirorr": true}},
			{ID: "lonely", Variant: domain.VariantOutput},
		},
		Edges: []framegraph.EdgeSpec{
			{From: "cam", FromPort: "timestamp", To: "map", ToPort: "face"},
			{From: "cam", FromPort: "frame", To: "ghost", ToPort: "frame"},
		},
	}
	err := ValidateTopology(broken)
	if err == nil {
		t.Fatal("Scenario B (Broken) expected error, got nil")
	}
	msg := err.Error()
	for _, want := range []string{
		"found 6 errors",
		"Node 'fx'",
		"Node 'draw'",
		"Edge cam.timestamp -> map.face",
		"Edge cam.frame -> ghost.frame",
		"Unreachable node: 'map'",
		"Unreachable node: 'lonely'",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in:\n%s", want, msg)
		}
	}

	// 3. Scenario C: no source at all
	err = ValidateTopology(framegraph.Topology{Nodes: []framegraph.NodeSpec{{ID: "m", Variant: domain.VariantMapper}}})
	if err == nil || !strings.Contains(err.Error(), "no source node") {
		t.Errorf("Scenario C expected missing source error, got %v", err)
	}
}
