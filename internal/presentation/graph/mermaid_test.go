package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/presentation/graph"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
)

func defaultView(t *testing.T) domain.GraphView {
	t.Helper()
	eng := framegraph.New(framegraph.WithDeps(nodes.Deps{}))
	if err := eng.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	view, err := eng.Inspect()
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	return view
}

func TestGenerateMermaid(t *testing.T) {
	view := defaultView(t)

	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
	}{
		{
			name: "Node Shapes",
			contains: []string{
				`source(("source"))`,
				`face[["face"]]`,
				`overlay["overlay"]`,
				`output[/"output"/]`,
			},
		},
		{
			name: "Edge Labels",
			contains: []string{
				`source == "frame" ==> face`,
				`source -- "timestamp" --> hand`,
				`face -- "metrics:face" --> mapper`,
			},
		},
		{
			name:    "Failure Overlay",
			overlay: &graph.GraphOverlay{Failed: []domain.NodeID{"hand", "hand"}},
			contains: []string{
				"classDef failed",
				"class hand failed;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(view, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			if tt.overlay != nil && strings.Count(got, "class hand failed;") != 1 {
				t.Errorf("expected failed class applied once, got:\n%v", got)
			}
		})
	}
}

func TestGenerateMermaid_IDSanitization(t *testing.T) {
	view := domain.GraphView{
		Nodes: []domain.NodeView{{ID: "cam-1.main", Variant: domain.VariantSource}},
	}
	got := graph.GenerateMermaid(view, nil)
	if !strings.Contains(got, `cam_1_main(("cam-1.main <br/> source"))`) {
		t.Errorf("unexpected output:\n%v", got)
	}
}

func TestGenerateMarkdown(t *testing.T) {
	got := graph.GenerateMarkdown(defaultView(t))
	for _, want := range []string{
		"6 nodes, 11 edges.",
		"1. **source** `source`",
		"6. **output** `output`",
		"- `trail_length`: 48",
		"| e1 | source.frame | face.frame | image-buffer |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("GenerateMarkdown() missing %q:\n%v", want, got)
		}
	}
}
