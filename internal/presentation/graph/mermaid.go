package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/framegraph/pkg/domain"
)

// GraphOverlay contains tick results to visualize on the graph.
type GraphOverlay struct {
	Failed []domain.NodeID
}

// OverlayFromReport marks the nodes that failed in report.
func OverlayFromReport(report *domain.TickReport) *GraphOverlay {
	if report == nil {
		return nil
	}
	o := &GraphOverlay{}
	for _, f := range report.Failures {
		o.Failed = append(o.Failed, f.NodeID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from a graph view.
// Shapes follow the node's role:
// - Source: ((Circle))
// - Extractors: [[Subroutine]]
// - Output: [/Parallelogram/]
// - Default: [Rectangle]
// Edges are labeled with their port pair; nodes are listed in evaluation order.
func GenerateMermaid(view domain.GraphView, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	byID := make(map[domain.NodeID]domain.NodeView, len(view.Nodes))
	for _, n := range view.Nodes {
		byID[n.ID] = n
	}
	ids := view.Order
	if len(ids) == 0 {
		for _, n := range view.Nodes {
			ids = append(ids, n.ID)
		}
	}

	for _, id := range ids {
		node := byID[id]
		opener, closer := "[", "]"
		switch node.Variant {
		case domain.VariantSource:
			opener, closer = "((", "))"
		case domain.VariantFace, domain.VariantHand:
			opener, closer = "[[", "]]"
		case domain.VariantOutput:
			opener, closer = "[/", "/]"
		}

		label := string(node.ID)
		if string(node.Variant) != label {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.Variant)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(id)), opener, label, closer)
	}

	for _, e := range view.Edges {
		port := e.FromPort
		if e.ToPort != e.FromPort {
			port = e.FromPort + ":" + e.ToPort
		}
		arrow := fmt.Sprintf("-- \"%s\" -->", port)
		if e.Kind == domain.KindImage {
			arrow = fmt.Sprintf("== \"%s\" ==>", port)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(e.From)), arrow, sanitizeMermaidID(string(e.To)))
	}

	if overlay != nil && len(overlay.Failed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:3px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Failed {
			safeID := sanitizeMermaidID(string(id))
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s failed;\n", safeID)
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
