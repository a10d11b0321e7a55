package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/framegraph/pkg/domain"
)

// GenerateMarkdown renders a human-readable report of a graph view: nodes in
// evaluation order with their ports and configuration, then the edge table.
func GenerateMarkdown(view domain.GraphView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Graph (version %d)\n\n", view.Version)
	fmt.Fprintf(&sb, "%d nodes, %d edges.\n\n", len(view.Nodes), len(view.Edges))

	sb.WriteString("## Evaluation order\n\n")
	for i, id := range view.Order {
		n, _ := view.Node(id)
		fmt.Fprintf(&sb, "%d. **%s** `%s`\n", i+1, id, n.Variant)
	}

	sb.WriteString("\n## Nodes\n")
	for _, id := range view.Order {
		n, _ := view.Node(id)
		fmt.Fprintf(&sb, "\n### %s\n\n", id)
		if len(n.Inputs) > 0 {
			sb.WriteString("- inputs: " + ports(n.Inputs) + "\n")
		}
		if len(n.Outputs) > 0 {
			sb.WriteString("- outputs: " + ports(n.Outputs) + "\n")
		}
		if len(n.Config) > 0 {
			keys := make([]string, 0, len(n.Config))
			for k := range n.Config {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "- `%s`: %v\n", k, n.Config[k])
			}
		}
	}

	if len(view.Edges) > 0 {
		sb.WriteString("\n## Edges\n\n| id | from | to | kind |\n|---|---|---|---|\n")
		for _, e := range view.Edges {
			fmt.Fprintf(&sb, "| %s | %s.%s | %s.%s | %s |\n", e.ID, e.From, e.FromPort, e.To, e.ToPort, e.Kind)
		}
	}
	return sb.String()
}

func ports(specs []domain.PortSpec) string {
	parts := make([]string, len(specs))
	for i, p := range specs {
		parts[i] = fmt.Sprintf("`%s` (%s)", p.Name, p.Kind)
	}
	return strings.Join(parts, ", ")
}
