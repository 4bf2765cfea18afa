package graph

import (
	"fmt"
	"strings"

	thought "github.com/aretw0/nexusmind/pkg/graph"
)

const maxLabel = 48

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	HighlightNodes []string // e.g. the members of an extracted subgraph
	FocusNode      string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a thought graph.
// It applies semantic styling:
// - Root: ((Circle))
// - Dimension: [[Subroutine]]
// - Hypothesis: [/Parallelogram/]
// - Interdisciplinary bridge: {{Hexagon}}
// - Default: [Rectangle]
// Contradictory relations are dotted. Hyperedges are emitted as comments.
func GenerateMermaid(g *thought.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for node := range g.Nodes() {
		opener, closer := "[", "]"
		switch node.Type {
		case thought.NodeTypeRoot:
			opener, closer = "((", "))"
		case thought.NodeTypeDimension:
			opener, closer = "[[", "]]"
		case thought.NodeTypeHypothesis:
			opener, closer = "[/", "/]"
		case thought.NodeTypeInterdisciplinaryBridge:
			opener, closer = "{{", "}}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %.2f\"%s\n",
			sanitizeMermaidID(node.ID), opener, escapeLabel(node.Label),
			node.Metadata.Confidence.Average(), closer)
	}

	for e := range g.Edges() {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		label := strings.ReplaceAll(string(e.Type), "\"", "'")
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if e.Type == thought.EdgeTypeContradictory {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	for h := range g.Hyperedges() {
		ids := make([]string, len(h.Nodes))
		for i, id := range h.Nodes {
			ids[i] = sanitizeMermaidID(id)
		}
		fmt.Fprintf(&sb, "    %%%% hyperedge %s: %s\n", h.Metadata.Relationship, strings.Join(ids, ", "))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef highlight fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.HighlightNodes {
			// Merged or pruned nodes may still be listed; only style live ones.
			if !g.HasNode(id) {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s highlight;\n", safeID)
			}
		}
		if overlay.FocusNode != "" && g.HasNode(overlay.FocusNode) {
			fmt.Fprintf(&sb, "    class %s focus;\n", sanitizeMermaidID(overlay.FocusNode))
		}
	}

	return sb.String()
}

func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, "\"", "'")
	label = strings.ReplaceAll(label, "\n", " ")
	if r := []rune(label); len(r) > maxLabel {
		label = string(r[:maxLabel-3]) + "..."
	}
	return label
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
