package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/nexusmind/internal/presentation/graph"
	"github.com/aretw0/nexusmind/pkg/domain"
	thought "github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/stages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *thought.Graph {
	t.Helper()
	g := thought.New()
	nodes := []*thought.Node{
		thought.NewNode("n0", "Task understanding", thought.NodeTypeRoot),
		thought.NewNode("dim-1", "Scope", thought.NodeTypeDimension),
		thought.NewNode("hyp.1", `Erosion is driven by "storms"`, thought.NodeTypeHypothesis),
		thought.NewNode("ev/1", "Evidence on storms", thought.NodeTypeEvidence),
		thought.NewNode("ibn-1", "Bridge", thought.NodeTypeInterdisciplinaryBridge),
	}
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddEdge(thought.NewEdge("e1", "dim-1", "n0", thought.EdgeTypeDecompositionOf, 0.9)))
	require.NoError(t, g.AddEdge(thought.NewEdge("e2", "dim-1", "hyp.1", thought.EdgeTypeGeneratesHypothesis, 0.9)))
	require.NoError(t, g.AddEdge(thought.NewEdge("e3", "ev/1", "hyp.1", thought.EdgeTypeContradictory, 0.6)))
	require.NoError(t, g.AddHyperedge(thought.NewHyperedge("h1", []string{"hyp.1", "ibn-1"}, "jointly_supported", 0.6)))
	return g
}

func TestGenerateMermaid(t *testing.T) {
	got := graph.GenerateMermaid(sample(t), nil)

	tests := []struct {
		name string
		want string
	}{
		{"Header", "graph TD\n"},
		{"Root Shape", `n0(("Task understanding <br/> 0.50"))`},
		{"Dimension Shape", `dim_1[["Scope <br/> 0.50"]]`},
		{"Hypothesis Shape And Escaping", `hyp_1[/"Erosion is driven by 'storms' <br/> 0.50"/]`},
		{"Default Shape And ID Sanitization", `ev_1["Evidence on storms <br/> 0.50"]`},
		{"Bridge Shape", `ibn_1{{"Bridge <br/> 0.50"}}`},
		{"Edge Label", `dim_1 -- "generates_hypothesis" --> hyp_1`},
		{"Contradiction Is Dotted", `ev_1 -. "contradictory" .-> hyp_1`},
		{"Hyperedge Comment", "%% hyperedge jointly_supported: hyp_1, ibn_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, got, tt.want)
		})
	}
	assert.NotContains(t, got, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	got := graph.GenerateMermaid(sample(t), &graph.GraphOverlay{
		HighlightNodes: []string{"hyp.1", "hyp.1", "removed"},
		FocusNode:      "n0",
	})

	assert.Contains(t, got, "classDef highlight")
	assert.Equal(t, 1, strings.Count(got, "class hyp_1 highlight;"))
	assert.NotContains(t, got, "class removed")
	assert.Contains(t, got, "class n0 focus;")
}

func TestGenerateMermaid_LongLabelIsTruncated(t *testing.T) {
	g := thought.New()
	require.NoError(t, g.AddNode(thought.NewNode("a", strings.Repeat("x", 100), thought.NodeTypeEvidence)))

	got := graph.GenerateMermaid(g, nil)
	assert.Contains(t, got, strings.Repeat("x", 45)+"...")
	assert.NotContains(t, got, strings.Repeat("x", 46))
}

func TestSessionOverlay(t *testing.T) {
	sess := domain.NewSession("s", "q")
	sess.Context.Set(&domain.InitializationResult{RootNodeID: "n0"})
	sess.Context.Set(&domain.SubgraphExtractionResult{Subgraphs: []domain.Subgraph{
		{Name: stages.SubgraphKeyEvidence, NodeIDs: []string{"ev"}},
		{Name: stages.SubgraphHighConfidence, NodeIDs: []string{"n0", "hyp"}},
	}})

	overlay := graph.SessionOverlay(sess)
	assert.Equal(t, "n0", overlay.FocusNode)
	assert.Equal(t, []string{"n0", "hyp"}, overlay.HighlightNodes)

	empty := graph.SessionOverlay(domain.NewSession("s", "q"))
	assert.Empty(t, empty.FocusNode)
	assert.Nil(t, empty.HighlightNodes)
}
