package stages

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// Names of the subgraphs extracted by SubgraphExtraction.
const (
	SubgraphHighConfidence = "high_confidence_core"
	SubgraphKeyEvidence    = "key_evidence"
	SubgraphContradictions = "contradictions"
)

const keyEvidencePower = 0.7

// SubgraphExtraction selects the focused views Composition reports on.
// Empty views are omitted.
type SubgraphExtraction struct {
	BaseStage
}

// NewSubgraphExtraction creates the default SubgraphExtraction stage.
func NewSubgraphExtraction() *SubgraphExtraction {
	return &SubgraphExtraction{BaseStage: NewBaseStage(domain.StageSubgraphExtraction)}
}

func (st *SubgraphExtraction) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	if g.NodeCount() == 0 {
		return st.Skip("graph is empty"), nil
	}
	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	candidates := []domain.Subgraph{
		highConfidence(g, p.SubgraphMinConfidence),
		keyEvidence(g, p.SubgraphMinConfidence),
		contradictions(g),
	}
	var out []domain.Subgraph
	for _, sg := range candidates {
		if len(sg.NodeIDs) > 0 {
			out = append(out, sg)
		}
	}

	return st.Output(
		&domain.SubgraphExtractionResult{Subgraphs: out},
		fmt.Sprintf("Extracted %d subgraphs", len(out)),
		map[string]any{"subgraphs": len(out)},
	), nil
}

func highConfidence(g *graph.Graph, minConfidence float64) domain.Subgraph {
	set := make(map[string]bool)
	var nodes []string
	for n := range g.Nodes() {
		if n.Metadata.Confidence.Average() >= minConfidence {
			set[n.ID] = true
			nodes = append(nodes, n.ID)
		}
	}
	return domain.Subgraph{
		Name:        SubgraphHighConfidence,
		Description: fmt.Sprintf("Nodes with average confidence of at least %.2f", minConfidence),
		NodeIDs:     nodes,
		EdgeIDs:     edgesWithin(g, set),
	}
}

func keyEvidence(g *graph.Graph, minConfidence float64) domain.Subgraph {
	set := make(map[string]bool)
	var nodes, edges []string
	add := func(id string) {
		if !set[id] {
			set[id] = true
			nodes = append(nodes, id)
		}
	}
	for n := range g.NodesByType(graph.NodeTypeEvidence) {
		strong := n.Metadata.Confidence.Average() >= minConfidence
		if sp := n.Metadata.StatisticalPower; sp != nil && sp.Value >= keyEvidencePower {
			strong = true
		}
		if !strong {
			continue
		}
		add(n.ID)
		for _, e := range g.EdgesFrom(n.ID) {
			add(e.Target)
			edges = append(edges, e.ID)
		}
	}
	return domain.Subgraph{
		Name:        SubgraphKeyEvidence,
		Description: "Strong evidence and the hypotheses it bears on",
		NodeIDs:     nodes,
		EdgeIDs:     edges,
	}
}

func contradictions(g *graph.Graph) domain.Subgraph {
	var nodes, edges []string
	for e := range g.Edges() {
		if e.Type != graph.EdgeTypeContradictory {
			continue
		}
		edges = append(edges, e.ID)
		for _, id := range []string{e.Source, e.Target} {
			if !slices.Contains(nodes, id) {
				nodes = append(nodes, id)
			}
		}
	}
	return domain.Subgraph{
		Name:        SubgraphContradictions,
		Description: "Evidence that contradicts a hypothesis",
		NodeIDs:     nodes,
		EdgeIDs:     edges,
	}
}

// edgesWithin lists edges whose endpoints are both in set, in insertion order.
func edgesWithin(g *graph.Graph, set map[string]bool) []string {
	var ids []string
	for e := range g.Edges() {
		if set[e.Source] && set[e.Target] {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
