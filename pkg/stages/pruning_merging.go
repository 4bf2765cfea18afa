package stages

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// PruningMerging removes low-value nodes and folds near-duplicates together.
// Root and dimension nodes are structural and never touched.
type PruningMerging struct {
	BaseStage
}

// NewPruningMerging creates the default PruningMerging stage.
func NewPruningMerging() *PruningMerging {
	return &PruningMerging{BaseStage: NewBaseStage(domain.StagePruningMerging)}
}

func (st *PruningMerging) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	if g.NodeCount() == 0 {
		return st.Skip("graph is empty"), nil
	}
	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	var pruned []string
	for n := range g.Nodes() {
		if structural(n) {
			continue
		}
		if n.Metadata.Confidence.Average() < p.PruningConfidenceThreshold &&
			n.Metadata.ImpactScore < p.PruningImpactThreshold {
			if err := g.RemoveNode(n.ID); err != nil {
				return nil, err
			}
			pruned = append(pruned, n.ID)
		}
	}

	merged, err := st.merge(g, p.MergingSimilarityThreshold)
	if err != nil {
		return nil, err
	}

	return st.Output(
		&domain.PruningMergingResult{
			PrunedNodeIDs:  pruned,
			MergedPairs:    merged,
			NodesRemaining: g.NodeCount(),
			EdgesRemaining: g.EdgeCount(),
		},
		fmt.Sprintf("Pruned %d nodes, merged %d pairs; %d nodes remain", len(pruned), len(merged), g.NodeCount()),
		map[string]any{"pruned": len(pruned), "merged": len(merged)},
	), nil
}

// merge folds each node into the first earlier node of the same type whose
// label is at least threshold similar.
func (st *PruningMerging) merge(g *graph.Graph, threshold float64) ([]domain.MergedPair, error) {
	var pairs []domain.MergedPair
	var kept []*graph.Node
	for n := range g.Nodes() {
		if structural(n) {
			continue
		}
		var target *graph.Node
		var sim float64
		for _, k := range kept {
			if k.Type != n.Type {
				continue
			}
			if v := Similarity(k.Label, n.Label); v >= threshold {
				target, sim = k, v
				break
			}
		}
		if target == nil {
			kept = append(kept, n)
			continue
		}
		if err := fold(g, target, n); err != nil {
			return nil, err
		}
		pairs = append(pairs, domain.MergedPair{Kept: target.ID, Removed: n.ID, Similarity: sim})
	}
	return pairs, nil
}

// fold moves removed's relations (edges and hyperedge memberships) onto kept,
// keeps the stronger confidence per component, then deletes removed.
func fold(g *graph.Graph, kept, removed *graph.Node) error {
	for _, e := range g.EdgesFrom(removed.ID) {
		if e.Target == kept.ID || hasEdge(g, kept.ID, e.Target, e.Type) {
			continue
		}
		if err := g.AddEdge(graph.NewEdge(newID("edge"), kept.ID, e.Target, e.Type, e.Metadata.Confidence)); err != nil {
			return err
		}
	}
	for _, e := range g.EdgesTo(removed.ID) {
		if e.Source == kept.ID || hasEdge(g, e.Source, kept.ID, e.Type) {
			continue
		}
		if err := g.AddEdge(graph.NewEdge(newID("edge"), e.Source, kept.ID, e.Type, e.Metadata.Confidence)); err != nil {
			return err
		}
	}

	err := g.UpdateNode(kept.ID, "merged with "+removed.ID, func(n *graph.Node) {
		a, b := n.Metadata.Confidence, removed.Metadata.Confidence
		n.Metadata.Confidence = graph.ConfidenceVector{
			EmpiricalSupport:    math.Max(a.EmpiricalSupport, b.EmpiricalSupport),
			TheoreticalBasis:    math.Max(a.TheoreticalBasis, b.TheoreticalBasis),
			MethodologicalRigor: math.Max(a.MethodologicalRigor, b.MethodologicalRigor),
			ConsensusAlignment:  math.Max(a.ConsensusAlignment, b.ConsensusAlignment),
		}
		n.Metadata.ImpactScore = math.Max(n.Metadata.ImpactScore, removed.Metadata.ImpactScore)
		n.Metadata.Attribution = append(n.Metadata.Attribution, removed.Metadata.Attribution...)
	})
	if err != nil {
		return err
	}

	memberships := g.HyperedgesOf(removed.ID)
	if err := g.RemoveNode(removed.ID); err != nil {
		return err
	}
	for _, h := range memberships {
		nodes := make([]string, 0, len(h.Nodes))
		for _, id := range h.Nodes {
			if id == removed.ID {
				id = kept.ID
			}
			if !slices.Contains(nodes, id) {
				nodes = append(nodes, id)
			}
		}
		if len(nodes) < 2 || hasHyperedge(g, nodes, h.Metadata.Relationship) {
			continue
		}
		carried := graph.NewHyperedge(newID("hyper"), nodes, h.Metadata.Relationship, h.Metadata.Confidence)
		carried.Metadata.Attribution = h.Metadata.Attribution
		if err := g.AddHyperedge(carried); err != nil {
			return err
		}
	}
	return nil
}

func hasHyperedge(g *graph.Graph, nodes []string, relationship string) bool {
	for _, h := range g.HyperedgesOf(nodes[0]) {
		if h.Metadata.Relationship != relationship || len(h.Nodes) != len(nodes) {
			continue
		}
		if !slices.ContainsFunc(nodes, func(id string) bool { return !h.Contains(id) }) {
			return true
		}
	}
	return false
}

func hasEdge(g *graph.Graph, source, target string, t graph.EdgeType) bool {
	for _, e := range g.EdgesFrom(source) {
		if e.Target == target && e.Type == t {
			return true
		}
	}
	return false
}

func structural(n *graph.Node) bool {
	return n.Type == graph.NodeTypeRoot || n.Type == graph.NodeTypeDimension
}
