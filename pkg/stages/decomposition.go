package stages

import (
	"context"
	"fmt"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

const dimensionConfidence = 0.8

// Decomposition splits the root into one dimension node per analysis dimension
// and attaches the resulting Plan to the root.
type Decomposition struct {
	BaseStage
}

// NewDecomposition creates the default Decomposition stage.
func NewDecomposition() *Decomposition {
	return &Decomposition{BaseStage: NewBaseStage(domain.StageDecomposition)}
}

func (st *Decomposition) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	init, ok := domain.ResultOf[*domain.InitializationResult](s.Context)
	if !ok || !g.HasNode(init.RootNodeID) {
		return st.Skip("root node not found"), nil
	}
	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	root, _ := g.Node(init.RootNodeID)
	var ids []string
	for i, dim := range p.DecompositionDimensions {
		n := graph.NewNode(newID("dim"), dim, graph.NodeTypeDimension)
		n.Metadata.Description = fmt.Sprintf("%s of: %s", dim, root.Metadata.Description)
		n.Metadata.Confidence = graph.UniformConfidence(dimensionConfidence)
		n.Metadata.Attribution = attribution(st.Kind().DisplayName())
		n.Metadata.LayerID = fmt.Sprintf("dimension_%d", i+1)
		n.Metadata.ImpactScore = 0.7
		if root.Metadata.Interdisciplinary != nil {
			tags := root.Metadata.Interdisciplinary.DisciplinaryTags
			n.Metadata.Interdisciplinary = &graph.InterdisciplinaryInfo{DisciplinaryTags: tags}
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add dimension %q: %w", dim, err)
		}
		if err := g.AddEdge(graph.NewEdge(newID("edge"), n.ID, root.ID, graph.EdgeTypeDecompositionOf, dimensionConfidence)); err != nil {
			return nil, err
		}
		ids = append(ids, n.ID)
	}

	plan := &graph.Plan{
		Type:              "dimensional_decomposition",
		EstimatedCost:     float64(len(ids) * p.HypothesesPerDimension),
		EstimatedDuration: float64(len(ids)),
		RequiredResources: []string{"hypothesis_generation", "evidence_retrieval"},
		Steps:             p.DecompositionDimensions,
	}
	err = g.UpdateNode(root.ID, "decomposition plan attached", func(n *graph.Node) {
		n.Metadata.Plan = plan
	})
	if err != nil {
		return nil, err
	}

	return st.Output(
		&domain.DecompositionResult{DimensionNodeIDs: ids, Plan: plan},
		fmt.Sprintf("Decomposed root into %d dimensions", len(ids)),
		map[string]any{"dimensions_created": len(ids)},
	), nil
}
