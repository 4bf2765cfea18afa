package stages

import (
	"context"
	"fmt"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// hypothesisFrames are the angles a dimension is examined from, in order.
var hypothesisFrames = []string{
	"Primary mechanism",
	"Alternative explanation",
	"Contextual moderator",
	"Null effect",
	"Interaction effect",
	"Boundary condition",
	"Measurement artifact",
	"Long-term dynamic",
	"Stakeholder perspective",
	"Emergent property",
}

// Hypothesis generates candidate hypotheses for every dimension.
type Hypothesis struct {
	BaseStage
}

// NewHypothesis creates the default Hypothesis stage.
func NewHypothesis() *Hypothesis {
	return &Hypothesis{BaseStage: NewBaseStage(domain.StageHypothesis)}
}

func (st *Hypothesis) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	dims := dimensionNodes(g, s)
	if len(dims) == 0 {
		return st.Skip("no dimension nodes"), nil
	}
	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	var ids []string
	byDimension := make(map[string][]string, len(dims))
	for _, dim := range dims {
		for i := 0; i < p.HypothesesPerDimension; i++ {
			frame := hypothesisFrames[i%len(hypothesisFrames)]
			h := graph.NewNode(newID("hyp"), fmt.Sprintf("%s regarding %s", frame, dim.Label), graph.NodeTypeHypothesis)
			h.Metadata.Description = fmt.Sprintf("%s for the %s dimension of %q", frame, dim.Label, s.Query)
			h.Metadata.Confidence = graph.UniformConfidence(0.5)
			h.Metadata.Attribution = attribution(st.Kind().DisplayName())
			h.Metadata.LayerID = dim.Metadata.LayerID
			h.Metadata.ImpactScore = clamp01(0.9 - 0.15*float64(i))
			h.Metadata.Falsification = &graph.FalsificationCriteria{
				Description: fmt.Sprintf("Refuted if evidence on %s contradicts the %s", dim.Label, frame),
				TestableConditions: []string{
					fmt.Sprintf("Independent data on %s is collected", dim.Label),
					"Contradicting evidence outweighs supporting evidence",
				},
			}
			h.Metadata.Plan = &graph.Plan{
				Type:              "evidence_search",
				EstimatedCost:     1,
				RequiredResources: []string{"literature"},
			}
			if dim.Metadata.Interdisciplinary != nil {
				h.Metadata.Interdisciplinary = &graph.InterdisciplinaryInfo{
					DisciplinaryTags: dim.Metadata.Interdisciplinary.DisciplinaryTags,
				}
			}
			if err := g.AddNode(h); err != nil {
				return nil, err
			}
			if err := g.AddEdge(graph.NewEdge(newID("edge"), dim.ID, h.ID, graph.EdgeTypeGeneratesHypothesis, 0.6)); err != nil {
				return nil, err
			}
			ids = append(ids, h.ID)
			byDimension[dim.ID] = append(byDimension[dim.ID], h.ID)
		}
	}

	return st.Output(
		&domain.HypothesisResult{HypothesisNodeIDs: ids, HypothesesByDimension: byDimension},
		fmt.Sprintf("Generated %d hypotheses across %d dimensions", len(ids), len(dims)),
		map[string]any{"hypotheses_created": len(ids)},
	), nil
}

// dimensionNodes prefers the ids published by Decomposition and falls back to
// scanning the graph when that result is absent.
func dimensionNodes(g *graph.Graph, s *domain.Session) []*graph.Node {
	if dec, ok := domain.ResultOf[*domain.DecompositionResult](s.Context); ok {
		var out []*graph.Node
		for _, id := range dec.DimensionNodeIDs {
			if n, ok := g.Node(id); ok {
				out = append(out, n)
			}
		}
		return out
	}
	return collect(g.NodesByType(graph.NodeTypeDimension))
}
