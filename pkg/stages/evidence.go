package stages

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

const (
	evidenceWeight  = 0.2
	bridgeThreshold = 0.5
	contradictShare = 0.25
)

// Evidence attaches evidence to the most promising hypotheses, one hypothesis
// per iteration, and updates their confidence and information metrics.
type Evidence struct {
	BaseStage
}

// NewEvidence creates the default Evidence stage.
func NewEvidence() *Evidence {
	return &Evidence{BaseStage: NewBaseStage(domain.StageEvidence)}
}

func (st *Evidence) Execute(ctx context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	hyps := hypothesisNodes(g, s)
	if len(hyps) == 0 {
		return st.Skip("no hypothesis nodes"), nil
	}
	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	// Highest expected value first: impact weighted by current confidence.
	slices.SortStableFunc(hyps, func(a, b *graph.Node) int {
		return cmp.Compare(priority(b), priority(a))
	})

	var (
		evidenceIDs []string
		updated     []string
		supported   []string
		previous    *graph.Node
		bridges     int
		iterations  int
	)
	for iterations < p.EvidenceMaxIterations {
		if err := ctx.Err(); err != nil {
			break
		}
		h := hyps[iterations%len(hyps)]
		iterations++

		ev, supportive, err := st.attach(g, h)
		if err != nil {
			return nil, err
		}
		evidenceIDs = append(evidenceIDs, ev.ID)
		if !slices.Contains(updated, h.ID) {
			updated = append(updated, h.ID)
		}
		if supportive && !slices.Contains(supported, h.ID) {
			supported = append(supported, h.ID)
		}

		if previous != nil && previous.ID != h.ID &&
			previous.Metadata.LayerID != h.Metadata.LayerID &&
			Similarity(previous.Label, h.Label) >= bridgeThreshold {
			if err := st.bridge(g, previous, h); err != nil {
				return nil, err
			}
			bridges++
		}
		previous = h
	}

	if len(supported) >= 2 {
		he := graph.NewHyperedge(newID("hyper"), supported, "jointly_supported", 0.6)
		he.Metadata.Attribution = attribution(st.Kind().DisplayName())
		if err := g.AddHyperedge(he); err != nil {
			return nil, err
		}
	}

	return st.Output(
		&domain.EvidenceResult{
			EvidenceNodeIDs:     evidenceIDs,
			IterationsCompleted: iterations,
			UpdatedHypotheses:   updated,
		},
		fmt.Sprintf("Integrated %d evidence nodes over %d iterations", len(evidenceIDs), iterations),
		map[string]any{"evidence_created": len(evidenceIDs), "bridges_created": bridges},
	), nil
}

// attach creates one evidence node for h and folds it into h's confidence.
func (st *Evidence) attach(g *graph.Graph, h *graph.Node) (*graph.Node, bool, error) {
	frac := stableFraction(h.Label)
	supportive := frac >= contradictShare
	power := 0.5 + 0.4*frac

	ev := graph.NewNode(newID("ev"), "Evidence on "+h.Label, graph.NodeTypeEvidence)
	ev.Metadata.Description = fmt.Sprintf("Synthesized evidence assessing %q", h.Metadata.Description)
	ev.Metadata.Confidence = graph.UniformConfidence(0.4 + 0.4*frac)
	ev.Metadata.Attribution = attribution(st.Kind().DisplayName())
	ev.Metadata.LayerID = h.Metadata.LayerID
	ev.Metadata.ImpactScore = power
	ev.Metadata.StatisticalPower = &graph.StatisticalPower{
		Value:      power,
		SampleSize: 30 + int(frac*300),
		EffectSize: 0.2 + 0.6*frac,
	}
	if err := g.AddNode(ev); err != nil {
		return nil, false, err
	}

	edgeType := graph.EdgeTypeSupportive
	delta := evidenceWeight * power
	if !supportive {
		edgeType = graph.EdgeTypeContradictory
		delta = -delta
	}
	if err := g.AddEdge(graph.NewEdge(newID("edge"), ev.ID, h.ID, edgeType, power)); err != nil {
		return nil, false, err
	}

	before := h.Metadata.Confidence.Average()
	err := g.UpdateNode(h.ID, "evidence integrated: "+ev.ID, func(n *graph.Node) {
		n.Metadata.Confidence = shift(n.Metadata.Confidence, delta)
		after := n.Metadata.Confidence.Average()
		n.Metadata.InfoMetrics = &graph.InformationTheoreticMetrics{
			Entropy:         BinaryEntropy(after),
			InformationGain: BinaryEntropy(before) - BinaryEntropy(after),
		}
		if n.Metadata.Extra == nil {
			n.Metadata.Extra = make(map[string]any)
		}
		n.Metadata.Extra["falsifiability_score"] = FalsifiabilityScore(n.Metadata.Falsification)
		n.Metadata.BiasFlags = DetectBiases(g, n.ID)
	})
	return ev, supportive, err
}

// bridge links two similar hypotheses from different dimensions through an
// interdisciplinary bridge node.
func (st *Evidence) bridge(g *graph.Graph, a, b *graph.Node) error {
	n := graph.NewNode(newID("ibn"), fmt.Sprintf("Bridge: %s / %s", a.Label, b.Label), graph.NodeTypeInterdisciplinaryBridge)
	n.Metadata.Description = "Connects related hypotheses across dimensions"
	n.Metadata.Confidence = graph.UniformConfidence(Similarity(a.Label, b.Label))
	n.Metadata.Attribution = attribution(st.Kind().DisplayName())
	n.Metadata.Interdisciplinary = &graph.InterdisciplinaryInfo{IsBridge: true}
	n.Metadata.ImpactScore = 0.5
	if err := g.AddNode(n); err != nil {
		return err
	}
	if err := g.AddEdge(graph.NewEdge(newID("edge"), a.ID, n.ID, graph.EdgeTypeInterdisciplinaryIn, 0.5)); err != nil {
		return err
	}
	return g.AddEdge(graph.NewEdge(newID("edge"), n.ID, b.ID, graph.EdgeTypeInterdisciplinaryOut, 0.5))
}

func priority(n *graph.Node) float64 {
	return n.Metadata.ImpactScore * n.Metadata.Confidence.Average()
}

// hypothesisNodes prefers the ids published by Hypothesis and falls back to
// scanning the graph when that result is absent.
func hypothesisNodes(g *graph.Graph, s *domain.Session) []*graph.Node {
	if res, ok := domain.ResultOf[*domain.HypothesisResult](s.Context); ok {
		var out []*graph.Node
		for _, id := range res.HypothesisNodeIDs {
			if n, ok := g.Node(id); ok {
				out = append(out, n)
			}
		}
		return out
	}
	return collect(g.NodesByType(graph.NodeTypeHypothesis))
}
