package stages

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

const maxKeyFindings = 5

// Composition writes the structured answer from the extracted subgraphs.
type Composition struct {
	BaseStage
}

// NewComposition creates the default Composition stage.
func NewComposition() *Composition {
	return &Composition{BaseStage: NewBaseStage(domain.StageComposition)}
}

func (st *Composition) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	if g.NodeCount() == 0 {
		return st.Skip("graph is empty"), nil
	}
	p, err := st.Params(s)
	if err != nil {
		return nil, err
	}

	hyps := collect(g.NodesByType(graph.NodeTypeHypothesis))
	slices.SortStableFunc(hyps, func(a, b *graph.Node) int {
		return cmp.Compare(b.Metadata.Confidence.Average(), a.Metadata.Confidence.Average())
	})
	evidenceCount := len(collect(g.NodesByType(graph.NodeTypeEvidence)))

	var findings []string
	for _, h := range hyps[:min(len(hyps), maxKeyFindings)] {
		findings = append(findings, fmt.Sprintf("%s (confidence %.2f)", h.Label, h.Metadata.Confidence.Average()))
	}

	var subgraphs []domain.Subgraph
	if res, ok := domain.ResultOf[*domain.SubgraphExtractionResult](s.Context); ok {
		subgraphs = res.Subgraphs
	}

	assessment := graph.DefaultConfidence()
	if mean, ok := meanConfidence(hyps); ok {
		assessment = mean
	}

	out := domain.ComposedOutput{
		Title: "Analysis of: " + truncate(s.Query, 80),
		ExecutiveSummary: fmt.Sprintf(
			"The analysis of %q explored %d hypotheses supported by %d evidence nodes across %d subgraphs.",
			s.Query, len(hyps), evidenceCount, len(subgraphs),
		),
		KeyFindings: findings,
		ConfidenceAssessment: map[string]float64{
			"empirical_support":    assessment.EmpiricalSupport,
			"theoretical_basis":    assessment.TheoreticalBasis,
			"methodological_rigor": assessment.MethodologicalRigor,
			"consensus_alignment":  assessment.ConsensusAlignment,
		},
	}
	if p.IncludeDetailedReport {
		out.DetailedReport = report(g, out, subgraphs)
	}

	return st.Output(
		&domain.CompositionResult{FinalComposedOutput: out},
		fmt.Sprintf("Composed answer with %d key findings", len(findings)),
		map[string]any{"key_findings": len(findings), "subgraphs_used": len(subgraphs)},
	), nil
}

// report renders a markdown report of the composed output.
func report(g *graph.Graph, out domain.ComposedOutput, subgraphs []domain.Subgraph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", out.Title)
	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", out.ExecutiveSummary)

	if len(out.KeyFindings) > 0 {
		b.WriteString("## Key Findings\n\n")
		for _, f := range out.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	for _, sg := range subgraphs {
		fmt.Fprintf(&b, "## %s\n\n", sg.Name)
		if sg.Description != "" {
			fmt.Fprintf(&b, "_%s_\n\n", sg.Description)
		}
		for _, id := range sg.NodeIDs {
			if n, ok := g.Node(id); ok {
				fmt.Fprintf(&b, "- **%s** (%s, %.2f)\n", n.Label, n.Type, n.Metadata.Confidence.Average())
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Confidence Assessment\n\n| Component | Value |\n| --- | --- |\n")
	for _, k := range slices.Sorted(maps.Keys(out.ConfidenceAssessment)) {
		fmt.Fprintf(&b, "| %s | %.2f |\n", k, out.ConfidenceAssessment[k])
	}
	return b.String()
}
