package stages

import (
	"context"
	"fmt"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// Audit check statuses.
const (
	AuditPass    = "pass"
	AuditWarning = "warning"
	AuditFail    = "fail"
)

// failPenalty is the share of confidence lost per failed audit check.
const failPenalty = 0.1

// Reflection audits the finished graph and publishes the final confidence vector.
type Reflection struct {
	BaseStage
}

// NewReflection creates the default Reflection stage.
func NewReflection() *Reflection {
	return &Reflection{BaseStage: NewBaseStage(domain.StageReflection)}
}

func (st *Reflection) Execute(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	if g.NodeCount() == 0 {
		return st.Skip("graph is empty"), nil
	}

	hyps := collect(g.NodesByType(graph.NodeTypeHypothesis))
	checks := []domain.AuditCheck{
		coverageCheck(g, hyps),
		evidenceBalanceCheck(g),
		falsifiabilityCheck(hyps),
		biasCheck(hyps),
		compositionCheck(s),
	}

	var fails int
	for _, c := range checks {
		if c.Status == AuditFail {
			fails++
		}
	}

	base, ok := meanConfidence(hyps)
	if !ok {
		base = graph.DefaultConfidence()
		for n := range g.NodesByType(graph.NodeTypeRoot) {
			base = n.Metadata.Confidence
			break
		}
	}
	scale := clamp01(1 - failPenalty*float64(fails))
	vector := make([]float64, 0, 4)
	for _, v := range base.Slice() {
		vector = append(vector, clamp01(v*scale))
	}

	return st.Output(
		&domain.ReflectionResult{FinalConfidenceVector: vector, AuditChecks: checks},
		fmt.Sprintf("Ran %d audit checks, %d failed", len(checks), fails),
		map[string]any{"audit_checks": len(checks), "audit_failures": fails},
	), nil
}

func coverageCheck(g *graph.Graph, hyps []*graph.Node) domain.AuditCheck {
	c := domain.AuditCheck{Name: "coverage"}
	var uncovered int
	for dim := range g.NodesByType(graph.NodeTypeDimension) {
		covered := false
		for _, e := range g.EdgesFrom(dim.ID) {
			if e.Type == graph.EdgeTypeGeneratesHypothesis {
				covered = true
				break
			}
		}
		if !covered {
			uncovered++
		}
	}
	switch {
	case len(hyps) == 0:
		c.Status, c.Message = AuditFail, "no hypotheses were generated"
	case uncovered > 0:
		c.Status, c.Message = AuditWarning, fmt.Sprintf("%d dimensions have no hypotheses", uncovered)
	default:
		c.Status, c.Message = AuditPass, fmt.Sprintf("%d hypotheses cover every dimension", len(hyps))
	}
	return c
}

func evidenceBalanceCheck(g *graph.Graph) domain.AuditCheck {
	c := domain.AuditCheck{Name: "evidence_balance"}
	var supportive, contradictory int
	for e := range g.Edges() {
		switch e.Type {
		case graph.EdgeTypeSupportive:
			supportive++
		case graph.EdgeTypeContradictory:
			contradictory++
		}
	}
	switch {
	case supportive+contradictory == 0:
		c.Status, c.Message = AuditFail, "no evidence was integrated"
	case contradictory == 0:
		c.Status, c.Message = AuditWarning, "evidence is entirely supportive"
	default:
		c.Status, c.Message = AuditPass, fmt.Sprintf("%d supportive and %d contradictory links", supportive, contradictory)
	}
	return c
}

func falsifiabilityCheck(hyps []*graph.Node) domain.AuditCheck {
	c := domain.AuditCheck{Name: "falsifiability"}
	var falsifiable int
	for _, h := range hyps {
		if FalsifiabilityScore(h.Metadata.Falsification) > 0 {
			falsifiable++
		}
	}
	switch {
	case len(hyps) == 0:
		c.Status, c.Message = AuditWarning, "no hypotheses to assess"
	case falsifiable*2 < len(hyps):
		c.Status, c.Message = AuditFail, fmt.Sprintf("only %d of %d hypotheses are falsifiable", falsifiable, len(hyps))
	default:
		c.Status, c.Message = AuditPass, fmt.Sprintf("%d of %d hypotheses are falsifiable", falsifiable, len(hyps))
	}
	return c
}

func biasCheck(hyps []*graph.Node) domain.AuditCheck {
	c := domain.AuditCheck{Name: "bias_flags"}
	var flagged int
	for _, h := range hyps {
		if len(h.Metadata.BiasFlags) > 0 {
			flagged++
		}
	}
	if flagged > 0 {
		c.Status, c.Message = AuditWarning, fmt.Sprintf("%d hypotheses carry bias flags", flagged)
	} else {
		c.Status, c.Message = AuditPass, "no bias flags raised"
	}
	return c
}

func compositionCheck(s *domain.Session) domain.AuditCheck {
	c := domain.AuditCheck{Name: "composition_present"}
	if res, ok := domain.ResultOf[*domain.CompositionResult](s.Context); ok && res.FinalComposedOutput != nil {
		c.Status, c.Message = AuditPass, "composed output is available"
	} else {
		c.Status, c.Message = AuditFail, "composition produced no output"
	}
	return c
}
