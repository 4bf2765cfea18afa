package runtime

import (
	"errors"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/schema"
)

// Final answer strings.
const (
	ReportSuffix          = "\n\n(Full report details generated)"
	AnswerNoComposition   = "Composition stage did not produce a final output structure."
	AnswerCompositionFail = "Error during final composition of answer."
)

// DefaultConfidence is used when Reflection publishes no vector.
var DefaultConfidence = domain.ConfidenceVector{0.1, 0.1, 0.1, 0.1}

// ErrNoComposition is returned by ComposedOutput when Composition published nothing
// or an empty structure.
var ErrNoComposition = errors.New("no composed output")

// ComposedOutput decodes and validates the Composition stage's structured answer.
// The stored value may be a ComposedOutput or its map form after a JSON round trip.
func ComposedOutput(c *domain.AccumulatedContext) (*domain.ComposedOutput, error) {
	comp, ok := domain.ResultOf[*domain.CompositionResult](c)
	if !ok || comp.FinalComposedOutput == nil {
		return nil, ErrNoComposition
	}
	if m, isMap := comp.FinalComposedOutput.(map[string]any); isMap && len(m) == 0 {
		return nil, ErrNoComposition
	}

	var out domain.ComposedOutput
	switch v := comp.FinalComposedOutput.(type) {
	case domain.ComposedOutput:
		out = v
	case *domain.ComposedOutput:
		if v == nil {
			return nil, ErrNoComposition
		}
		out = *v
	default:
		if err := schema.Decode(v, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	if err := schema.Struct(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// extractFinal sets the final answer and confidence vector of a completed run.
func extractFinal(s *domain.Session) {
	composed, err := ComposedOutput(s.Context)
	switch {
	case errors.Is(err, ErrNoComposition):
		s.FinalAnswer = AnswerNoComposition
	case err != nil:
		s.FinalAnswer = AnswerCompositionFail
	default:
		s.FinalAnswer = composed.ExecutiveSummary + ReportSuffix
	}

	s.FinalConfidence = DefaultConfidence
	if refl, ok := domain.ResultOf[*domain.ReflectionResult](s.Context); ok && len(refl.FinalConfidenceVector) == 4 {
		copy(s.FinalConfidence[:], refl.FinalConfidenceVector)
	}
}
