package stages

import (
	"fmt"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/google/uuid"
)

// BaseStage carries what every default stage shares: its kind and the
// helpers to decode parameters and build outputs.
type BaseStage struct {
	kind domain.StageKind
}

// NewBaseStage returns a BaseStage for kind.
func NewBaseStage(kind domain.StageKind) BaseStage {
	return BaseStage{kind: kind}
}

// Kind returns the stage kind.
func (b BaseStage) Kind() domain.StageKind {
	return b.kind
}

// Params decodes the session's operational parameters.
func (b BaseStage) Params(s *domain.Session) (Params, error) {
	if s == nil || s.Context == nil {
		return DefaultParams(), nil
	}
	p, err := DecodeParams(s.Context.OperationalParams)
	if err != nil {
		return Params{}, fmt.Errorf("%s parameters: %w", b.kind, err)
	}
	return p, nil
}

// Output wraps a typed result with a summary and metrics.
func (b BaseStage) Output(result domain.StageResult, summary string, metrics map[string]any) *ports.StageOutput {
	return &ports.StageOutput{
		Result:  result,
		Summary: summary,
		Metrics: metrics,
	}
}

// Skip returns an empty result of the stage's own kind with a summary
// explaining why nothing was done.
func (b BaseStage) Skip(reason string) *ports.StageOutput {
	result, _ := domain.NewResult(b.kind)
	return &ports.StageOutput{
		Result:  result,
		Summary: fmt.Sprintf("%s skipped: %s", b.kind.DisplayName(), reason),
	}
}

// newID returns a session-unique id with a readable prefix.
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
