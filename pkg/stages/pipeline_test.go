package stages_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/nexusmind/internal/runtime"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/aretw0/nexusmind/pkg/stages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipeline_EndToEnd(t *testing.T) {
	o, err := runtime.New(stages.DefaultFactory())
	require.NoError(t, err)

	s, err := o.Run(context.Background(), runtime.Request{Query: "What drives coastal erosion?"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, s.Status)
	require.Len(t, s.Trace, 8)
	for i, entry := range s.Trace {
		assert.Equal(t, i+1, entry.StageNumber)
		assert.Empty(t, entry.Error, "%s: %s", entry.StageName, entry.Error)
		assert.NotEmpty(t, entry.Summary)
	}

	assert.True(t, strings.HasSuffix(s.FinalAnswer, runtime.ReportSuffix))
	assert.Contains(t, s.FinalAnswer, "What drives coastal erosion?")
	assert.NotEqual(t, runtime.DefaultConfidence, s.FinalConfidence)
	for _, v := range s.FinalConfidence {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	stats := s.Graph.Statistics()
	assert.Equal(t, 1, stats.NodesByType[graph.NodeTypeRoot])
	assert.Equal(t, 7, stats.NodesByType[graph.NodeTypeDimension])
	assert.Equal(t, 21, stats.NodesByType[graph.NodeTypeHypothesis])
	assert.Equal(t, 5, stats.NodesByType[graph.NodeTypeEvidence])
	assert.Len(t, s.Context.Kinds(), 8)
}

func TestDefaultPipeline_StageOverride(t *testing.T) {
	reg := stages.DefaultRegistry()
	// A composition that publishes an output without an executive summary.
	require.NoError(t, reg.Register(domain.StageComposition, func() ports.Stage {
		return overrideStage{kind: domain.StageComposition, result: &domain.CompositionResult{
			FinalComposedOutput: domain.ComposedOutput{Title: "untitled"},
		}}
	}))

	o, err := runtime.New(reg.Factory())
	require.NoError(t, err)

	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, runtime.AnswerCompositionFail, s.FinalAnswer)
	assert.Equal(t, domain.StatusCompleted, s.Status)
}

func TestDefaultPipeline_ParameterErrorsAreTraced(t *testing.T) {
	o, err := runtime.New(stages.DefaultFactory())
	require.NoError(t, err)

	s, err := o.Run(context.Background(), runtime.Request{
		Query:             "q",
		OperationalParams: map[string]any{stages.ParamHypothesesPerDimension: 0},
	})
	require.NoError(t, err)

	// Initialization cannot decode its parameters, so no root is created.
	assert.Equal(t, domain.StatusHalted, s.Status)
	require.Len(t, s.Trace, 1)
	assert.Equal(t, runtime.HaltTraceError, s.Trace[0].Error)
	assert.Contains(t, s.Trace[0].Note, "hypotheses_per_dimension")
}

type overrideStage struct {
	kind   domain.StageKind
	result domain.StageResult
}

func (s overrideStage) Kind() domain.StageKind { return s.kind }

func (s overrideStage) Execute(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
	return &ports.StageOutput{Result: s.result, Summary: "override"}, nil
}
