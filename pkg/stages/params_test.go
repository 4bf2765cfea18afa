package stages_test

import (
	"testing"

	"github.com/aretw0/nexusmind/pkg/schema"
	"github.com/aretw0/nexusmind/pkg/stages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParams_Defaults(t *testing.T) {
	p, err := stages.DecodeParams(nil)
	require.NoError(t, err)
	assert.Equal(t, stages.DefaultParams(), p)
}

func TestDecodeParams_Overrides(t *testing.T) {
	p, err := stages.DecodeParams(map[string]any{
		stages.ParamDecompositionDimensions: []any{"Scope"},
		stages.ParamHypothesesPerDimension:  "2",
		stages.ParamIncludeDetailedReport:   false,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Scope"}, p.DecompositionDimensions, "supplied lists replace the defaults")
	assert.Equal(t, 2, p.HypothesesPerDimension)
	assert.False(t, p.IncludeDetailedReport)
	assert.Equal(t, stages.DefaultParams().EvidenceMaxIterations, p.EvidenceMaxIterations)
}

func TestDecodeParams_Invalid(t *testing.T) {
	_, err := stages.DecodeParams(map[string]any{
		stages.ParamPruningConfidenceThreshold: 1.5,
	})
	require.Error(t, err)

	errs := schema.ValidationErrors(err)
	require.Len(t, errs, 1)
	var verr *schema.ValidationError
	require.ErrorAs(t, errs[0], &verr)
	assert.Equal(t, "pruning_confidence_threshold", verr.Key)
	assert.Equal(t, "lte=1", verr.Reason)
}

func TestDecodeParams_EmptyDimensions(t *testing.T) {
	_, err := stages.DecodeParams(map[string]any{
		stages.ParamDecompositionDimensions: []string{},
	})
	assert.Error(t, err)
}
