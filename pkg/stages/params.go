package stages

import (
	"github.com/aretw0/nexusmind/pkg/schema"
)

// Operational parameter keys recognized by the default stages.
const (
	ParamInitialConfidence          = "initial_confidence"
	ParamDefaultDisciplinaryTags    = "default_disciplinary_tags"
	ParamDecompositionDimensions    = "decomposition_dimensions"
	ParamHypothesesPerDimension     = "hypotheses_per_dimension"
	ParamEvidenceMaxIterations      = "evidence_max_iterations"
	ParamPruningConfidenceThreshold = "pruning_confidence_threshold"
	ParamPruningImpactThreshold     = "pruning_impact_threshold"
	ParamMergingSimilarityThreshold = "merging_similarity_threshold"
	ParamSubgraphMinConfidence      = "subgraph_min_confidence"
	ParamIncludeDetailedReport      = "include_detailed_report"
)

// Params are the tuning options of the default stages, decoded from a
// session's operational parameters on top of DefaultParams.
type Params struct {
	InitialConfidence          float64  `json:"initial_confidence" mapstructure:"initial_confidence" validate:"gte=0,lte=1"`
	DefaultDisciplinaryTags    []string `json:"default_disciplinary_tags" mapstructure:"default_disciplinary_tags" validate:"dive,required"`
	DecompositionDimensions    []string `json:"decomposition_dimensions" mapstructure:"decomposition_dimensions" validate:"min=1,dive,required"`
	HypothesesPerDimension     int      `json:"hypotheses_per_dimension" mapstructure:"hypotheses_per_dimension" validate:"gte=1,lte=10"`
	EvidenceMaxIterations      int      `json:"evidence_max_iterations" mapstructure:"evidence_max_iterations" validate:"gte=0,lte=100"`
	PruningConfidenceThreshold float64  `json:"pruning_confidence_threshold" mapstructure:"pruning_confidence_threshold" validate:"gte=0,lte=1"`
	PruningImpactThreshold     float64  `json:"pruning_impact_threshold" mapstructure:"pruning_impact_threshold" validate:"gte=0,lte=1"`
	MergingSimilarityThreshold float64  `json:"merging_similarity_threshold" mapstructure:"merging_similarity_threshold" validate:"gt=0,lte=1"`
	SubgraphMinConfidence      float64  `json:"subgraph_min_confidence" mapstructure:"subgraph_min_confidence" validate:"gte=0,lte=1"`
	IncludeDetailedReport      bool     `json:"include_detailed_report" mapstructure:"include_detailed_report"`
}

// DefaultParams returns the parameters used when a session supplies none.
func DefaultParams() Params {
	return Params{
		InitialConfidence:       0.9,
		DefaultDisciplinaryTags: []string{"general_knowledge"},
		DecompositionDimensions: []string{
			"Scope", "Objectives", "Constraints", "Data Needs",
			"Use Cases", "Potential Biases", "Knowledge Gaps",
		},
		HypothesesPerDimension:     3,
		EvidenceMaxIterations:      5,
		PruningConfidenceThreshold: 0.2,
		PruningImpactThreshold:     0.3,
		MergingSimilarityThreshold: 0.8,
		SubgraphMinConfidence:      0.6,
		IncludeDetailedReport:      true,
	}
}

// DecodeParams overlays raw operational parameters on DefaultParams.
// Values are weakly typed, so "3" and 3.0 both decode into an int field.
func DecodeParams(raw map[string]any) (Params, error) {
	p := DefaultParams()
	if len(raw) == 0 {
		return p, nil
	}
	// mapstructure writes into existing slices element by element; supplied
	// lists must replace the defaults instead.
	if _, ok := raw[ParamDecompositionDimensions]; ok {
		p.DecompositionDimensions = nil
	}
	if _, ok := raw[ParamDefaultDisciplinaryTags]; ok {
		p.DefaultDisciplinaryTags = nil
	}
	if err := schema.Decode(raw, &p); err != nil {
		return Params{}, err
	}
	return p, nil
}
