package domain

import (
	"github.com/aretw0/nexusmind/pkg/graph"
)

// Context keys published by stages.
const (
	KeyRootNodeID          = "root_node_id"
	KeyError               = "error"
	KeyFinalComposedOutput = "final_composed_output"
	KeyReflectionVector    = "final_confidence_vector_from_reflection"
	KeyInitialContext      = "initial_context"
	KeyOperationalParams   = "operational_params"
)

// StageResult is the typed context update a stage publishes.
// Each stage kind has exactly one record type; Kind is safe to call on a nil pointer.
type StageResult interface {
	Kind() StageKind
}

// NewResult returns an empty record for the given kind.
func NewResult(kind StageKind) (StageResult, error) {
	switch kind {
	case StageInitialization:
		return &InitializationResult{}, nil
	case StageDecomposition:
		return &DecompositionResult{}, nil
	case StageHypothesis:
		return &HypothesisResult{}, nil
	case StageEvidence:
		return &EvidenceResult{}, nil
	case StagePruningMerging:
		return &PruningMergingResult{}, nil
	case StageSubgraphExtraction:
		return &SubgraphExtractionResult{}, nil
	case StageComposition:
		return &CompositionResult{}, nil
	case StageReflection:
		return &ReflectionResult{}, nil
	}
	return nil, ErrUnknownStage
}

// InitializationResult is published by the Initialization stage.
type InitializationResult struct {
	RootNodeID              string   `json:"root_node_id,omitempty" mapstructure:"root_node_id"`
	InitialDisciplinaryTags []string `json:"initial_disciplinary_tags,omitempty" mapstructure:"initial_disciplinary_tags"`
	Error                   string   `json:"error,omitempty" mapstructure:"error"`
}

func (*InitializationResult) Kind() StageKind { return StageInitialization }

// DecompositionResult is published by the Decomposition stage.
type DecompositionResult struct {
	DimensionNodeIDs []string    `json:"dimension_node_ids,omitempty" mapstructure:"dimension_node_ids" validate:"dive,required"`
	Plan             *graph.Plan `json:"plan,omitempty" mapstructure:"plan"`
}

func (*DecompositionResult) Kind() StageKind { return StageDecomposition }

// HypothesisResult is published by the Hypothesis stage.
type HypothesisResult struct {
	HypothesisNodeIDs     []string            `json:"hypothesis_node_ids,omitempty" mapstructure:"hypothesis_node_ids" validate:"dive,required"`
	HypothesesByDimension map[string][]string `json:"hypotheses_by_dimension,omitempty" mapstructure:"hypotheses_by_dimension"`
}

func (*HypothesisResult) Kind() StageKind { return StageHypothesis }

// EvidenceResult is published by the Evidence stage.
type EvidenceResult struct {
	EvidenceNodeIDs     []string `json:"evidence_node_ids,omitempty" mapstructure:"evidence_node_ids" validate:"dive,required"`
	IterationsCompleted int      `json:"iterations_completed" mapstructure:"iterations_completed" validate:"gte=0"`
	UpdatedHypotheses   []string `json:"updated_hypotheses,omitempty" mapstructure:"updated_hypotheses"`
}

func (*EvidenceResult) Kind() StageKind { return StageEvidence }

// MergedPair records that Removed was folded into Kept.
type MergedPair struct {
	Kept       string  `json:"kept" mapstructure:"kept" validate:"required"`
	Removed    string  `json:"removed" mapstructure:"removed" validate:"required,nefield=Kept"`
	Similarity float64 `json:"similarity" mapstructure:"similarity" validate:"gte=0,lte=1"`
}

// PruningMergingResult is published by the PruningMerging stage.
type PruningMergingResult struct {
	PrunedNodeIDs  []string     `json:"pruned_node_ids,omitempty" mapstructure:"pruned_node_ids"`
	MergedPairs    []MergedPair `json:"merged_pairs,omitempty" mapstructure:"merged_pairs" validate:"dive"`
	NodesRemaining int          `json:"nodes_remaining" mapstructure:"nodes_remaining" validate:"gte=0"`
	EdgesRemaining int          `json:"edges_remaining" mapstructure:"edges_remaining" validate:"gte=0"`
}

func (*PruningMergingResult) Kind() StageKind { return StagePruningMerging }

// Subgraph is a named selection of nodes and edges relevant to composition.
type Subgraph struct {
	Name        string   `json:"name" mapstructure:"name" validate:"required"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	NodeIDs     []string `json:"node_ids" mapstructure:"node_ids"`
	EdgeIDs     []string `json:"edge_ids,omitempty" mapstructure:"edge_ids"`
}

// SubgraphExtractionResult is published by the SubgraphExtraction stage.
type SubgraphExtractionResult struct {
	Subgraphs []Subgraph `json:"subgraphs" mapstructure:"subgraphs" validate:"dive"`
}

func (*SubgraphExtractionResult) Kind() StageKind { return StageSubgraphExtraction }

// CompositionResult is published by the Composition stage.
// FinalComposedOutput holds a ComposedOutput, or its loosely typed map form; it is
// only decoded and validated when the final answer is extracted.
type CompositionResult struct {
	FinalComposedOutput any `json:"final_composed_output,omitempty" mapstructure:"final_composed_output" validate:"-"`
}

func (*CompositionResult) Kind() StageKind { return StageComposition }

// AuditCheck is one quality check performed during reflection.
type AuditCheck struct {
	Name    string `json:"name" mapstructure:"name" validate:"required"`
	Status  string `json:"status" mapstructure:"status" validate:"oneof=pass warning fail"`
	Message string `json:"message,omitempty" mapstructure:"message"`
}

// ReflectionResult is published by the Reflection stage.
type ReflectionResult struct {
	FinalConfidenceVector []float64    `json:"final_confidence_vector_from_reflection,omitempty" mapstructure:"final_confidence_vector_from_reflection" validate:"omitempty,len=4,dive,gte=0,lte=1"`
	AuditChecks           []AuditCheck `json:"audit_checks,omitempty" mapstructure:"audit_checks" validate:"dive"`
}

func (*ReflectionResult) Kind() StageKind { return StageReflection }

// ComposedOutput is the structured answer synthesized by the Composition stage.
type ComposedOutput struct {
	Title                string             `json:"title,omitempty" mapstructure:"title"`
	ExecutiveSummary     string             `json:"executive_summary" mapstructure:"executive_summary" validate:"required"`
	DetailedReport       string             `json:"detailed_report,omitempty" mapstructure:"detailed_report"`
	KeyFindings          []string           `json:"key_findings,omitempty" mapstructure:"key_findings"`
	ConfidenceAssessment map[string]float64 `json:"confidence_assessment,omitempty" mapstructure:"confidence_assessment" validate:"dive,gte=0,lte=1"`
}
