package domain

import "fmt"

// StageKind identifies one of the eight fixed pipeline stages.
// The numeric value is the stage's 1-based position in the sequence.
type StageKind int

const (
	StageInitialization StageKind = iota + 1
	StageDecomposition
	StageHypothesis
	StageEvidence
	StagePruningMerging
	StageSubgraphExtraction
	StageComposition
	StageReflection
)

var stageNames = [...]string{
	StageInitialization:     "initialization",
	StageDecomposition:      "decomposition",
	StageHypothesis:         "hypothesis",
	StageEvidence:           "evidence",
	StagePruningMerging:     "pruning_merging",
	StageSubgraphExtraction: "subgraph_extraction",
	StageComposition:        "composition",
	StageReflection:         "reflection",
}

var stageDisplayNames = [...]string{
	StageInitialization:     "InitializationStage",
	StageDecomposition:      "DecompositionStage",
	StageHypothesis:         "HypothesisStage",
	StageEvidence:           "EvidenceStage",
	StagePruningMerging:     "PruningMergingStage",
	StageSubgraphExtraction: "SubgraphExtractionStage",
	StageComposition:        "CompositionStage",
	StageReflection:         "ReflectionStage",
}

// StageKinds returns the fixed stage sequence in execution order.
func StageKinds() []StageKind {
	return []StageKind{
		StageInitialization,
		StageDecomposition,
		StageHypothesis,
		StageEvidence,
		StagePruningMerging,
		StageSubgraphExtraction,
		StageComposition,
		StageReflection,
	}
}

// Valid reports whether k is one of the eight known kinds.
func (k StageKind) Valid() bool {
	return k >= StageInitialization && k <= StageReflection
}

// Number returns the 1-based position of the stage in the sequence.
func (k StageKind) Number() int {
	return int(k)
}

// String returns the stage name used as the accumulated context key.
func (k StageKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("stage(%d)", int(k))
	}
	return stageNames[k]
}

// DisplayName returns the human-readable stage name used in traces.
func (k StageKind) DisplayName() string {
	if !k.Valid() {
		return k.String()
	}
	return stageDisplayNames[k]
}

// ParseStageKind resolves a stage name or display name.
func ParseStageKind(name string) (StageKind, error) {
	for _, k := range StageKinds() {
		if name == stageNames[k] || name == stageDisplayNames[k] {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownStage)
}

// MarshalText encodes the kind as its stage name, so it can key JSON objects.
func (k StageKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("marshal %d: %w", int(k), ErrUnknownStage)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a stage name.
func (k *StageKind) UnmarshalText(text []byte) error {
	parsed, err := ParseStageKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
