package graph

import (
	"time"
)

// NodeType is the closed set of node variants in a thought graph.
type NodeType string

const (
	NodeTypeRoot                    NodeType = "root"
	NodeTypeDimension               NodeType = "dimension"
	NodeTypeHypothesis              NodeType = "hypothesis"
	NodeTypeEvidence                NodeType = "evidence"
	NodeTypeIntermediate            NodeType = "intermediate"
	NodeTypeInterdisciplinaryBridge NodeType = "interdisciplinary_bridge"
	NodeTypePlaceholderGap          NodeType = "placeholder_gap"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeRoot, NodeTypeDimension, NodeTypeHypothesis, NodeTypeEvidence,
		NodeTypeIntermediate, NodeTypeInterdisciplinaryBridge, NodeTypePlaceholderGap:
		return true
	}
	return false
}

// Node represents a single thought in the graph.
type Node struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Type     NodeType     `json:"type"`
	Metadata NodeMetadata `json:"metadata"`
}

// NewNode builds a node with its temporal metadata initialized.
func NewNode(id, label string, nodeType NodeType) *Node {
	now := time.Now().UTC()
	return &Node{
		ID:    id,
		Label: label,
		Type:  nodeType,
		Metadata: NodeMetadata{
			Confidence: DefaultConfidence(),
			Temporal: TemporalMetadata{
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
}

// NodeMetadata groups everything the stages know about a node.
// Fields are merged or appended; overwrites go through Graph.UpdateNode so
// that a RevisionRecord snapshots the prior value.
type NodeMetadata struct {
	Description       string                       `json:"description,omitempty"`
	Attribution       []Attribution                `json:"attribution,omitempty"`
	Confidence        ConfidenceVector             `json:"confidence"`
	Temporal          TemporalMetadata             `json:"temporal"`
	StatisticalPower  *StatisticalPower            `json:"statistical_power,omitempty"`
	InfoMetrics       *InformationTheoreticMetrics `json:"info_metrics,omitempty"`
	Interdisciplinary *InterdisciplinaryInfo       `json:"interdisciplinary,omitempty"`
	Falsification     *FalsificationCriteria       `json:"falsification,omitempty"`
	BiasFlags         []BiasFlag                   `json:"bias_flags,omitempty"`
	Causal            *CausalMetadata              `json:"causal,omitempty"`
	Plan              *Plan                        `json:"plan,omitempty"`
	ImpactScore       float64                      `json:"impact_score,omitempty"`
	LayerID           string                       `json:"layer_id,omitempty"`
	Extra             map[string]any               `json:"extra,omitempty"`
}

// Attribution records where a piece of knowledge came from.
type Attribution struct {
	Source      string    `json:"source"`
	Contributor string    `json:"contributor,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ConfidenceVector holds the four independent confidence dimensions of a node.
// Every component is in [0,1].
type ConfidenceVector struct {
	EmpiricalSupport    float64 `json:"empirical_support"`
	TheoreticalBasis    float64 `json:"theoretical_basis"`
	MethodologicalRigor float64 `json:"methodological_rigor"`
	ConsensusAlignment  float64 `json:"consensus_alignment"`
}

// DefaultConfidence is the neutral starting confidence for a new node.
func DefaultConfidence() ConfidenceVector {
	return ConfidenceVector{0.5, 0.5, 0.5, 0.5}
}

// UniformConfidence returns a vector with every component set to v (clamped to [0,1]).
func UniformConfidence(v float64) ConfidenceVector {
	v = clamp01(v)
	return ConfidenceVector{v, v, v, v}
}

// Slice returns the components in canonical order.
func (c ConfidenceVector) Slice() []float64 {
	return []float64{c.EmpiricalSupport, c.TheoreticalBasis, c.MethodologicalRigor, c.ConsensusAlignment}
}

// Average returns the mean of the four components.
func (c ConfidenceVector) Average() float64 {
	return (c.EmpiricalSupport + c.TheoreticalBasis + c.MethodologicalRigor + c.ConsensusAlignment) / 4
}

// TemporalMetadata tracks creation, last update and the revision history.
type TemporalMetadata struct {
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Revisions []RevisionRecord `json:"revisions,omitempty"`
}

// RevisionRecord snapshots the previous state of a node before an overwrite.
type RevisionRecord struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	Previous  Snapshot  `json:"previous"`
}

// Snapshot is the part of a node that is captured by a revision.
type Snapshot struct {
	Label       string           `json:"label"`
	Type        NodeType         `json:"type"`
	Description string           `json:"description,omitempty"`
	Confidence  ConfidenceVector `json:"confidence"`
	ImpactScore float64          `json:"impact_score,omitempty"`
}

// StatisticalPower estimates how strongly the available evidence can detect an effect.
type StatisticalPower struct {
	Value      float64 `json:"value"`
	SampleSize int     `json:"sample_size,omitempty"`
	EffectSize float64 `json:"effect_size,omitempty"`
}

// InformationTheoreticMetrics captures entropy-style measures for a node.
type InformationTheoreticMetrics struct {
	Entropy         float64 `json:"entropy"`
	InformationGain float64 `json:"information_gain"`
	KLDivergence    float64 `json:"kl_divergence,omitempty"`
}

// InterdisciplinaryInfo tags a node with the disciplines it touches.
type InterdisciplinaryInfo struct {
	DisciplinaryTags []string `json:"disciplinary_tags,omitempty"`
	IsBridge         bool     `json:"is_bridge,omitempty"`
}

// FalsificationCriteria describes how a hypothesis could be proven wrong.
type FalsificationCriteria struct {
	Description        string   `json:"description"`
	TestableConditions []string `json:"testable_conditions,omitempty"`
}

// BiasFlag marks a suspected bias on a node.
type BiasFlag struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// CausalMetadata describes the causal role a node plays.
type CausalMetadata struct {
	Role           string   `json:"role"`
	RelatedNodeIDs []string `json:"related_node_ids,omitempty"`
}

func (n *Node) snapshot() Snapshot {
	return Snapshot{
		Label:       n.Label,
		Type:        n.Type,
		Description: n.Metadata.Description,
		Confidence:  n.Metadata.Confidence,
		ImpactScore: n.Metadata.ImpactScore,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
