package graph

import "time"

// EdgeType is the closed set of binary relations between thoughts.
type EdgeType string

const (
	EdgeTypeDecompositionOf      EdgeType = "decomposition_of"
	EdgeTypeGeneratesHypothesis  EdgeType = "generates_hypothesis"
	EdgeTypeSupportive           EdgeType = "supportive"
	EdgeTypeContradictory        EdgeType = "contradictory"
	EdgeTypeCorrelative          EdgeType = "correlative"
	EdgeTypeCausal               EdgeType = "causal"
	EdgeTypeTemporalPrecedence   EdgeType = "temporal_precedence"
	EdgeTypeRefines              EdgeType = "refines"
	EdgeTypeInterdisciplinaryIn  EdgeType = "ibn_source"
	EdgeTypeInterdisciplinaryOut EdgeType = "ibn_target"
	EdgeTypeOther                EdgeType = "other"
)

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeDecompositionOf, EdgeTypeGeneratesHypothesis, EdgeTypeSupportive,
		EdgeTypeContradictory, EdgeTypeCorrelative, EdgeTypeCausal,
		EdgeTypeTemporalPrecedence, EdgeTypeRefines, EdgeTypeInterdisciplinaryIn,
		EdgeTypeInterdisciplinaryOut, EdgeTypeOther:
		return true
	}
	return false
}

// Edge is a directed, typed relation between two existing nodes.
type Edge struct {
	ID       string       `json:"id"`
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Type     EdgeType     `json:"type"`
	Metadata EdgeMetadata `json:"metadata"`
}

// EdgeMetadata carries the confidence and provenance of a relation.
type EdgeMetadata struct {
	Confidence  float64       `json:"confidence"`
	Description string        `json:"description,omitempty"`
	Attribution []Attribution `json:"attribution,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewEdge builds an edge stamped with the current time.
func NewEdge(id, source, target string, edgeType EdgeType, confidence float64) *Edge {
	return &Edge{
		ID:     id,
		Source: source,
		Target: target,
		Type:   edgeType,
		Metadata: EdgeMetadata{
			Confidence: clamp01(confidence),
			CreatedAt:  time.Now().UTC(),
		},
	}
}

// Touches reports whether the edge has nodeID as either endpoint.
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Hyperedge is a relation over two or more nodes that is not reducible to pairs.
type Hyperedge struct {
	ID       string            `json:"id"`
	Nodes    []string          `json:"nodes"`
	Metadata HyperedgeMetadata `json:"metadata"`
}

// HyperedgeMetadata mirrors EdgeMetadata for n-ary relations.
type HyperedgeMetadata struct {
	Confidence   float64       `json:"confidence"`
	Relationship string        `json:"relationship,omitempty"`
	Attribution  []Attribution `json:"attribution,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewHyperedge builds a hyperedge stamped with the current time.
func NewHyperedge(id string, nodes []string, relationship string, confidence float64) *Hyperedge {
	return &Hyperedge{
		ID:    id,
		Nodes: nodes,
		Metadata: HyperedgeMetadata{
			Confidence:   clamp01(confidence),
			Relationship: relationship,
			CreatedAt:    time.Now().UTC(),
		},
	}
}

// Contains reports whether nodeID participates in the hyperedge.
func (h *Hyperedge) Contains(nodeID string) bool {
	for _, id := range h.Nodes {
		if id == nodeID {
			return true
		}
	}
	return false
}

// Plan describes the decomposition strategy chosen for the root or a subtree.
type Plan struct {
	Type              string   `json:"type" mapstructure:"type"`
	EstimatedCost     float64  `json:"estimated_cost,omitempty" mapstructure:"estimated_cost"`
	EstimatedDuration float64  `json:"estimated_duration,omitempty" mapstructure:"estimated_duration"`
	RequiredResources []string `json:"required_resources,omitempty" mapstructure:"required_resources"`
	Steps             []string `json:"steps,omitempty" mapstructure:"steps"`
}
