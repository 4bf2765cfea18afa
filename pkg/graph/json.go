package graph

import (
	"encoding/json"
	"fmt"
)

// wireGraph is the serialized form of a Graph. Lists keep insertion order.
type wireGraph struct {
	Nodes      []*Node        `json:"nodes"`
	Edges      []*Edge        `json:"edges"`
	Hyperedges []*Hyperedge   `json:"hyperedges"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON encodes the graph as ordered node, edge and hyperedge lists.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		Nodes:      make([]*Node, 0, len(g.nodes)),
		Edges:      make([]*Edge, 0, len(g.edges)),
		Hyperedges: make([]*Hyperedge, 0, len(g.hyperedges)),
		Metadata:   g.metadata,
	}
	for n := range g.Nodes() {
		w.Nodes = append(w.Nodes, n)
	}
	for e := range g.Edges() {
		w.Edges = append(w.Edges, e)
	}
	for h := range g.Hyperedges() {
		w.Hyperedges = append(w.Hyperedges, h)
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds the graph through the regular Add* calls so that a
// decoded graph satisfies the same invariants as one built in memory.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	fresh := New()
	for _, n := range w.Nodes {
		if err := fresh.AddNode(n); err != nil {
			return fmt.Errorf("decode graph: %w", err)
		}
	}
	for _, e := range w.Edges {
		if err := fresh.AddEdge(e); err != nil {
			return fmt.Errorf("decode graph: %w", err)
		}
	}
	for _, h := range w.Hyperedges {
		if err := fresh.AddHyperedge(h); err != nil {
			return fmt.Errorf("decode graph: %w", err)
		}
	}
	for k, v := range w.Metadata {
		fresh.metadata[k] = v
	}

	*g = *fresh
	return nil
}
