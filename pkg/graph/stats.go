package graph

// Statistics summarizes the contents of a Graph.
type Statistics struct {
	Nodes       int              `json:"nodes"`
	Edges       int              `json:"edges"`
	Hyperedges  int              `json:"hyperedges"`
	NodesByType map[NodeType]int `json:"nodes_by_type"`
	EdgesByType map[EdgeType]int `json:"edges_by_type"`
}

// Statistics counts nodes and edges by type.
func (g *Graph) Statistics() Statistics {
	stats := Statistics{
		Nodes:       len(g.nodes),
		Edges:       len(g.edges),
		Hyperedges:  len(g.hyperedges),
		NodesByType: make(map[NodeType]int),
		EdgesByType: make(map[EdgeType]int),
	}
	for _, n := range g.nodes {
		stats.NodesByType[n.Type]++
	}
	for _, e := range g.edges {
		stats.EdgesByType[e.Type]++
	}
	return stats
}
