package graph

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// Graph-level metadata keys.
const (
	MetaQuery     = "query"
	MetaSessionID = "session_id"
)

// Graph is the per-session store of nodes, edges and hyperedges (ASRGoTGraph).
// Insertion order is preserved so traversal is deterministic.
type Graph struct {
	nodes      map[string]*Node
	edges      map[string]*Edge
	hyperedges map[string]*Hyperedge

	nodeOrder      []string
	edgeOrder      []string
	hyperedgeOrder []string

	outgoing   map[string]map[string]struct{} // node id -> edge ids
	incoming   map[string]map[string]struct{} // node id -> edge ids
	membership map[string]map[string]struct{} // node id -> hyperedge ids

	metadata map[string]any
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		edges:      make(map[string]*Edge),
		hyperedges: make(map[string]*Hyperedge),
		outgoing:   make(map[string]map[string]struct{}),
		incoming:   make(map[string]map[string]struct{}),
		membership: make(map[string]map[string]struct{}),
		metadata:   make(map[string]any),
	}
}

// Metadata returns the free-form graph-level metadata map.
// It is owned by the graph; callers may write to it.
func (g *Graph) Metadata() map[string]any {
	return g.metadata
}

// AddNode inserts a node. Fails with ErrDuplicateID if the id is taken and
// with ErrInvalidType for an unknown node type.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return ErrInvalidID
	}
	if !n.Type.Valid() {
		return fmt.Errorf("node %q has type %q: %w", n.ID, n.Type, ErrInvalidType)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddEdge inserts an edge. Both endpoints must already exist.
// On failure the store is left unchanged.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil || e.ID == "" {
		return ErrInvalidID
	}
	if !e.Type.Valid() {
		return fmt.Errorf("edge %q has type %q: %w", e.ID, e.Type, ErrInvalidType)
	}
	if _, exists := g.edges[e.ID]; exists {
		return fmt.Errorf("edge %q: %w", e.ID, ErrDuplicateID)
	}
	for _, endpoint := range []string{e.Source, e.Target} {
		if _, ok := g.nodes[endpoint]; !ok {
			return fmt.Errorf("edge %q references node %q: %w", e.ID, endpoint, ErrDanglingReference)
		}
	}

	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	index(g.outgoing, e.Source, e.ID)
	index(g.incoming, e.Target, e.ID)
	return nil
}

// AddHyperedge inserts a hyperedge. Every participant must already exist and
// at least two distinct participants are required. Duplicate participant ids
// are collapsed.
func (g *Graph) AddHyperedge(h *Hyperedge) error {
	if h == nil || h.ID == "" {
		return ErrInvalidID
	}
	if _, exists := g.hyperedges[h.ID]; exists {
		return fmt.Errorf("hyperedge %q: %w", h.ID, ErrDuplicateID)
	}

	participants := dedupe(h.Nodes)
	if len(participants) < 2 {
		return fmt.Errorf("hyperedge %q: %w", h.ID, ErrInvalidHyperedge)
	}
	for _, id := range participants {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("hyperedge %q references node %q: %w", h.ID, id, ErrDanglingReference)
		}
	}

	h.Nodes = participants
	g.hyperedges[h.ID] = h
	g.hyperedgeOrder = append(g.hyperedgeOrder, h.ID)
	for _, id := range participants {
		index(g.membership, id, h.ID)
	}
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Hyperedge returns the hyperedge with the given id.
func (g *Graph) Hyperedge(id string) (*Hyperedge, bool) {
	h, ok := g.hyperedges[id]
	return h, ok
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// UpdateNode applies fn to the node, first recording a revision that snapshots
// the node's current label, type, description, confidence and impact.
func (g *Graph) UpdateNode(id, reason string, fn func(*Node)) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("update %q: %w", id, ErrNodeNotFound)
	}
	now := time.Now().UTC()
	n.Metadata.Temporal.Revisions = append(n.Metadata.Temporal.Revisions, RevisionRecord{
		Reason:    reason,
		Timestamp: now,
		Previous:  n.snapshot(),
	})
	fn(n)
	if n.ID != id {
		// The id is the map key; it cannot change through an update.
		n.ID = id
	}
	n.Metadata.Temporal.UpdatedAt = now
	return nil
}

// RemoveNode deletes a node and cascades to every edge and hyperedge that references it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("remove %q: %w", id, ErrNodeNotFound)
	}

	for edgeID := range g.outgoing[id] {
		g.dropEdge(edgeID)
	}
	for edgeID := range g.incoming[id] {
		g.dropEdge(edgeID)
	}
	for hyperedgeID := range g.membership[id] {
		g.dropHyperedge(hyperedgeID)
	}

	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.membership, id)
	delete(g.nodes, id)
	g.nodeOrder = remove(g.nodeOrder, id)
	return nil
}

// RemoveEdge deletes a single edge.
func (g *Graph) RemoveEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return fmt.Errorf("remove edge %q: %w", id, ErrEdgeNotFound)
	}
	g.dropEdge(id)
	return nil
}

func (g *Graph) dropEdge(id string) {
	e, ok := g.edges[id]
	if !ok {
		return
	}
	unindex(g.outgoing, e.Source, id)
	unindex(g.incoming, e.Target, id)
	delete(g.edges, id)
	g.edgeOrder = remove(g.edgeOrder, id)
}

func (g *Graph) dropHyperedge(id string) {
	h, ok := g.hyperedges[id]
	if !ok {
		return
	}
	for _, nodeID := range h.Nodes {
		unindex(g.membership, nodeID, id)
	}
	delete(g.hyperedges, id)
	g.hyperedgeOrder = remove(g.hyperedgeOrder, id)
}

// Nodes returns a restartable sequence of nodes in insertion order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range slices.Clone(g.nodeOrder) {
			n, ok := g.nodes[id]
			if !ok {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Edges returns a restartable sequence of edges in insertion order.
func (g *Graph) Edges() iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		for _, id := range slices.Clone(g.edgeOrder) {
			e, ok := g.edges[id]
			if !ok {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Hyperedges returns a restartable sequence of hyperedges in insertion order.
func (g *Graph) Hyperedges() iter.Seq[*Hyperedge] {
	return func(yield func(*Hyperedge) bool) {
		for _, id := range slices.Clone(g.hyperedgeOrder) {
			h, ok := g.hyperedges[id]
			if !ok {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}
}

// NodesByType yields the nodes of one type in insertion order.
func (g *Graph) NodesByType(t NodeType) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range g.Nodes() {
			if n.Type == t && !yield(n) {
				return
			}
		}
	}
}

// EdgesFrom returns the edges whose source is nodeID, in insertion order.
func (g *Graph) EdgesFrom(nodeID string) []*Edge {
	return g.collectEdges(g.outgoing[nodeID])
}

// EdgesTo returns the edges whose target is nodeID, in insertion order.
func (g *Graph) EdgesTo(nodeID string) []*Edge {
	return g.collectEdges(g.incoming[nodeID])
}

// HyperedgesOf returns the hyperedges nodeID participates in, in insertion order.
func (g *Graph) HyperedgesOf(nodeID string) []*Hyperedge {
	set := g.membership[nodeID]
	out := make([]*Hyperedge, 0, len(set))
	for _, id := range g.hyperedgeOrder {
		if _, ok := set[id]; ok {
			out = append(out, g.hyperedges[id])
		}
	}
	return out
}

// Neighbors returns the ids of nodes adjacent to nodeID through edges in either direction.
func (g *Graph) Neighbors(nodeID string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range g.collectEdges(g.outgoing[nodeID]) {
		if _, ok := seen[e.Target]; !ok {
			seen[e.Target] = struct{}{}
			out = append(out, e.Target)
		}
	}
	for _, e := range g.collectEdges(g.incoming[nodeID]) {
		if _, ok := seen[e.Source]; !ok {
			seen[e.Source] = struct{}{}
			out = append(out, e.Source)
		}
	}
	return out
}

func (g *Graph) collectEdges(set map[string]struct{}) []*Edge {
	out := make([]*Edge, 0, len(set))
	for _, id := range g.edgeOrder {
		if _, ok := set[id]; ok {
			out = append(out, g.edges[id])
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HyperedgeCount returns the number of hyperedges.
func (g *Graph) HyperedgeCount() int { return len(g.hyperedges) }

// Helpers

func index(idx map[string]map[string]struct{}, key, value string) {
	set, ok := idx[key]
	if !ok {
		set = make(map[string]struct{})
		idx[key] = set
	}
	set[value] = struct{}{}
}

func unindex(idx map[string]map[string]struct{}, key, value string) {
	if set, ok := idx[key]; ok {
		delete(set, value)
		if len(set) == 0 {
			delete(idx, key)
		}
	}
}

func remove(order []string, id string) []string {
	if i := slices.Index(order, id); i >= 0 {
		return slices.Delete(order, i, i+1)
	}
	return order
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
