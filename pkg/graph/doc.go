/*
Package graph implements the in-memory Graph Store for a single reasoning session.

A Graph owns every Node, Edge and Hyperedge created while a query moves through
the stage pipeline. It enforces id uniqueness (nodes, edges and hyperedges have
independent id spaces), refuses dangling references and cascades node removal to
the relations that mention the node.

# Key Entities

  - Node: a claim, dimension, hypothesis or piece of evidence, with rich metadata.
  - Edge: a typed binary relation between two existing nodes.
  - Hyperedge: a relation over two or more existing nodes.
  - Plan: an optional decomposition strategy attached to the root.

The Graph is not safe for concurrent mutation. The orchestrator gives each stage
exclusive access for the duration of its Execute call.
*/
package graph
