/*
Package domain contains the core models of the NexusMind reasoning pipeline.

It defines the session record that travels through the eight fixed stages, the
closed set of stage kinds, the typed per-stage result records that make up the
accumulated context, and the lifecycle hooks observers attach to. The package is
kept free of I/O; the graph entities themselves live in package graph.

# Key Entities

  - StageKind: the closed enumeration of the eight pipeline stages.
  - StageResult: the tagged union of per-stage context updates.
  - AccumulatedContext: initial context, operational parameters and stage results.
  - Session: query, graph, context, trace and final outputs of one run.
  - TraceEntry: the per-stage execution record.
*/
package domain
