/*
Package nexusmind is a staged "graph of thoughts" reasoning engine.

A query runs through a fixed pipeline of eight stages (Initialization,
Decomposition, Hypothesis, Evidence, PruningMerging, SubgraphExtraction,
Composition and Reflection). Each stage grows or reshapes a typed hypergraph of
thoughts and publishes a typed result into the session's accumulated context.
The run produces a Session record: the graph, the per-stage trace, a final
answer and a four-component confidence vector.

# Usage

	eng, err := nexusmind.New(nexusmind.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.ProcessQuery(ctx, nexusmind.Request{Query: "What drives coastal erosion?"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(s.FinalAnswer, s.FinalConfidence)

Any stage can be replaced with WithStage; sessions are persisted through a
ports.SessionStore (memory by default; file and Redis adapters are provided).

# Halting

Only Initialization can stop the pipeline. If it reports an error or does not
publish a root node id, the session ends HALTED with a single trace entry and
a zero confidence vector. Failures in later stages are recorded in the trace
and the run continues.
*/
package nexusmind
