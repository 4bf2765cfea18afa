// Package registry holds the stage implementations an orchestrator runs,
// keyed by their fixed position in the pipeline.
package registry
