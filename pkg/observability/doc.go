/*
Package observability provides lifecycle hooks for monitoring the pipeline.

Each constructor returns a domain.LifecycleHooks value: LoggingHooks writes
structured slog records, Metrics exports Prometheus collectors, and Tracer
emits one OpenTelemetry span per session with a child span per stage. Chain
combines several of them into one value for the orchestrator.
*/
package observability
