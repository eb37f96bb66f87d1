// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the orchestrator uses to report harvest progress. Events
// are batched on a background goroutine and fanned out to pluggable sinks such
// as the console counter, Prometheus metrics, or the in-memory run store.
package progress
