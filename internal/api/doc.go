// Package api hosts the optional status server for long harvest runs.
// Notable routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/run for the latest run snapshot (progress, failures, done flag).
package api
