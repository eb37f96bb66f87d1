// Package main hosts the fixharvest entrypoint.
//
// Architecture overview:
//   - Pipeline: internal/harvest fetches the field index, fans detail-page
//     fetches out to a bounded worker pool, extracts each page's standard
//     values, and assembles one document in index order. Failed categories are
//     classified (timeout, transport, structure_not_found) and reported at run
//     end without aborting the batch.
//   - Fetching: the Colly-based fetcher performs one attempt per page under a
//     per-request deadline, with an optional robots.txt cache transport. The
//     whole detail batch additionally runs under a total deadline; work still
//     pending at that point is abandoned and recorded as timed out.
//   - Persistence: the assembled document is rendered as indented JSON and
//     written through the configured document store (local file, memory, or
//     discard).
//   - Observability: zap provides structured logging; Prometheus counters and
//     histograms track page fetches, run lifecycle, and saved documents; the
//     progress hub batches run events for the console ticker, log sink, and
//     the optional status server's /api/run snapshot.
//   - Configuration: Viper populates config from defaults, an optional dotenv
//     file (--env-file, default .env), and FIXHARVEST_* environment variables;
//     the flat legacy variable names remain supported.
//
// Operational notes:
//   - Shutdown: SIGINT/SIGTERM cancel the run context; in-flight fetches stop
//     at their deadlines and the partial document is discarded.
//   - Status server: disabled by default; when enabled it serves /healthz,
//     /readyz, /metrics, and /api/run while the batch runs.
//
// Run locally: go run ./cmd/fixharvest harvest --env-file .env
package main
