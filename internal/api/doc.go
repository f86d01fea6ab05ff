// Package api serves a read-only monitor for a benchmark run.
//
// Endpoints:
//   - GET /api/status: configuration, running flag and the latest event
//   - GET /api/plan: the composed per-client invocations
//   - GET /api/summary: the aggregate of the last completed run
//   - /ws: WebSocket stream of lifecycle events as JSON messages
package api
