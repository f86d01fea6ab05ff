// Package runner executes composed benchmark invocations.
//
// A Runner takes every client's Invocation at once, blocks until all of them
// have completed or one has failed, and returns the captured output. Stdout
// must contain exactly one result line per client, in submission order; the
// aggregation step relies on position alone to match lines to clients.
//
// Two implementations are provided:
//   - Commander hands all clients to a remote dispatcher script in one call
//   - Local runs every client's benchmark program on this host concurrently
//
// Failures are reported as *Failure, whose Stderr carries the diagnostic text
// verbatim. Nothing here retries.
package runner
