// Package dispatch runs the concurrent part of an enrichment run. Validated
// domains are split into batches, a bounded pool of workers submits them to
// the provider with per-batch retries, and the calling goroutine aggregates
// the outcomes into a ResultSet.
//
// Cancellation is cooperative and flows through the context passed to
// Scheduler.Run: no new batch is submitted once it is done, waits are
// abandoned and in-flight requests are aborted. Run always returns the
// partial results gathered so far.
package dispatch
