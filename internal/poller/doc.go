// Package poller implements the Poll Orchestrator.
//
// The orchestrator:
//   - Triggers every configured source adapter concurrently each tick
//   - Isolates failures per source: partial results still persist
//   - Stamps all snapshots of one tick with one shared capture time
//   - Writes the merged batch to the store as one atomic append
//
// A tick that runs long is allowed to finish; ticks never overlap
// because the loop is single-threaded. Keeping tick duration under the
// poll interval is an operational assumption, not enforced here.
package poller
