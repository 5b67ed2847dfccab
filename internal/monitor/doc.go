// Package monitor implements the polling engine behind every gpumon front-end.
//
// A poll cycle asks each configured host for its GPU status over HTTP,
// merges the answers into a Snapshot, appends derived wattage points to a
// bounded History, and hands the raw statuses to a durable sink.
//
// # Key Components
//
//	Fetcher   - Issues one GET per host in parallel and drops failures
//	Poller    - Drives cycles on an interval and owns the current Snapshot
//	History   - Bounded multi-series buffer of wattage points (sparklines)
//
// # Cycle
//
//  1. Fetcher.FetchAll fans out to every host and waits for all of them
//  2. The statuses are sorted by hostname into a new Snapshot
//  3. One HistoryPoint per host plus one "Total" point is appended
//  4. The raw statuses go to the Sink (see package powerlog)
//
// A host that cannot be reached, answers with a non-2xx status, or returns
// a payload that does not decode is simply missing from the Snapshot.
// Nothing in a cycle returns an error to the caller.
//
// # Concurrency
//
// The Poller runs at most one cycle at a time. A tick that fires while a
// cycle is still waiting on the network is skipped rather than queued.
// Readers get copies: Snapshot values are swapped whole and History
// accessors return fresh slices, so presentation code never observes a
// half-applied cycle.
//
// # History
//
// History caps the number of retained points at size x series, where series
// is the number of distinct keys in the latest append. Eviction is global
// FIFO across all series, so a host that drops out loses its points to the
// cap before the surviving hosts lose theirs.
package monitor
