// Package client implements the scatter/gather query engine: it runs one
// logical query against every registered monitor node concurrently, isolates
// per-node failures, and merges the outcomes into a result set.
//
// Concurrency model:
//
//	┌────────────────────────────────────────────────┐
//	│                    Client                      │
//	├────────────────────────────────────────────────┤
//	│  queue:   node task ×N, then stop item ×W      │
//	│  workers: W loops pulling until their stop     │
//	│  gather:  drain results until W stop acks      │
//	└────────────────────────────────────────────────┘
//
// The work queue is seeded with one task per monitor followed by exactly one
// stop item per worker. Each worker pulls items until it drains its own stop
// item, sends a stop acknowledgement, and exits; the gather loop knows it
// has seen everything once W acknowledgements have arrived, then waits for
// worker termination. Results therefore merge in completion order, which the
// result set's per-node overwrite semantics make harmless.
//
// The worker count W is the configured value, capped at the monitor count,
// defaulting to one worker per monitor when zero; serial mode forces W=1 and
// still runs through the same queue machinery.
//
// Failure isolation is absolute: a node that refuses the connection, breaks
// framing, or panics its worker contributes an error entry and nothing else.
// Callers always get a result set back and must consult Errors(); the
// absence of a synchronous error does not imply success.
//
// Workers run on an Executor, by default an ants goroutine pool, so the
// orchestration logic stays independent of the concurrency substrate.
package client
