// Package audit implements the content audit pipeline.
//
// Two goroutines share a bounded queue:
//
//	Scheduler: every period, reads the newest catalog entries, derives a
//	lookup key for each and pushes it onto the queue.
//	Auditor: pops keys in FIFO order, fetches the content from the network,
//	resolves the catalog entry and records whether the audit passed.
//
// The queue is the only synchronization point. Pushing onto a full queue
// blocks the Scheduler, which in turn delays its next catalog poll. Nothing is
// ever dropped.
//
// FAILURE POLICY:
//
// Crash-only. A catalog read failure on a tick is logged and the tick skipped;
// the next tick is the only retry. A catalog failure while resolving a key in
// the Auditor is logged and that key skipped. Any network or store failure in
// the Auditor stops it, which closes the receiving side of the queue; the
// Scheduler's next push then fails with CHANNEL_CLOSED. The Supervisor
// returns the first such error and the process exits for an external
// supervisor to restart.
//
// The pipeline puts no timeout around a single lookup; a hung node stalls it.
// Bound lookups in the NetworkClient instead (see portal.WithTimeout).
//
// KNOWN GAPS:
//
// An entry that stays among the newest batch is re-audited on every tick and
// each audit is recorded. An entry that drops out of the batch before its turn
// may never be audited.
//
// A payload longer than two bytes counts as a pass. The payload is not
// decoded or validated.
package audit
