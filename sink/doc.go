// Package sink implements the batch-then-barrier publish engine at the heart
// of pubsink.
//
// Records arrive grouped by source partition. The engine accumulates them in
// arrival order (Buffer), slices a full buffer into request-size-bounded
// batches (Split), hands every batch to a Publisher without waiting for the
// network (Dispatcher + Handle), and turns a checkpoint request into a
// correctness barrier (Task.Flush) that only succeeds once every outstanding
// publish for the checkpointed partitions has resolved.
//
// # Delivery semantics
//
// At-least-once. Progress for a partition must only be committed by the caller
// after Flush reports that partition in FlushResult.Succeeded. A failed or
// unresolved publish keeps its handle registered, so a retried flush observes
// the same failure instead of reporting false progress. Duplicate delivery on
// redelivery after a failed checkpoint is expected and accepted.
//
// # Ordering
//
// Within one partition, records reach the Publisher in arrival order and every
// batch is a contiguous slice of that order. No ordering is promised across
// partitions, nor across separate batches once they are in flight; transports
// that need cross-batch ordering per partition can pin a partition to one
// connection (see the backend package's balanced publisher).
//
// # Concurrency
//
// Accumulation and dispatch never block on I/O. Handles resolve on the
// publisher's own goroutines and are safe to poll or await from anywhere.
// Only Flush blocks, and only while awaiting handles; the buffer and the
// outstanding registry each take a short coarse lock around map access, never
// around the blocking wait.
package sink
