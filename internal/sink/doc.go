// Package sink implements the buffered, retrying stream sink: the record
// accumulation engine and the retrying-send state machine.
//
// Records are packed against three independent thresholds (byte size, record
// count, elapsed time). When a threshold trips, the in-progress batch is
// sealed and queued. A flush drains sealed batches in order and delivers each
// one to the destination, resubmitting only the rejected subset with jittered
// backoff until the whole batch is accepted.
//
// The sink is designed for single-threaded, single-writer use: one goroutine
// owns a Sink and calls StoreEvents and Flush without interleaving. There is
// no internal locking; concurrent use of one instance is undefined behavior.
package sink
