package sink

import (
	"time"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/pkg/log"
)

// Buffer accumulates records into batches against three independent
// thresholds: byte size, record count, and elapsed time.
//
// The byte threshold is checked before a record is appended: a record whose
// size would push the in-progress batch to the limit seals the batch first
// and starts the next one, so a sealed batch never overflows its byte
// budget. The record-count threshold is checked after appending, so a sealed
// batch holds at most the configured number of records.
type Buffer struct {
	byteLimit      int
	recordLimit    int
	maxRecordBytes int
	timeLimit      time.Duration

	current   *domain.Batch
	sealed    []*domain.Batch
	nextFlush time.Time

	logger log.Logger
}

// NewBuffer creates a buffer with the given thresholds. The first
// time-triggered flush becomes due one timeLimit after construction.
func NewBuffer(byteLimit, recordLimit, maxRecordBytes int, timeLimit time.Duration, logger log.Logger) *Buffer {
	return &Buffer{
		byteLimit:      byteLimit,
		recordLimit:    recordLimit,
		maxRecordBytes: maxRecordBytes,
		timeLimit:      timeLimit,
		current:        domain.NewBatch(),
		nextFlush:      time.Now().Add(timeLimit),
		logger:         logger,
	}
}

// Add buffers a record, sealing the in-progress batch first when the
// record would trip the byte threshold and immediately after when it fills
// the record-count threshold.
//
// Records at or above the destination's hard per-record limit are dropped,
// not buffered: the destination would reject them on every attempt, so
// retrying is pointless. Returns false for a dropped record.
func (b *Buffer) Add(rec domain.Record) bool {
	if rec.Size() >= b.maxRecordBytes {
		b.logger.Warn("dropping oversized record",
			log.Int("size", rec.Size()),
			log.Int("limit", b.maxRecordBytes),
			log.String("partition_key", rec.PartitionKey),
		)
		return false
	}

	if b.current.TotalBytes+rec.Size() >= b.byteLimit {
		b.Seal()
	}

	b.current.Add(rec)

	if b.current.Size() >= b.recordLimit {
		b.Seal()
	}
	return true
}

// Seal moves the in-progress batch onto the back of the sealed queue and
// starts a fresh one. Sealing an empty batch is a no-op.
func (b *Buffer) Seal() {
	if b.current.Empty() {
		return
	}
	b.sealed = append(b.sealed, b.current)
	b.current = domain.NewBatch()
}

// HasPending returns true if any records are waiting, buffered or sealed.
func (b *Buffer) HasPending() bool {
	return !b.current.Empty() || len(b.sealed) > 0
}

// DrainSealed seals the in-progress batch, capturing any partial batch, and
// returns every sealed batch in FIFO order. The buffer is left empty; this
// is the only way batches leave the buffer.
func (b *Buffer) DrainSealed() []*domain.Batch {
	b.Seal()
	out := b.sealed
	b.sealed = nil
	return out
}

// Requeue puts batches back at the front of the sealed queue, ahead of
// anything sealed since they were drained. Used when a flush is aborted so
// undelivered records survive to the next flush.
func (b *Buffer) Requeue(batches []*domain.Batch) {
	if len(batches) == 0 {
		return
	}
	b.sealed = append(batches, b.sealed...)
}

// ShouldFlush reports whether a flush is due at now. When the in-progress
// batch is non-empty and the time threshold has elapsed, it returns true and
// advances the internal deadline to now plus the time threshold; it is a
// trigger check with a side effect, not a pure predicate. It also returns
// true whenever sealed batches are already queued.
func (b *Buffer) ShouldFlush(now time.Time) bool {
	if !b.current.Empty() && now.After(b.nextFlush) {
		b.nextFlush = now.Add(b.timeLimit)
		return true
	}
	return len(b.sealed) > 0
}
