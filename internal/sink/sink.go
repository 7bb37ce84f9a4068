package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/internal/ports"
)

// Config holds the sink's threshold and retry configuration.
type Config struct {
	// StreamName is the destination stream.
	StreamName string

	// ByteLimit seals the in-progress batch when a record would push its
	// payload total to this many bytes.
	ByteLimit int

	// RecordLimit seals the in-progress batch at this many records.
	RecordLimit int

	// TimeLimit is how long a non-empty batch may sit before a time-based
	// flush becomes due.
	TimeLimit time.Duration

	// MaxRecordBytes is the destination's hard per-record payload limit.
	// Records at or above it are dropped, never buffered.
	MaxRecordBytes int

	// MinBackoff and MaxBackoff bound the retry wait between attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// MaxAttempts caps the retry loop per batch. Zero retries forever: a
	// permanently failing stream then blocks Flush indefinitely, which is
	// the accepted cost of never dropping a deliverable record.
	MaxAttempts int
}

// DefaultConfig returns a Config sized for Kinesis PutRecords limits
// (500 records and 5 MB per call, 1 MB per record).
func DefaultConfig() Config {
	return Config{
		ByteLimit:      4_000_000,
		RecordLimit:    500,
		TimeLimit:      60 * time.Second,
		MaxRecordBytes: 1_000_000,
		MinBackoff:     DefaultMinBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream name is required")
	}
	if c.ByteLimit <= 0 {
		return fmt.Errorf("byte limit must be positive")
	}
	if c.RecordLimit <= 0 {
		return fmt.Errorf("record limit must be positive")
	}
	if c.TimeLimit <= 0 {
		return fmt.Errorf("time limit must be positive")
	}
	if c.MaxRecordBytes <= 0 {
		return fmt.Errorf("max record bytes must be positive")
	}
	if c.MinBackoff <= 0 {
		return fmt.Errorf("min backoff must be positive")
	}
	if c.MaxBackoff < c.MinBackoff {
		return fmt.Errorf("max backoff must be at least min backoff")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative")
	}
	return nil
}

// SendEventEmitter is called on delivery milestones. Implementations run
// synchronously on the flushing goroutine and must be cheap.
type SendEventEmitter interface {
	// OnBatchDelivered fires once per fully delivered batch.
	OnBatchDelivered(recordCount, byteCount, attempts int, duration time.Duration)

	// OnRecordDropped fires for each oversized record rejected at the
	// buffer boundary.
	OnRecordDropped(size int)
}

// Sink is the buffered, retrying writer fed by the event pipeline. One
// goroutine must own a Sink; it is not internally synchronized.
type Sink struct {
	cfg     Config
	buffer  *Buffer
	sender  *Sender
	emitter SendEventEmitter
}

// New creates a sink after verifying the destination stream is writable.
// A failed check is fatal: the sink is unusable and nil is returned. Pass a
// nil checker to skip verification (tests, pre-verified streams).
func New(ctx context.Context, cfg Config, submitter ports.RecordSubmitter, checker ports.StreamChecker, opts ...Option) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFatal, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if checker != nil {
		if err := checker.CheckStream(ctx); err != nil {
			return nil, fmt.Errorf("stream %q not writable: %w", cfg.StreamName, err)
		}
	}

	return &Sink{
		cfg:     cfg,
		buffer:  NewBuffer(cfg.ByteLimit, cfg.RecordLimit, cfg.MaxRecordBytes, cfg.TimeLimit, o.logger),
		sender:  NewSender(submitter, cfg.StreamName, cfg.MinBackoff, cfg.MaxBackoff, cfg.MaxAttempts, o.tracker, o.emitter, o.logger),
		emitter: o.emitter,
	}, nil
}

// StoreEvents buffers records in order. The returned boolean is advisory:
// true means a flush is worthwhile now, because either the time threshold
// newly elapsed on a non-empty batch or sealed batches are already queued
// from a record/byte threshold trip. Callers may flush on their own
// schedule regardless.
func (s *Sink) StoreEvents(records []domain.Record) bool {
	for _, rec := range records {
		if !s.buffer.Add(rec) && s.emitter != nil {
			s.emitter.OnRecordDropped(rec.Size())
		}
	}
	return s.buffer.ShouldFlush(time.Now())
}

// ShouldFlush reports whether a flush is due at now, advancing the time
// threshold deadline when it fires. Used by callers that poll on a timer
// while no events arrive.
func (s *Sink) ShouldFlush(now time.Time) bool {
	return s.buffer.ShouldFlush(now)
}

// HasPending returns true if any stored records have not been flushed.
func (s *Sink) HasPending() bool {
	return s.buffer.HasPending()
}

// Flush drains the buffer and blocks until every drained record has been
// accepted by the destination, or the context is canceled, or a fatal error
// or the configured attempt ceiling aborts the flush. On error, undelivered
// records are requeued so a later Flush picks them up; nothing is lost or
// duplicated.
func (s *Sink) Flush(ctx context.Context) error {
	batches := s.buffer.DrainSealed()
	if len(batches) == 0 {
		return nil
	}

	sent, err := s.sender.SendAll(ctx, batches)
	if err != nil {
		s.buffer.Requeue(batches[sent:])
		return err
	}
	return nil
}
