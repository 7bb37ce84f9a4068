// Package app wires the sink to an input source and drives the flush
// schedule. The CLI owns construction; this package owns the loop.
package app

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/internal/sink"
	"github.com/globeandmail/enrich/pkg/log"
)

// ShutdownTimeout bounds the final flush on shutdown so a dead stream
// cannot hang the process forever.
const ShutdownTimeout = 30 * time.Second

// DefaultTickInterval is how often the runner re-checks the time
// threshold while no input arrives.
const DefaultTickInterval = time.Second

// RunnerConfig contains configuration for the input loop.
type RunnerConfig struct {
	// PartitionKeyField selects a tab-separated field (1-based) of each
	// input line as the partition key. Zero assigns a random key, which
	// spreads records evenly across shards.
	PartitionKeyField int

	// MaxLineBytes caps the scanner's line buffer. Lines longer than
	// this abort the run. Defaults to 1 MB.
	MaxLineBytes int

	// TickInterval is the period of the time-threshold check.
	TickInterval time.Duration
}

// Runner reads newline-delimited events from an input, buffers them in
// the sink, and flushes on the sink's schedule.
type Runner struct {
	cfg    RunnerConfig
	sink   *sink.Sink
	logger log.Logger
	rng    *rand.Rand
	reload chan *sink.Sink
}

// NewRunner creates a runner around an already-constructed sink.
func NewRunner(cfg RunnerConfig, s *sink.Sink, logger log.Logger) *Runner {
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 1_000_000
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Runner{
		cfg:    cfg,
		sink:   s,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		reload: make(chan *sink.Sink),
	}
}

// Reload hands the runner a replacement sink, built from new thresholds.
// The runner flushes the old sink before switching so no buffered record
// is stranded. If that flush fails the swap is abandoned and the old sink
// stays in place; a later Reload can try again. Returns false if the
// context ended before the runner accepted the swap.
func (r *Runner) Reload(ctx context.Context, s *sink.Sink) bool {
	select {
	case r.reload <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run executes the main loop until the input is exhausted or the context
// is canceled. Pending records are flushed before returning, under a
// bounded shutdown context, so a clean exit loses nothing.
func (r *Runner) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), r.cfg.MaxLineBytes)
		for scanner.Scan() {
			// Scanner reuses its buffer; the sink keeps the slice.
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("input loop canceled, flushing pending records")
			return errors.Join(ctx.Err(), r.finalFlush())

		case line, ok := <-lines:
			if !ok {
				var readErr error
				select {
				case readErr = <-scanErr:
				default:
				}
				if readErr != nil {
					r.logger.Error("input read failed", log.Err(readErr))
				}
				return errors.Join(readErr, r.finalFlush())
			}
			rec := domain.NewRecord(line, r.partitionKey(line))
			if r.sink.StoreEvents([]domain.Record{rec}) {
				if err := r.sink.Flush(ctx); err != nil {
					return r.handleFlushError(ctx, err)
				}
			}

		case <-ticker.C:
			if r.sink.ShouldFlush(time.Now()) {
				if err := r.sink.Flush(ctx); err != nil {
					return r.handleFlushError(ctx, err)
				}
			}

		case next := <-r.reload:
			if r.sink.HasPending() {
				if err := r.sink.Flush(ctx); err != nil {
					r.logger.Warn("reload deferred, pending records did not flush", log.Err(err))
					if errors.Is(err, domain.ErrFatal) {
						return err
					}
					continue
				}
			}
			r.sink = next
			r.logger.Info("sink rebuilt with updated configuration")
		}
	}
}

// handleFlushError decides whether a flush failure ends the run. Fatal
// errors and cancellation do; anything else was already requeued by the
// sink and will ride along with the next flush.
func (r *Runner) handleFlushError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrFatal) {
		r.logger.Error("unrecoverable flush failure", log.Err(err))
		return err
	}
	if ctx.Err() != nil {
		return errors.Join(ctx.Err(), r.finalFlush())
	}
	r.logger.Warn("flush failed, records requeued", log.Err(err))
	return nil
}

// finalFlush drains whatever is left under its own bounded context.
func (r *Runner) finalFlush() error {
	if !r.sink.HasPending() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := r.sink.Flush(ctx); err != nil {
		r.logger.Error("final flush failed", log.Err(err))
		return err
	}
	return nil
}

// partitionKey derives the partition key for a line. A configured field
// index that is out of range for the line falls back to a random key.
func (r *Runner) partitionKey(line []byte) string {
	if r.cfg.PartitionKeyField > 0 {
		if key, ok := field(line, r.cfg.PartitionKeyField); ok {
			return key
		}
	}
	b := make([]byte, 8)
	r.rng.Read(b)
	return hex.EncodeToString(b)
}

// field extracts the n-th (1-based) tab-separated field of line.
func field(line []byte, n int) (string, bool) {
	start := 0
	idx := 1
	for i := 0; i <= len(line); i++ {
		if i == len(line) || line[i] == '\t' {
			if idx == n {
				if i == start {
					return "", false
				}
				return string(line[start:i]), true
			}
			start = i + 1
			idx++
		}
	}
	return "", false
}
