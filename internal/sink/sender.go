package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/internal/ports"
	"github.com/globeandmail/enrich/pkg/log"
)

// Sender drains sealed batches in order and delivers each one to the
// destination, retrying the rejected subset with jittered backoff until the
// whole batch is accepted. Processing is strictly sequential and blocking:
// no batch is attempted while another is backing off, which preserves
// per-partition-key ordering and avoids piling concurrent retries onto an
// already struggling stream.
type Sender struct {
	submitter ports.RecordSubmitter
	tracker   ports.FailureTracker
	emitter   SendEventEmitter
	logger    log.Logger
	policy    *backoffPolicy

	stream      string
	minBackoff  time.Duration
	maxAttempts int
}

// NewSender creates a sender for the named stream. maxAttempts of zero
// means retry until success; the retry loop then only terminates on full
// delivery, a fatal error, or context cancellation.
func NewSender(submitter ports.RecordSubmitter, stream string, minBackoff, maxBackoff time.Duration, maxAttempts int, tracker ports.FailureTracker, emitter SendEventEmitter, logger log.Logger) *Sender {
	return &Sender{
		submitter:   submitter,
		tracker:     tracker,
		emitter:     emitter,
		logger:      logger,
		policy:      newBackoffPolicy(minBackoff, maxBackoff),
		stream:      stream,
		minBackoff:  minBackoff,
		maxAttempts: maxAttempts,
	}
}

// SendAll delivers batches in order, running each batch's retry loop to
// completion before moving to the next. Empty batches are skipped. It
// returns the number of batches fully delivered; on error the batch at that
// index holds only its still-undelivered records.
func (s *Sender) SendAll(ctx context.Context, batches []*domain.Batch) (int, error) {
	for i, batch := range batches {
		if batch == nil || batch.Empty() {
			continue
		}
		if err := s.sendWithRetry(ctx, batch); err != nil {
			return i, err
		}
	}
	return len(batches), nil
}

// sendWithRetry submits batch until every record has been accepted.
// Records accepted on an earlier attempt are never resubmitted; only the
// rejected subset goes out again, in its original relative order. The
// backoff delay compounds across attempts within this one batch and resets
// for the next. On error, batch is reduced to the undelivered records.
func (s *Sender) sendWithRetry(ctx context.Context, batch *domain.Batch) error {
	start := time.Now()
	unsent := batch.Records
	delay := s.minBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			rebuild(batch, unsent)
			return err
		}

		outcomes, err := s.submitter.Submit(ctx, unsent)
		switch {
		case err != nil && errors.Is(err, domain.ErrFatal):
			rebuild(batch, unsent)
			return err

		case err != nil:
			// The call itself failed: no per-record outcome is known, so
			// the whole in-flight set is presumed undelivered.
			s.logger.Error("submit call failed",
				log.Err(err),
				log.Int("records", len(unsent)),
				log.Int("attempt", attempt),
			)
			s.tracker.NotifyFailure("transport", err.Error(), s.stream, attempt, byteSize(unsent))

		default:
			if len(outcomes) != len(unsent) {
				rebuild(batch, unsent)
				return fmt.Errorf("%w: submitter returned %d outcomes for %d records", domain.ErrFatal, len(outcomes), len(unsent))
			}

			_, failed, failedOutcomes := partitionOutcomes(unsent, outcomes)
			if len(failed) == 0 {
				if s.emitter != nil {
					s.emitter.OnBatchDelivered(batch.Size(), batch.TotalBytes, attempt, time.Since(start))
				}
				return nil
			}

			summary := formatFailureSummary(summarizeFailures(failedOutcomes))
			s.logger.Warn("records rejected by stream",
				log.Int("rejected", len(failed)),
				log.Int("submitted", len(unsent)),
				log.Int("attempt", attempt),
				log.String("summary", summary),
			)
			s.tracker.NotifyFailure("rejected", summary, s.stream, attempt, byteSize(failed))
			unsent = failed
		}

		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			rebuild(batch, unsent)
			return fmt.Errorf("batch undelivered after %d attempts: %d records remaining", attempt, len(unsent))
		}

		delay = s.policy.Next(delay)
		select {
		case <-ctx.Done():
			rebuild(batch, unsent)
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// rebuild reduces batch to the given records, keeping the byte total
// consistent.
func rebuild(batch *domain.Batch, records []domain.Record) {
	batch.Reset()
	for _, rec := range records {
		batch.Add(rec)
	}
}

// byteSize returns the total payload size of records.
func byteSize(records []domain.Record) int {
	var total int
	for _, rec := range records {
		total += rec.Size()
	}
	return total
}
