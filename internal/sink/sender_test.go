package sink

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/internal/ports"
	"github.com/globeandmail/enrich/pkg/log"
)

// scriptedSubmitter replays one scripted response per call and records every
// set of records submitted. Calls beyond the script succeed for all records.
type scriptedSubmitter struct {
	calls  [][]domain.Record
	script []func(records []domain.Record) ([]domain.SendOutcome, error)
}

func (s *scriptedSubmitter) Submit(_ context.Context, records []domain.Record) ([]domain.SendOutcome, error) {
	copied := make([]domain.Record, len(records))
	copy(copied, records)
	s.calls = append(s.calls, copied)

	if len(s.calls) <= len(s.script) {
		return s.script[len(s.calls)-1](records)
	}
	return make([]domain.SendOutcome, len(records)), nil
}

// allSucceed returns a success outcome per record.
func allSucceed(records []domain.Record) ([]domain.SendOutcome, error) {
	return make([]domain.SendOutcome, len(records)), nil
}

// failPositions rejects the records at the given zero-based positions.
func failPositions(positions ...int) func([]domain.Record) ([]domain.SendOutcome, error) {
	return func(records []domain.Record) ([]domain.SendOutcome, error) {
		outcomes := make([]domain.SendOutcome, len(records))
		for _, p := range positions {
			outcomes[p] = domain.SendOutcome{ErrorCode: "Throttled", ErrorMessage: "slow down"}
		}
		return outcomes, nil
	}
}

type trackerCall struct {
	category    string
	description string
	stream      string
	attempt     int
	byteSize    int
}

type recordingTracker struct {
	calls []trackerCall
}

func (r *recordingTracker) NotifyFailure(category, description, stream string, attempt, byteSize int) {
	r.calls = append(r.calls, trackerCall{category, description, stream, attempt, byteSize})
}

type recordingEmitter struct {
	delivered []int // attempts per delivered batch
	dropped   int
}

func (r *recordingEmitter) OnBatchDelivered(recordCount, byteCount, attempts int, duration time.Duration) {
	r.delivered = append(r.delivered, attempts)
}

func (r *recordingEmitter) OnRecordDropped(size int) {
	r.dropped++
}

func newTestSender(sub *scriptedSubmitter, tracker ports.FailureTracker, emitter SendEventEmitter, maxAttempts int) *Sender {
	if tracker == nil {
		tracker = noopTracker{}
	}
	return NewSender(sub, "test-stream", time.Millisecond, 5*time.Millisecond, maxAttempts, tracker, emitter, log.NewNoopLogger())
}

func batchOf(keys ...string) *domain.Batch {
	b := domain.NewBatch()
	for _, k := range keys {
		b.Add(rec(10, k))
	}
	return b
}

func TestSendRetriesOnlyFailedSubset(t *testing.T) {
	// Records 2 and 5 (1-based) fail on the first attempt and succeed on
	// the second: exactly two calls, the second carrying only those two
	// records in their original relative order.
	sub := &scriptedSubmitter{script: []func([]domain.Record) ([]domain.SendOutcome, error){
		failPositions(1, 4),
		allSucceed,
	}}
	tracker := &recordingTracker{}
	emitter := &recordingEmitter{}
	s := newTestSender(sub, tracker, emitter, 0)

	batch := batchOf("r1", "r2", "r3", "r4", "r5", "r6")
	sent, err := s.SendAll(context.Background(), []*domain.Batch{batch})
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(sub.calls) != 2 {
		t.Fatalf("submit calls = %d, want 2", len(sub.calls))
	}
	second := sub.calls[1]
	if len(second) != 2 || second[0].PartitionKey != "r2" || second[1].PartitionKey != "r5" {
		t.Errorf("second call = %+v, want only r2 and r5 in order", second)
	}

	if len(tracker.calls) != 1 {
		t.Fatalf("tracker calls = %d, want 1", len(tracker.calls))
	}
	call := tracker.calls[0]
	if call.category != "rejected" || call.attempt != 1 || call.byteSize != 20 || call.stream != "test-stream" {
		t.Errorf("tracker call = %+v", call)
	}
	if len(emitter.delivered) != 1 || emitter.delivered[0] != 2 {
		t.Errorf("emitter delivered = %v, want one batch after 2 attempts", emitter.delivered)
	}
}

func TestSendRetriesWholeSetOnTransportError(t *testing.T) {
	sub := &scriptedSubmitter{script: []func([]domain.Record) ([]domain.SendOutcome, error){
		func([]domain.Record) ([]domain.SendOutcome, error) {
			return nil, errors.New("connection reset")
		},
		allSucceed,
	}}
	tracker := &recordingTracker{}
	s := newTestSender(sub, tracker, nil, 0)

	batch := batchOf("r1", "r2", "r3")
	if _, err := s.SendAll(context.Background(), []*domain.Batch{batch}); err != nil {
		t.Fatalf("SendAll: %v", err)
	}

	if len(sub.calls) != 2 {
		t.Fatalf("submit calls = %d, want 2", len(sub.calls))
	}
	if len(sub.calls[1]) != 3 {
		t.Errorf("second call resubmitted %d records, want the whole set of 3", len(sub.calls[1]))
	}
	if len(tracker.calls) != 1 || tracker.calls[0].category != "transport" || tracker.calls[0].byteSize != 30 {
		t.Errorf("tracker calls = %+v", tracker.calls)
	}
}

func TestSendAllSkipsEmptyBatchesAndKeepsOrder(t *testing.T) {
	sub := &scriptedSubmitter{}
	s := newTestSender(sub, &recordingTracker{}, nil, 0)

	batches := []*domain.Batch{
		domain.NewBatch(),
		batchOf("a1", "a2"),
		nil,
		batchOf("b1"),
	}
	sent, err := s.SendAll(context.Background(), batches)
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if sent != len(batches) {
		t.Fatalf("sent = %d, want %d", sent, len(batches))
	}
	if len(sub.calls) != 2 {
		t.Fatalf("submit calls = %d, want 2", len(sub.calls))
	}
	if sub.calls[0][0].PartitionKey != "a1" || sub.calls[1][0].PartitionKey != "b1" {
		t.Errorf("batches submitted out of order: %+v", sub.calls)
	}
}

func TestSendPropagatesFatalError(t *testing.T) {
	sub := &scriptedSubmitter{script: []func([]domain.Record) ([]domain.SendOutcome, error){
		func([]domain.Record) ([]domain.SendOutcome, error) {
			return nil, fmt.Errorf("%w: stream deleted", domain.ErrFatal)
		},
	}}
	s := newTestSender(sub, &recordingTracker{}, nil, 0)

	_, err := s.SendAll(context.Background(), []*domain.Batch{batchOf("r1")})
	if !errors.Is(err, domain.ErrFatal) {
		t.Fatalf("err = %v, want ErrFatal", err)
	}
	if len(sub.calls) != 1 {
		t.Errorf("submit calls = %d, want 1 (no retry on fatal)", len(sub.calls))
	}
}

func TestSendStopsAtAttemptCeiling(t *testing.T) {
	alwaysFail := failPositions(0)
	sub := &scriptedSubmitter{script: []func([]domain.Record) ([]domain.SendOutcome, error){
		alwaysFail, alwaysFail, alwaysFail, alwaysFail,
	}}
	s := newTestSender(sub, &recordingTracker{}, nil, 3)

	batch := batchOf("stuck", "fine")
	sent, err := s.SendAll(context.Background(), []*domain.Batch{batch})
	if err == nil {
		t.Fatal("expected error at attempt ceiling")
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	if len(sub.calls) != 3 {
		t.Errorf("submit calls = %d, want 3", len(sub.calls))
	}
	// The batch is reduced to the records still undelivered.
	if batch.Size() != 1 || batch.Records[0].PartitionKey != "stuck" {
		t.Errorf("batch after failure = %+v, want only the stuck record", batch.Records)
	}
}

func TestSendAbortsOnCanceledContext(t *testing.T) {
	sub := &scriptedSubmitter{}
	s := newTestSender(sub, &recordingTracker{}, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SendAll(ctx, []*domain.Batch{batchOf("r1")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(sub.calls) != 0 {
		t.Errorf("submit calls = %d, want 0", len(sub.calls))
	}
}
