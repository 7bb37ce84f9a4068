package sink

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/pkg/log"
)

func testBuffer(byteLimit, recordLimit, maxRecordBytes int, timeLimit time.Duration) *Buffer {
	return NewBuffer(byteLimit, recordLimit, maxRecordBytes, timeLimit, log.NewNoopLogger())
}

func rec(size int, key string) domain.Record {
	return domain.NewRecord(bytes.Repeat([]byte("x"), size), key)
}

func TestBufferSealsBeforeByteOverflow(t *testing.T) {
	// Three 400-byte records against a 1000-byte limit: the third would
	// push the total to 1200, so the first two are sealed and the third
	// starts a new batch.
	b := testBuffer(1000, 3, 1_000_000, 5*time.Second)

	b.Add(rec(400, "a"))
	b.Add(rec(400, "b"))
	if got := len(b.DrainSealed()); got != 1 {
		// DrainSealed seals the partial batch, so two buffered records
		// drain as a single batch.
		t.Fatalf("sealed batches after 2 adds = %d, want 1", got)
	}

	b = testBuffer(1000, 3, 1_000_000, 5*time.Second)
	b.Add(rec(400, "a"))
	b.Add(rec(400, "b"))
	b.Add(rec(400, "c"))

	batches := b.DrainSealed()
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].Size() != 2 || batches[0].TotalBytes != 800 {
		t.Errorf("first batch = %d records / %d bytes, want 2 / 800", batches[0].Size(), batches[0].TotalBytes)
	}
	if batches[1].Size() != 1 {
		t.Errorf("second batch = %d records, want 1", batches[1].Size())
	}
	if batches[0].Records[0].PartitionKey != "a" || batches[0].Records[1].PartitionKey != "b" || batches[1].Records[0].PartitionKey != "c" {
		t.Errorf("record order not preserved across seal")
	}
}

func TestBufferSealsOnRecordCount(t *testing.T) {
	b := testBuffer(1_000_000, 3, 1_000_000, 5*time.Second)

	for i := 0; i < 7; i++ {
		b.Add(rec(10, fmt.Sprintf("k%d", i)))
	}

	batches := b.DrainSealed()
	if len(batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(batches))
	}
	for i, want := range []int{3, 3, 1} {
		if batches[i].Size() != want {
			t.Errorf("batch %d size = %d, want %d", i, batches[i].Size(), want)
		}
	}
}

func TestBufferPreservesInsertionOrder(t *testing.T) {
	b := testBuffer(250, 4, 1_000_000, 5*time.Second)

	var keys []string
	for i := 0; i < 23; i++ {
		key := fmt.Sprintf("k%02d", i)
		keys = append(keys, key)
		b.Add(rec(30+i%50, key))
	}

	var got []string
	for _, batch := range b.DrainSealed() {
		for _, r := range batch.Records {
			got = append(got, r.PartitionKey)
		}
	}

	if len(got) != len(keys) {
		t.Fatalf("drained %d records, want %d", len(got), len(keys))
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Fatalf("record %d = %s, want %s", i, got[i], keys[i])
		}
	}
}

func TestBufferDropsOversizedRecords(t *testing.T) {
	b := testBuffer(1000, 10, 100, 5*time.Second)

	if b.Add(rec(100, "at-limit")) {
		t.Error("record at the hard limit should be dropped")
	}
	if b.Add(rec(250, "over")) {
		t.Error("oversized record should be dropped")
	}
	if !b.Add(rec(99, "under")) {
		t.Error("record under the hard limit should be accepted")
	}

	batches := b.DrainSealed()
	if len(batches) != 1 || batches[0].Size() != 1 {
		t.Fatalf("drained unexpected batches: %+v", batches)
	}
	if batches[0].Records[0].PartitionKey != "under" {
		t.Errorf("surviving record = %s, want under", batches[0].Records[0].PartitionKey)
	}
}

func TestBufferDrainLeavesBufferEmpty(t *testing.T) {
	b := testBuffer(1000, 3, 1_000_000, 5*time.Second)
	b.Add(rec(10, "a"))
	b.Add(rec(10, "b"))

	if !b.HasPending() {
		t.Fatal("HasPending = false before drain")
	}
	first := b.DrainSealed()
	if len(first) != 1 {
		t.Fatalf("first drain = %d batches, want 1", len(first))
	}
	if b.HasPending() {
		t.Error("HasPending = true after drain")
	}
	if second := b.DrainSealed(); len(second) != 0 {
		t.Errorf("second drain = %d batches, want 0", len(second))
	}
}

func TestBufferRequeuePutsBatchesFirst(t *testing.T) {
	b := testBuffer(1000, 2, 1_000_000, 5*time.Second)
	b.Add(rec(10, "a"))
	b.Add(rec(10, "b"))
	drained := b.DrainSealed()

	b.Add(rec(10, "c"))
	b.Seal()
	b.Requeue(drained)

	batches := b.DrainSealed()
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].Records[0].PartitionKey != "a" {
		t.Errorf("requeued batch not drained first")
	}
	if batches[1].Records[0].PartitionKey != "c" {
		t.Errorf("newer batch not drained after requeued one")
	}
}

func TestBufferShouldFlush(t *testing.T) {
	b := testBuffer(1000, 10, 1_000_000, 100*time.Millisecond)
	now := time.Now()

	if b.ShouldFlush(now.Add(time.Second)) {
		t.Error("empty buffer should never be due for flush")
	}

	b.Add(rec(10, "a"))
	if b.ShouldFlush(now) {
		t.Error("flush due before time threshold elapsed")
	}

	due := now.Add(200 * time.Millisecond)
	if !b.ShouldFlush(due) {
		t.Fatal("flush not due after time threshold elapsed")
	}
	// The deadline advanced, so the same instant is no longer due.
	if b.ShouldFlush(due) {
		t.Error("deadline did not advance after firing")
	}

	// Sealed batches make a flush due regardless of the deadline.
	b.Seal()
	if !b.ShouldFlush(due) {
		t.Error("flush not due with sealed batches queued")
	}
}
