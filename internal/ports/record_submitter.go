package ports

import (
	"context"

	"github.com/globeandmail/enrich/internal/domain"
)

// RecordSubmitter performs the remote put-batch call against the destination
// stream. Implementations handle serialization, transport, and per-call
// timeouts.
type RecordSubmitter interface {
	// Submit sends the records in one call and returns one SendOutcome per
	// record, positionally aligned with the input. A non-nil error means the
	// call itself could not complete and no per-record outcome is known.
	//
	// The destination must accept at least the sink's configured record and
	// byte thresholds in a single call; the sink never builds a batch larger
	// than those.
	Submit(ctx context.Context, records []domain.Record) ([]domain.SendOutcome, error)
}

// StreamChecker verifies the destination stream exists and is writable.
// The check runs once at sink construction; a failure here is fatal and
// prevents the sink from being used at all.
type StreamChecker interface {
	CheckStream(ctx context.Context) error
}
