package kinesis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awskinesis "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/aws/smithy-go"

	"github.com/globeandmail/enrich/internal/domain"
	"github.com/globeandmail/enrich/pkg/log"
)

// DefaultRequestTimeout bounds a single PutRecords call. Exceeding it is a
// transport error, which the sink answers with a whole-batch retry.
const DefaultRequestTimeout = 10 * time.Second

// API is the subset of the Kinesis client the adapter uses. The SDK's
// *kinesis.Client satisfies it; tests inject fakes.
type API interface {
	PutRecords(ctx context.Context, params *awskinesis.PutRecordsInput, optFns ...func(*awskinesis.Options)) (*awskinesis.PutRecordsOutput, error)
	DescribeStreamSummary(ctx context.Context, params *awskinesis.DescribeStreamSummaryInput, optFns ...func(*awskinesis.Options)) (*awskinesis.DescribeStreamSummaryOutput, error)
}

// Client submits record batches to one Kinesis stream.
type Client struct {
	api        API
	streamName string
	timeout    time.Duration
	logger     log.Logger
}

// NewClient creates a client for the named stream. A non-positive timeout
// falls back to DefaultRequestTimeout.
func NewClient(api API, streamName string, timeout time.Duration, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		api:        api,
		streamName: streamName,
		timeout:    timeout,
		logger:     logger,
	}
}

// CheckStream verifies the stream exists and is in a writable state.
// ACTIVE and UPDATING streams accept writes; anything else is unusable.
func (c *Client) CheckStream(ctx context.Context) error {
	out, err := c.api.DescribeStreamSummary(ctx, &awskinesis.DescribeStreamSummaryInput{
		StreamName: aws.String(c.streamName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: stream %q does not exist", domain.ErrFatal, c.streamName)
		}
		return fmt.Errorf("describe stream %q: %w", c.streamName, err)
	}

	status := out.StreamDescriptionSummary.StreamStatus
	switch status {
	case types.StreamStatusActive, types.StreamStatusUpdating:
		return nil
	default:
		return fmt.Errorf("%w: stream %q is %s", domain.ErrFatal, c.streamName, status)
	}
}

// Submit sends records in one PutRecords call and maps the per-entry result
// onto SendOutcomes, positionally aligned with the input.
func (c *Client) Submit(ctx context.Context, records []domain.Record) ([]domain.SendOutcome, error) {
	entries := make([]types.PutRecordsRequestEntry, len(records))
	for i, rec := range records {
		entries[i] = types.PutRecordsRequestEntry{
			Data:         rec.Data,
			PartitionKey: aws.String(rec.PartitionKey),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.api.PutRecords(callCtx, &awskinesis.PutRecordsInput{
		StreamName: aws.String(c.streamName),
		Records:    entries,
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: stream %q disappeared: %v", domain.ErrFatal, c.streamName, err)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("put records (%s): %w", apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("put records: %w", err)
	}

	outcomes := make([]domain.SendOutcome, len(out.Records))
	for i, entry := range out.Records {
		if entry.ErrorCode != nil {
			outcomes[i] = domain.SendOutcome{
				ErrorCode:    aws.ToString(entry.ErrorCode),
				ErrorMessage: aws.ToString(entry.ErrorMessage),
			}
		}
	}

	if n := aws.ToInt32(out.FailedRecordCount); n > 0 {
		c.logger.Debug("put records partially rejected",
			log.Int("failed", int(n)),
			log.Int("submitted", len(records)),
		)
	}
	return outcomes, nil
}
