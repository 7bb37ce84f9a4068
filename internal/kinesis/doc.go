// Package kinesis adapts the AWS Kinesis Data Streams API to the sink's
// submitter and stream-checker ports.
//
// PutRecords reports a per-record ErrorCode/ErrorMessage pair for rejected
// entries, which maps directly onto the sink's SendOutcome shape;
// DescribeStreamSummary backs the construction-time writability check.
package kinesis
