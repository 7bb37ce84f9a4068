package domain

// Record is a single event payload bound for the destination stream.
// Records are immutable after construction.
type Record struct {
	// Data is the serialized event payload.
	Data []byte

	// PartitionKey determines which shard of the destination stream the
	// record lands on. It is preserved per record across retries.
	PartitionKey string
}

// NewRecord creates a record from a payload and partition key.
func NewRecord(data []byte, partitionKey string) Record {
	return Record{Data: data, PartitionKey: partitionKey}
}

// Size returns the byte size of the record's payload.
func (r Record) Size() int {
	return len(r.Data)
}
