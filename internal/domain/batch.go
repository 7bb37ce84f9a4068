package domain

// Batch is an ordered aggregate of records sealed for sending together.
// Insertion order is preserved end-to-end: the order of Records must equal
// the order in which the records were added.
type Batch struct {
	// Records contains the records in insertion order
	Records []Record

	// TotalBytes is the sum of all record payload lengths
	TotalBytes int
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{
		Records: make([]Record, 0),
	}
}

// Add appends a record to the batch and updates the byte total.
func (b *Batch) Add(rec Record) {
	b.Records = append(b.Records, rec)
	b.TotalBytes += rec.Size()
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// Reset clears the batch for reuse.
func (b *Batch) Reset() {
	b.Records = b.Records[:0]
	b.TotalBytes = 0
}
