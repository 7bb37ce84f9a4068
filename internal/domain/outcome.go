package domain

// SendOutcome is the per-record result of one submit call. A zero ErrorCode
// means the record was accepted by the destination.
type SendOutcome struct {
	// ErrorCode is the destination's coarse error classifier for a rejected
	// record (e.g. "ProvisionedThroughputExceededException"). Empty on
	// success.
	ErrorCode string

	// ErrorMessage is the human-readable message accompanying ErrorCode.
	ErrorMessage string
}

// Failed returns true if the record was rejected.
func (o SendOutcome) Failed() bool {
	return o.ErrorCode != ""
}
