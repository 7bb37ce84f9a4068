package ports

// FailureTracker receives notifications about failed send attempts.
// Implementations are best-effort and fire-and-forget: their own failures
// must never affect the retry loop.
type FailureTracker interface {
	// NotifyFailure reports one failed attempt. category is a coarse label
	// for the failure kind, description the aggregated detail, stream the
	// destination stream name, attempt the 1-based attempt number, and
	// byteSize the total payload size still awaiting delivery.
	NotifyFailure(category, description, stream string, attempt, byteSize int)
}
