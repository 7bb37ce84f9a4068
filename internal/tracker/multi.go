package tracker

import "github.com/globeandmail/enrich/internal/ports"

// Noop discards all failure notifications.
type Noop struct{}

// NotifyFailure does nothing.
func (Noop) NotifyFailure(category, description, stream string, attempt, byteSize int) {}

// Multi fans one notification out to several trackers in order.
type Multi struct {
	trackers []ports.FailureTracker
}

// NewMulti creates a fan-out tracker. Nil entries are skipped.
func NewMulti(trackers ...ports.FailureTracker) *Multi {
	kept := make([]ports.FailureTracker, 0, len(trackers))
	for _, t := range trackers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Multi{trackers: kept}
}

// NotifyFailure forwards the notification to every tracker.
func (m *Multi) NotifyFailure(category, description, stream string, attempt, byteSize int) {
	for _, t := range m.trackers {
		t.NotifyFailure(category, description, stream, attempt, byteSize)
	}
}
