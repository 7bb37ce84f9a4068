package sink

import (
	"github.com/globeandmail/enrich/internal/ports"
	"github.com/globeandmail/enrich/pkg/log"
)

// Option configures optional behavior of a Sink.
type Option func(*options)

// options holds the optional configuration for a Sink instance.
type options struct {
	logger  log.Logger
	tracker ports.FailureTracker
	emitter SendEventEmitter
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:  log.NewNoopLogger(),
		tracker: noopTracker{},
		emitter: nil,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracker sets a failure tracker notified on every failed attempt.
// If not provided, notifications are discarded.
func WithTracker(tracker ports.FailureTracker) Option {
	return func(o *options) {
		o.tracker = tracker
	}
}

// WithEmitter sets a handler for delivery events. Events are called
// synchronously from the flushing goroutine.
func WithEmitter(emitter SendEventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

// noopTracker discards all failure notifications.
type noopTracker struct{}

func (noopTracker) NotifyFailure(category, description, stream string, attempt, byteSize int) {}
