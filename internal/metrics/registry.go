package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates the sink's metrics and provides a clean interface
// for recording them without global state. It implements both the sink's
// send-event emitter and the failure-tracker port.
type Registry struct {
	registry *prometheus.Registry

	recordsDelivered prometheus.Counter
	bytesDelivered   prometheus.Counter
	batchesDelivered prometheus.Counter
	recordsDropped   prometheus.Counter
	sendFailures     *prometheus.CounterVec
	batchAttempts    prometheus.Histogram
	batchDuration    prometheus.Histogram
}

// NewRegistry creates a metrics registry with all sink metrics initialized.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		recordsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enrich_sink_records_delivered_total",
			Help: "Records accepted by the destination stream",
		}),

		bytesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enrich_sink_bytes_delivered_total",
			Help: "Payload bytes accepted by the destination stream",
		}),

		batchesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enrich_sink_batches_delivered_total",
			Help: "Batches fully delivered, including those needing retries",
		}),

		recordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enrich_sink_records_dropped_total",
			Help: "Oversized records dropped at the buffer boundary",
		}),

		sendFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_sink_send_failures_total",
				Help: "Failed send attempts by failure category",
			},
			[]string{"category"}, // category: rejected, transport
		),

		batchAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrich_sink_batch_attempts",
			Help:    "Submit attempts needed to fully deliver a batch",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrich_sink_batch_duration_seconds",
			Help:    "Wall time from first attempt to full delivery of a batch",
			Buckets: prometheus.DefBuckets,
		}),
	}

	// Default Go runtime metrics (memory, GC, goroutines).
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry.MustRegister(
		r.recordsDelivered,
		r.bytesDelivered,
		r.batchesDelivered,
		r.recordsDropped,
		r.sendFailures,
		r.batchAttempts,
		r.batchDuration,
	)

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// OnBatchDelivered records one fully delivered batch.
func (r *Registry) OnBatchDelivered(recordCount, byteCount, attempts int, duration time.Duration) {
	r.recordsDelivered.Add(float64(recordCount))
	r.bytesDelivered.Add(float64(byteCount))
	r.batchesDelivered.Inc()
	r.batchAttempts.Observe(float64(attempts))
	r.batchDuration.Observe(duration.Seconds())
}

// OnRecordDropped records one oversized record dropped at the buffer.
func (r *Registry) OnRecordDropped(size int) {
	r.recordsDropped.Inc()
}

// NotifyFailure records one failed send attempt.
func (r *Registry) NotifyFailure(category, description, stream string, attempt, byteSize int) {
	r.sendFailures.WithLabelValues(category).Inc()
}
