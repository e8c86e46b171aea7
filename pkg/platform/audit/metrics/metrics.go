package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit publisher.
type Metrics struct {
	QueueDepth      prometheus.Gauge
	EventsDropped   prometheus.Counter
	EventsEnqueued  prometheus.Counter
	PersistDuration prometheus.Histogram
	PersistFailures prometheus.Counter
}

// New registers the audit publisher metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credverify_audit_queue_depth",
			Help: "Current number of events waiting in the audit publisher queue",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "credverify_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the queue was full",
		}),
		EventsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "credverify_audit_events_enqueued_total",
			Help: "Total number of audit events accepted by the publisher",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "credverify_audit_persist_duration_seconds",
			Help:    "Time taken to persist an audit event to the sink",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "credverify_audit_persist_failures_total",
			Help: "Total number of audit events the sink rejected",
		}),
	}
}
