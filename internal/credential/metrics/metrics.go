package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential operations.
type Metrics struct {
	DegreesIssued       *prometheus.CounterVec
	Verifications       *prometheus.CounterVec
	RequestsCreated     *prometheus.CounterVec
	RequestsCompleted   *prometheus.CounterVec
	InvocationConflicts *prometheus.CounterVec
	InvocationLatency   *prometheus.HistogramVec
	QueryResults        *prometheus.HistogramVec
}

// New registers credential collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		DegreesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credverify_degrees_issued_total",
			Help: "Total number of degrees issued, labeled by university",
		}, []string{"university"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credverify_degree_verifications_total",
			Help: "Total number of degree verifications, labeled by result",
		}, []string{"result"}),
		RequestsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credverify_requests_created_total",
			Help: "Total number of workflow requests created, labeled by kind",
		}, []string{"kind"}),
		RequestsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credverify_requests_completed_total",
			Help: "Total number of workflow requests completed, labeled by kind",
		}, []string{"kind"}),
		InvocationConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credverify_invocation_conflicts_total",
			Help: "Ledger invocations rejected because their reads went stale, labeled by operation",
		}, []string{"operation"}),
		InvocationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credverify_invocation_duration_seconds",
			Help:    "Duration of ledger invocations in seconds, labeled by operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),
		QueryResults: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credverify_request_query_results",
			Help:    "Number of requests returned per listing, labeled by role",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
		}, []string{"role"}),
	}
}

func (m *Metrics) IncrementDegreesIssued(university string) {
	m.DegreesIssued.WithLabelValues(university).Inc()
}

func (m *Metrics) IncrementVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementRequestsCreated(kind string) {
	m.RequestsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRequestsCompleted(kind string) {
	m.RequestsCompleted.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementConflict(operation string) {
	m.InvocationConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveInvocation(operation string, durationSeconds float64) {
	m.InvocationLatency.WithLabelValues(operation).Observe(durationSeconds)
}

func (m *Metrics) ObserveQueryResults(role string, count int) {
	m.QueryResults.WithLabelValues(role).Observe(float64(count))
}
