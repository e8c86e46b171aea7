// Package metrics builds the process-wide Prometheus registry served on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the collectors of one server process. Component metrics
// (credential, audit, request latency, pool stats) register on it.
type Registry struct {
	*prometheus.Registry
	info *prometheus.GaugeVec
}

// NewRegistry returns a registry with the Go runtime and process collectors
// and a credverify_build_info gauge set to 1.
func NewRegistry(version, environment string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	info := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "credverify_build_info",
		Help: "Build and deployment information, always 1",
	}, []string{"version", "environment"})
	info.WithLabelValues(version, environment).Set(1)
	return &Registry{Registry: reg, info: info}
}

// SetLedgerBackend records which backend the process runs on.
func (r *Registry) SetLedgerBackend(backend string) {
	promauto.With(r.Registry).NewGaugeVec(prometheus.GaugeOpts{
		Name: "credverify_ledger_backend",
		Help: "Configured ledger backend, always 1",
	}, []string{"backend"}).WithLabelValues(backend).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}
