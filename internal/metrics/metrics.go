// Package metrics provides Prometheus metrics for swornref
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for swornref
type Metrics struct {
	Registry *prometheus.Registry

	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Document load metrics
	DocumentLoadsTotal   *prometheus.CounterVec
	DocumentLoadDuration *prometheus.HistogramVec
	DocumentIdentifiers  *prometheus.GaugeVec

	// Index metrics
	IdentifiersTotal prometheus.Gauge
	DocumentsTotal   prometheus.Gauge

	// Lookup metrics
	LookupsTotal *prometheus.CounterVec

	// Server metrics
	ServerUptimeSeconds prometheus.GaugeFunc
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics on a fresh registry, so several instances
// can coexist in one process
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		Registry:        reg,
		ServerStartTime: time.Now(),
	}

	// gRPC request metrics
	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swornref_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swornref_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "swornref_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	// Document load metrics
	m.DocumentLoadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swornref_document_loads_total",
			Help: "Total number of document loads",
		},
		[]string{"document", "status"},
	)

	m.DocumentLoadDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swornref_document_load_duration_seconds",
			Help:    "Duration of document loads in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"document"},
	)

	m.DocumentIdentifiers = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swornref_document_identifiers",
			Help: "Identifiers indexed from each document by its last successful load",
		},
		[]string{"document"},
	)

	// Index metrics
	m.IdentifiersTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "swornref_identifiers_total",
			Help: "Total number of identifiers in the index",
		},
	)

	m.DocumentsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "swornref_documents_total",
			Help: "Total number of loaded documents",
		},
	)

	// Lookup metrics
	m.LookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swornref_lookups_total",
			Help: "Total number of identifier lookups",
		},
		[]string{"operation", "result"},
	)

	// Server metrics
	m.ServerUptimeSeconds = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "swornref_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.ServerStartTime).Seconds() },
	)

	return m
}

// Handler serves this instance's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordLookup counts one lookup; result is "hit", "miss" or "error"
func (m *Metrics) RecordLookup(operation, result string) {
	m.LookupsTotal.WithLabelValues(operation, result).Inc()
}

// DocumentLoaded records one document load or reload
func (m *Metrics) DocumentLoaded(document string, duration time.Duration, identifiers int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DocumentLoadsTotal.WithLabelValues(document, status).Inc()
	m.DocumentLoadDuration.WithLabelValues(document).Observe(duration.Seconds())
	if err == nil {
		m.DocumentIdentifiers.WithLabelValues(document).Set(float64(identifiers))
	}
}

// IndexSize updates the index gauges
func (m *Metrics) IndexSize(identifiers, documents int) {
	m.IdentifiersTotal.Set(float64(identifiers))
	m.DocumentsTotal.Set(float64(documents))
}
