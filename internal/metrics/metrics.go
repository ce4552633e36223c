// Package metrics exposes Prometheus collectors for the HTTP surface and the
// callback registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sleepboard"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	callbacksTotal   *prometheus.CounterVec
	callbackLatency  *prometheus.HistogramVec
	filteredRows     *prometheus.HistogramVec
	datasetRows      prometheus.Gauge
	realtimeSessions prometheus.GaugeFunc
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		callbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Total number of dashboard callback runs",
		}, []string{"variant", "callback"}),
		callbackLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "callback_duration_seconds",
			Help:      "Time spent filtering and building figures per callback",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"variant", "callback"}),
		filteredRows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows remaining after filtering",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"variant"}),
		datasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCallback records one callback run.
func (m *Metrics) ObserveCallback(variant, callback string, elapsed time.Duration) {
	m.callbacksTotal.WithLabelValues(variant, callback).Inc()
	m.callbackLatency.WithLabelValues(variant, callback).Observe(elapsed.Seconds())
}

// ObserveRows records the size of a filtered table.
func (m *Metrics) ObserveRows(variant string, rows int) {
	m.filteredRows.WithLabelValues(variant).Observe(float64(rows))
}

// SetDatasetRows records the size of the loaded dataset.
func (m *Metrics) SetDatasetRows(n int) {
	m.datasetRows.Set(float64(n))
}

// TrackSessions reports count as the number of live websocket sessions.
// Calling it again has no effect.
func (m *Metrics) TrackSessions(count func() int) {
	if m.realtimeSessions != nil {
		return
	}
	m.realtimeSessions = promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_sessions",
		Help:      "Connected websocket sessions",
	}, func() float64 { return float64(count()) })
}
