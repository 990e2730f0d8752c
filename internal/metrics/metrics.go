// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the harvester collectors. It satisfies scraper.Metrics.
type Recorder struct {
	gatherer prometheus.Gatherer

	pagesTotal            *prometheus.CounterVec
	sessionStartupSeconds prometheus.Histogram
	extractionSeconds     prometheus.Histogram
	activeSessions        prometheus.Gauge
	resourceRSSBytes      prometheus.Gauge
	resourceCPUPercent    prometheus.Gauge
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		pagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_pages_total",
				Help: "Total number of pages processed, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		sessionStartupSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_session_startup_seconds",
				Help:    "Histogram of browser session startup latencies.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		extractionSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_extraction_seconds",
				Help:    "Histogram of about payload extraction latencies.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvester_active_sessions",
				Help: "Number of browser sessions currently running.",
			},
		),
		resourceRSSBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvester_process_rss_bytes",
				Help: "Resident memory of the harvester process at the last checkpoint.",
			},
		),
		resourceCPUPercent: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvester_process_cpu_percent",
				Help: "CPU usage of the harvester process at the last checkpoint.",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}
}

// Handler returns an http.Handler exposing the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// ObservePage counts one page outcome.
func (r *Recorder) ObservePage(outcome string) {
	r.pagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveSessionStartup records how long a browser took to start.
func (r *Recorder) ObserveSessionStartup(d time.Duration) {
	r.sessionStartupSeconds.Observe(d.Seconds())
}

// ObserveExtraction records how long an about extraction took.
func (r *Recorder) ObserveExtraction(d time.Duration) {
	r.extractionSeconds.Observe(d.Seconds())
}

// SessionStarted increments the active sessions gauge.
func (r *Recorder) SessionStarted() {
	r.activeSessions.Inc()
}

// SessionStopped decrements the active sessions gauge.
func (r *Recorder) SessionStopped() {
	r.activeSessions.Dec()
}

// ObserveResources stores the latest process resource sample.
func (r *Recorder) ObserveResources(rssBytes uint64, cpuPercent float64) {
	r.resourceRSSBytes.Set(float64(rssBytes))
	r.resourceCPUPercent.Set(cpuPercent)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func (r *Recorder) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
