// Package metrics exposes Prometheus counters for ingestion, the job
// lifecycle, and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances can coexist in
// tests. It satisfies upload.Observer and jobs.Observer.
type Collector struct {
	registry *prometheus.Registry

	filesStored     *prometheus.CounterVec
	filesSkipped    *prometheus.CounterVec
	jobEvents       *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers every stylesync metric plus the Go and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		filesStored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stylesync_upload_files_stored_total",
			Help: "Uploaded files stored in the managed tree",
		}, []string{"album"}),
		filesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stylesync_upload_files_skipped_total",
			Help: "Uploaded files skipped during ingestion",
		}, []string{"reason"}),
		jobEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stylesync_job_events_total",
			Help: "Job lifecycle events",
		}, []string{"event"}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stylesync_http_requests_total",
			Help: "HTTP requests served by the API",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stylesync_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// FileStored counts one stored upload. Album names are user controlled, so
// the label only distinguishes synthesized album names from supplied ones.
func (c *Collector) FileStored(album string) {
	label := "named"
	if strings.HasPrefix(album, "album_") {
		label = "synthesized"
	}
	c.filesStored.WithLabelValues(label).Inc()
}

// FileSkipped counts one skipped upload by reason.
func (c *Collector) FileSkipped(reason string) {
	c.filesSkipped.WithLabelValues(reason).Inc()
}

// JobEvent counts one job lifecycle event.
func (c *Collector) JobEvent(event string) {
	c.jobEvents.WithLabelValues(event).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware records request counts and latency per normalized route.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := NormalizePath(r.URL.Path)
		c.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		c.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// NormalizePath collapses job ids and upload file paths so label
// cardinality stays bounded.
func NormalizePath(p string) string {
	switch {
	case strings.HasPrefix(p, "/uploads/"):
		return "/uploads/{path}"
	case strings.HasPrefix(p, "/api/jobs/"):
		rest := strings.TrimPrefix(p, "/api/jobs/")
		_, action, found := strings.Cut(rest, "/")
		if !found {
			return "/api/jobs/{id}"
		}
		return "/api/jobs/{id}/" + action
	}
	return p
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
