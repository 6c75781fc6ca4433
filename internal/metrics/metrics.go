// Package metrics holds the Prometheus metrics of the topoview server.
//
// A Collector owns its own registry so that tests and multiple servers in
// one process never collide on registration. All recording methods are safe
// on a nil *Collector.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Canvas metrics
	WidgetsAttached *prometheus.CounterVec
	VerticesRemoved prometheus.Counter
	OpenViews       prometheus.Gauge

	// Document metrics
	Exports    *prometheus.CounterVec
	ViewsSaved *prometheus.CounterVec

	// Discovery metrics
	ObjectsDiscovered prometheus.Counter
}

// NewCollector creates a collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WidgetsAttached: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "widgets_attached_total",
				Help:      "Widgets created by the attachment policy, by layer",
			},
			[]string{"layer"},
		),
		VerticesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vertices_removed_total",
				Help:      "Total number of vertices removed from canvases",
			},
		),
		OpenViews: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_views",
				Help:      "Number of views currently open",
			},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "View exports by format and outcome",
			},
			[]string{"format", "status"},
		),
		ViewsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "views_saved_total",
				Help:      "View saves, split by whether the body changed",
			},
			[]string{"changed"},
		),
		ObjectsDiscovered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "objects_discovered_total",
				Help:      "Inventory objects returned by discovery scans",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.WidgetsAttached,
		c.VerticesRemoved,
		c.OpenViews,
		c.Exports,
		c.ViewsSaved,
		c.ObjectsDiscovered,
	)

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordWidget records a widget attached on layer
func (c *Collector) RecordWidget(layer string) {
	if c == nil {
		return
	}
	c.WidgetsAttached.WithLabelValues(layer).Inc()
}

// RecordVertexRemoved records a vertex removal
func (c *Collector) RecordVertexRemoved() {
	if c == nil {
		return
	}
	c.VerticesRemoved.Inc()
}

// SetOpenViews sets the open view gauge
func (c *Collector) SetOpenViews(n int) {
	if c == nil {
		return
	}
	c.OpenViews.Set(float64(n))
}

// RecordExport records an export attempt
func (c *Collector) RecordExport(format string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Exports.WithLabelValues(format, status).Inc()
}

// RecordSave records a view save
func (c *Collector) RecordSave(changed bool) {
	if c == nil {
		return
	}
	c.ViewsSaved.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// RecordDiscovered records objects found by a scan
func (c *Collector) RecordDiscovered(n int) {
	if c == nil {
		return
	}
	c.ObjectsDiscovered.Add(float64(n))
}
