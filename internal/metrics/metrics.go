// Package metrics exposes the server's Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "pdfmark"

	resultLabel = "result"
	kindLabel   = "kind"
	methodLabel = "method"
	routeLabel  = "route"
	statusLabel = "status"

	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds every collector the server reports.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal      *prometheus.CounterVec
	markupSavesTotal  *prometheus.CounterVec
	markupRecords     *prometheus.HistogramVec
	uploadEventsTotal *prometheus.CounterVec
	requestsTotal     *prometheus.CounterVec
	requestSeconds    *prometheus.HistogramVec
}

func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector failed: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector failed: %w", err)
	}

	return &Metrics{
		registry: reg,
		uploadsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of document uploads by result.",
		}, []string{resultLabel}),
		markupSavesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markup_saves_total",
			Help:      "Total number of markup collection writes by kind and result.",
		}, []string{kindLabel, resultLabel}),
		markupRecords: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "markup_records",
			Help:      "Number of records in each replace-all submission.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{kindLabel}),
		uploadEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "upload_events_total",
			Help:      "Total number of upload events consumed by result.",
		}, []string{resultLabel}),
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{methodLabel, routeLabel, statusLabel}),
		requestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{methodLabel, routeLabel}),
	}, nil
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

func (m *Metrics) AddUpload(err error) {
	if m == nil {
		return
	}
	m.uploadsTotal.With(prometheus.Labels{resultLabel: result(err)}).Inc()
}

func (m *Metrics) AddMarkupSave(kind string, err error) {
	if m == nil {
		return
	}
	m.markupSavesTotal.With(prometheus.Labels{kindLabel: kind, resultLabel: result(err)}).Inc()
}

// ObserveMarkupRecords records the size of a replace-all submission.
func (m *Metrics) ObserveMarkupRecords(kind string, count int) {
	if m == nil {
		return
	}
	m.markupRecords.With(prometheus.Labels{kindLabel: kind}).Observe(float64(count))
}

func (m *Metrics) AddUploadEvent(err error) {
	if m == nil {
		return
	}
	m.uploadEventsTotal.With(prometheus.Labels{resultLabel: result(err)}).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.With(prometheus.Labels{
		methodLabel: method,
		routeLabel:  route,
		statusLabel: strconv.Itoa(status),
	}).Inc()
	m.requestSeconds.With(prometheus.Labels{methodLabel: method, routeLabel: route}).Observe(seconds)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
