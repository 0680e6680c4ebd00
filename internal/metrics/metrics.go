// Package metrics provides Prometheus metrics for Folio. Metrics live on a
// private registry; a nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for Folio.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DocumentOpsTotal *prometheus.CounterVec
	RenderDuration   prometheus.Histogram
	ArticleCache     *prometheus.CounterVec
	AssetUploads     *prometheus.CounterVec
	ReadingMinutes   prometheus.Histogram
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		DocumentOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_document_operations_total",
			Help: "Document load/save/delete operations by outcome",
		}, []string{"operation", "status"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_render_duration_seconds",
			Help:    "Time spent rendering articles",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		ArticleCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_article_cache_total",
			Help: "Article cache lookups by result",
		}, []string{"result"}),
		AssetUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_asset_uploads_total",
			Help: "Asset uploads by backend and outcome",
		}, []string{"backend", "status"}),
		ReadingMinutes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_reading_time_minutes",
			Help:    "Reading time computed on save",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

// Registry exposes the registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// GaugeFunc registers a gauge whose value is sampled on scrape.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordDocumentOp counts one document operation.
func (m *Metrics) RecordDocumentOp(op string, err error) {
	if m == nil {
		return
	}
	m.DocumentOpsTotal.WithLabelValues(op, status(err)).Inc()
}

// ObserveRender records one render pass.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(d.Seconds())
}

// RecordCache counts an article cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ArticleCache.WithLabelValues(result).Inc()
}

// RecordUpload counts one asset upload.
func (m *Metrics) RecordUpload(backend string, err error) {
	if m == nil {
		return
	}
	m.AssetUploads.WithLabelValues(backend, status(err)).Inc()
}

// ObserveReadingTime records a reading time computed on save.
func (m *Metrics) ObserveReadingTime(minutes int) {
	if m == nil {
		return
	}
	m.ReadingMinutes.Observe(float64(minutes))
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
