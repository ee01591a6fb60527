// Package metrics exposes Prometheus collectors for the product table
// server: HTTP latency by route, catalog fetch outcome, intents, sessions
// and exports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "product_table"

// unmatchedRoute labels requests chi could not route, to keep cardinality
// bounded.
const unmatchedRoute = "/not-found"

// Metrics owns a private registry so tests can create as many instances as
// they like.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	catalogFetches  *prometheus.CounterVec
	catalogProducts prometheus.Gauge
	catalogDuration prometheus.Gauge
	intents         *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	exports         *prometheus.CounterVec
	exportedRows    prometheus.Counter
	exportDuration  prometheus.Histogram
}

// New creates and registers all collectors. When withRuntime is set the Go
// runtime and process collectors are registered too.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent serving a route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"code", "method", "route"}),
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetches_total",
			Help:      "Catalog fetches by outcome.",
		}, []string{"result"}),
		catalogProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Number of products loaded from the catalog.",
		}),
		catalogDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Duration of the catalog fetch.",
		}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "View State intents applied, by name.",
		}, []string{"intent"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions currently held in memory.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Spreadsheet exports by result code.",
		}, []string{"code"}),
		exportedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_rows_total",
			Help:      "Product rows written to exported spreadsheets.",
		}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent building a workbook.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.requestDuration,
		m.catalogFetches,
		m.catalogProducts,
		m.catalogDuration,
		m.intents,
		m.sessionsActive,
		m.exports,
		m.exportedRows,
		m.exportDuration,
	)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CatalogLoaded records the outcome of the catalog fetch. It matches
// catalog.Observer.
func (m *Metrics) CatalogLoaded(res catalog.Result) {
	result := "ok"
	if !res.OK() {
		result = "error"
	}
	m.catalogFetches.WithLabelValues(result).Inc()
	m.catalogProducts.Set(float64(len(res.Products)))
	m.catalogDuration.Set(res.Duration.Seconds())
}

// IntentApplied implements core.Recorder.
func (m *Metrics) IntentApplied(name string) {
	m.intents.WithLabelValues(name).Inc()
}

// ExportCompleted implements core.Recorder.
func (m *Metrics) ExportCompleted(rows int, d time.Duration) {
	m.exports.WithLabelValues("ok").Inc()
	m.exportedRows.Add(float64(rows))
	m.exportDuration.Observe(d.Seconds())
}

// ExportFailed implements core.Recorder.
func (m *Metrics) ExportFailed(code string) {
	m.exports.WithLabelValues(code).Inc()
}

// SessionsActive implements core.Recorder.
func (m *Metrics) SessionsActive(n int) {
	m.sessionsActive.Set(float64(n))
}

// Middleware observes request latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(strconv.Itoa(status), r.Method, route).
			Observe(time.Since(start).Seconds())
	})
}
