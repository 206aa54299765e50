// Package metrics exposes server counters in the Prometheus text format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Download outcomes.
const (
	OutcomeComplete     = "complete"
	OutcomeAborted      = "aborted"
	OutcomeDisconnected = "disconnected"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	downloads     *prometheus.CounterVec
	bytesRelayed  prometheus.Counter
	historyWrites *prometheus.CounterVec
}

// New registers all collectors, including the Go runtime and process ones.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidsnap",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidsnap",
			Name:      "http_request_duration_seconds",
			Help:      "Time to complete an HTTP request, including streamed bodies.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
		}, []string{"route"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidsnap",
			Name:      "downloads_total",
			Help:      "Relayed downloads by media kind and outcome.",
		}, []string{"kind", "outcome"}),
		bytesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidsnap",
			Name:      "relayed_bytes_total",
			Help:      "Bytes copied from upstream to clients.",
		}),
		historyWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidsnap",
			Name:      "history_writes_total",
			Help:      "Download history writes by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.latency,
		m.downloads,
		m.bytesRelayed,
		m.historyWrites,
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts every request by its route pattern, not the raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()
			// Deferred so aborted streams, which unwind by panicking, are counted too.
			defer func() {
				route := c.Path()
				if route == "" {
					route = "unmatched"
				}
				status := c.Response().Status
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}

				m.requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
				m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
			}()
			return next(c)
		}
	}
}

// ObserveDownload records one finished relay.
func (m *Metrics) ObserveDownload(kind, outcome string, bytes int64) {
	m.downloads.WithLabelValues(kind, outcome).Inc()
	m.bytesRelayed.Add(float64(bytes))
}

// ObserveHistoryWrite records whether a requested history row was saved.
func (m *Metrics) ObserveHistoryWrite(saved bool) {
	result := "ok"
	if !saved {
		result = "error"
	}
	m.historyWrites.WithLabelValues(result).Inc()
}
