package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics exposes Prometheus request metrics for the admin server.
type HTTPMetrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	catalogRequests *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers request metrics on a dedicated registry. Go
// runtime, process and database pool collectors live on the default registry.
func NewHTTPMetrics() *HTTPMetrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogadmin_http_requests_total",
		Help: "Counts admin HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalogadmin_http_request_duration_seconds",
		Help:    "Admin HTTP request latency per method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	catalogRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogadmin_catalog_api_requests_total",
		Help: "Counts calls to the product API by operation and status class.",
	}, []string{"operation", "status"})

	catalogDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalogadmin_catalog_api_duration_seconds",
		Help:    "Product API call latency per operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	registry.MustRegister(requests, duration, catalogRequests, catalogDuration)

	return &HTTPMetrics{
		registry:        registry,
		requests:        requests,
		duration:        duration,
		catalogRequests: catalogRequests,
		catalogDuration: catalogDuration,
	}
}

// GinMiddleware records one observation per request.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(c.Request.Method, route, status).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveCatalogCall records one product API call. status is the HTTP
// status code, or 0 when no response was received.
func (m *HTTPMetrics) ObserveCatalogCall(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.catalogRequests.WithLabelValues(operation, statusClass(status)).Inc()
	m.catalogDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler serves this registry merged with the default one in the
// Prometheus text format.
func (m *HTTPMetrics) Handler() http.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, m.registry}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	switch {
	case status <= 0:
		return "transport_error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
