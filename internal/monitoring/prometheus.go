// Package monitoring exposes Prometheus metrics for the site service.
//
// Available metrics:
//   - mrtdown_site_http_requests_total{method, endpoint, status_code}
//   - mrtdown_site_http_request_duration_seconds{method, endpoint}
//   - mrtdown_site_upstream_requests_total{resource, status}
//   - mrtdown_site_upstream_request_duration_seconds{resource}
//   - mrtdown_site_cache_operations_total{operation, result}
//   - mrtdown_site_websocket_connections_active
//   - mrtdown_site_poll_runs_total{status}
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdown_site_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtdown_site_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdown_site_upstream_requests_total",
			Help: "Total number of requests to the upstream API",
		},
		[]string{"resource", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtdown_site_upstream_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource"},
	)

	cacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdown_site_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // get/set/delete, hit/miss/error/success
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mrtdown_site_websocket_connections_active",
			Help: "Number of active overview WebSocket connections",
		},
	)

	pollRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdown_site_poll_runs_total",
			Help: "Total number of overview refreshes",
		},
		[]string{"status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// RecordUpstreamRequest records one upstream fetch.
func RecordUpstreamRequest(resource string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	upstreamRequestsTotal.WithLabelValues(resource, status).Inc()
	upstreamRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordCacheOperation records one cache call.
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// WebSocketOpened and WebSocketClosed track live overview subscribers.
func WebSocketOpened() { websocketConnections.Inc() }

func WebSocketClosed() { websocketConnections.Dec() }

// RecordPoll records one overview refresh.
func RecordPoll(success bool) {
	if success {
		pollRunsTotal.WithLabelValues("success").Inc()
		return
	}
	pollRunsTotal.WithLabelValues("error").Inc()
}
