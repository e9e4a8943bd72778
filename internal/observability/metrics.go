package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains Prometheus metrics for the gateway. Collectors are
// registered on a private registry so tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	providerOpsTotal   *prometheus.CounterVec
	providerOpDuration *prometheus.HistogramVec

	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	cacheRequestsTotal *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec

	buildInfo *prometheus.GaugeVec
	startTime prometheus.Gauge
}

// NewMetrics creates gateway metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cmsgw"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the admin surface",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		requestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request body size in bytes",
				Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
			},
			[]string{"method", "route"},
		),
		responseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response body size in bytes",
				Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
			},
			[]string{"method", "route"},
		),
		activeRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_active_requests",
				Help:      "Number of in-flight HTTP requests",
			},
		),

		providerOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_operations_total",
				Help:      "Total number of data provider operations",
			},
			[]string{"resource", "operation", "status"},
		),
		providerOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_operation_duration_seconds",
				Help:      "Data provider operation latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"resource", "operation"},
		),

		upstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of requests sent to the CMS backend",
			},
			[]string{"method", "status"},
		),
		upstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "CMS backend request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method"},
		),

		cacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Read-through cache lookups by result",
			},
			[]string{"result"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),

		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build information",
			},
			[]string{"version", "git_commit"},
		),
		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "start_time_seconds",
				Help:      "Unix timestamp of process start",
			},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.requestSize,
		m.responseSize,
		m.activeRequests,
		m.providerOpsTotal,
		m.providerOpDuration,
		m.upstreamRequestsTotal,
		m.upstreamRequestDuration,
		m.cacheRequestsTotal,
		m.circuitBreakerState,
		m.buildInfo,
		m.startTime,
	)

	m.startTime.SetToCurrentTime()

	return m
}

// Registry exposes the underlying registry so leaf packages can register
// their own collectors on the same /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration, reqSize, respSize int64) {
	statusStr := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, route, statusStr).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if reqSize > 0 {
		m.requestSize.WithLabelValues(method, route).Observe(float64(reqSize))
	}
	if respSize > 0 {
		m.responseSize.WithLabelValues(method, route).Observe(float64(respSize))
	}
}

// RecordProviderOp records one data provider operation.
func (m *Metrics) RecordProviderOp(resource, operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerOpsTotal.WithLabelValues(resource, operation, status).Inc()
	m.providerOpDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one request to the CMS backend.
func (m *Metrics) RecordUpstreamRequest(method string, status int, duration time.Duration) {
	m.upstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.upstreamRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCacheResult records a cache lookup result ("hit", "miss", "bypass", "error").
func (m *Metrics) RecordCacheResult(result string) {
	m.cacheRequestsTotal.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState sets the state gauge for a named breaker.
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// SetBuildInfo sets build information.
func (m *Metrics) SetBuildInfo(version, gitCommit string) {
	m.buildInfo.WithLabelValues(version, gitCommit).Set(1)
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// MetricsMiddleware returns a middleware that records request metrics.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.activeRequests.Inc()
			defer m.activeRequests.Dec()

			rw := &metricsResponseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			m.RecordRequest(r.Method, routeLabel(r), rw.status, time.Since(start), r.ContentLength, rw.written)
		})
	}
}

// routeLabel returns a bounded-cardinality route label for a request.
// Resource and id path segments are collapsed so every content type does
// not mint its own label value.
func routeLabel(r *http.Request) string {
	path := r.URL.Path
	if len(path) >= 5 && path[:5] == "/api/" {
		rest := path[5:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				return "/api/:resource/:id"
			}
		}
		return "/api/:resource"
	}
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and size.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Flush implements http.Flusher.
func (rw *metricsResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
