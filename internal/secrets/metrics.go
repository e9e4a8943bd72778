package secrets

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SecretsMetrics holds Prometheus metrics for secrets provider operations.
type SecretsMetrics struct {
	operationDuration *prometheus.HistogramVec
	operationTotal    *prometheus.CounterVec
	providerHealth    *prometheus.GaugeVec
}

var (
	secretsMetricsInstance *SecretsMetrics
	secretsMetricsOnce     sync.Once
)

// GetSecretsMetrics returns the singleton secrets metrics instance.
func GetSecretsMetrics() *SecretsMetrics {
	secretsMetricsOnce.Do(func() {
		secretsMetricsInstance = newSecretsMetrics()
	})
	return secretsMetricsInstance
}

// MustRegister registers all secrets metric collectors with the given
// Prometheus registry. promauto registers with the default global
// registry, but the gateway serves /metrics from a custom registry;
// calling MustRegister bridges the two.
func (m *SecretsMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.operationDuration,
		m.operationTotal,
		m.providerHealth,
	)
}

func newSecretsMetrics() *SecretsMetrics {
	return &SecretsMetrics{
		operationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cmsgw",
				Subsystem: "secrets",
				Name:      "operation_duration_seconds",
				Help:      "Duration of secrets provider operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "operation", "result"},
		),
		operationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsgw",
				Subsystem: "secrets",
				Name:      "operation_total",
				Help:      "Total number of secrets provider operations",
			},
			[]string{"provider", "operation", "result"},
		),
		providerHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cmsgw",
				Subsystem: "secrets",
				Name:      "provider_healthy",
				Help:      "Whether the secrets provider is healthy (1) or not (0)",
			},
			[]string{"provider"},
		),
	}
}

// RecordOperation records metrics for a secrets provider operation
func RecordOperation(provider ProviderType, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m := GetSecretsMetrics()
	providerStr := string(provider)
	m.operationDuration.WithLabelValues(providerStr, operation, result).Observe(duration.Seconds())
	m.operationTotal.WithLabelValues(providerStr, operation, result).Inc()
}

// RecordHealthStatus records the health status of a provider
func RecordHealthStatus(provider ProviderType, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	GetSecretsMetrics().providerHealth.WithLabelValues(string(provider)).Set(value)
}
