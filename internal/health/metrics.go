package health

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics holds Prometheus metrics for the probe endpoints.
type HealthMetrics struct {
	probesTotal *prometheus.CounterVec
	checkStatus *prometheus.GaugeVec
}

var (
	healthMetricsInstance *HealthMetrics
	healthMetricsOnce     sync.Once
)

// GetHealthMetrics returns the singleton health metrics instance.
func GetHealthMetrics() *HealthMetrics {
	healthMetricsOnce.Do(func() {
		healthMetricsInstance = &HealthMetrics{
			probesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cmsgw",
					Subsystem: "health",
					Name:      "probes_total",
					Help:      "Total number of probe requests served",
				},
				[]string{"type"},
			),
			checkStatus: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "cmsgw",
					Subsystem: "health",
					Name:      "check_status",
					Help:      "Current readiness check status (1=healthy, 0=not healthy)",
				},
				[]string{"check"},
			),
		}
	})
	return healthMetricsInstance
}

// RecordProbe counts a served probe request by type.
func (m *HealthMetrics) RecordProbe(probeType string) {
	m.probesTotal.WithLabelValues(probeType).Inc()
}

// SetCheckStatus records the latest result of a named readiness check.
func (m *HealthMetrics) SetCheckStatus(check string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.checkStatus.WithLabelValues(check).Set(value)
}

// MustRegister registers the health collectors with the given registry.
// promauto registers with the default global registry, but the gateway
// serves /metrics from its own; this bridges the two.
func (m *HealthMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.probesTotal,
		m.checkStatus,
	)
}

// Init pre-populates common label combinations so the series appear in
// /metrics output immediately after startup.
func (m *HealthMetrics) Init() {
	for _, probeType := range []string{"liveness", "health", "readiness"} {
		m.probesTotal.WithLabelValues(probeType)
	}
	m.checkStatus.WithLabelValues("overall")
}
