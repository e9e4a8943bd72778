package audit

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts audit events per action and outcome.
type Metrics struct {
	eventsTotal *prometheus.CounterVec
}

// NewMetrics creates audit metrics registered with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates audit metrics registered with the
// provided registerer so they surface on the gateway's /metrics endpoint.
func NewMetricsWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsgw",
				Subsystem: "audit",
				Name:      "events_total",
				Help:      "Total number of audit events",
			},
			[]string{"action", "outcome"},
		),
	}

	// Duplicate registration is harmless; the descriptors are identical.
	_ = registerer.Register(m.eventsTotal)

	m.Init()
	return m
}

// Init pre-populates the label combinations so the counter appears in
// /metrics output before the first event. Idempotent.
func (m *Metrics) Init() {
	if m.eventsTotal == nil {
		return
	}

	actions := []string{ActionCreate, ActionUpdate, ActionUpdateMany, ActionDelete, ActionDeleteMany}
	outcomes := []Outcome{OutcomeSuccess, OutcomeFailure}

	for _, action := range actions {
		for _, outcome := range outcomes {
			m.eventsTotal.WithLabelValues(action, string(outcome))
		}
	}
}

// RecordEvent counts one audit event.
func (m *Metrics) RecordEvent(action string, outcome Outcome) {
	if m.eventsTotal == nil {
		return
	}
	m.eventsTotal.WithLabelValues(action, string(outcome)).Inc()
}
