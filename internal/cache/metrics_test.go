package cache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCacheMetricsSingleton(t *testing.T) {
	m1 := GetCacheMetrics()
	m2 := GetCacheMetrics()
	assert.Same(t, m1, m2)
}

func TestCacheMetricsMustRegister(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := GetCacheMetrics()
	m.MustRegister(registry)
	m.Init()

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}

	assert.True(t, names["cmsgw_cache_hits_total"])
	assert.True(t, names["cmsgw_cache_misses_total"])
	assert.True(t, names["cmsgw_cache_size"])
	assert.True(t, names["cmsgw_cache_operation_duration_seconds"])
}

func TestCacheMetricsInitIdempotent(t *testing.T) {
	m := GetCacheMetrics()
	assert.NotPanics(t, func() {
		m.Init()
		m.Init()
	})
}
