package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/audit"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/middleware"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

func newReloadTestApp() *application {
	app := &application{
		config:      config.DefaultConfig(),
		auditLogger: audit.NewAtomicLogger(audit.NewNoopLogger()),
		metrics:     observability.NewMetrics("test"),
	}
	app.reloadMetrics = newReloadMetrics(app.metrics)
	return app
}

func TestConfigSectionChanged(t *testing.T) {
	t.Parallel()

	a := config.DefaultConfig()
	b := config.DefaultConfig()
	assert.False(t, configSectionChanged(a.Server, b.Server))

	b.Server.Port = 9999
	assert.True(t, configSectionChanged(a.Server, b.Server))
}

func TestConfigSectionHashUnmarshalable(t *testing.T) {
	t.Parallel()

	_, ok := configSectionHash(func() {})
	assert.False(t, ok)
}

func TestRestartOnlyChanges(t *testing.T) {
	t.Parallel()

	oldCfg := config.DefaultConfig()

	newCfg := config.DefaultConfig()
	assert.Empty(t, restartOnlyChanges(oldCfg, newCfg))

	newCfg.Server.Port = 9999
	newCfg.CMS.BaseURL = "http://other:1337/api"
	assert.Equal(t, []string{"server", "cms"}, restartOnlyChanges(oldCfg, newCfg))
}

func TestRestartOnlyChangesSkipsHotSections(t *testing.T) {
	t.Parallel()

	oldCfg := config.DefaultConfig()

	newCfg := config.DefaultConfig()
	newCfg.Audit.Output = "stderr"
	newCfg.RateLimit.RequestsPerSecond = 5
	newCfg.Observability.Logging.Level = "debug"

	assert.Empty(t, restartOnlyChanges(oldCfg, newCfg),
		"audit, rate limit and log level reload in place")
}

func TestReloadComponents(t *testing.T) {
	t.Parallel()

	app := newReloadTestApp()
	before := app.auditLogger.Load()

	newCfg := config.DefaultConfig()
	newCfg.Observability.Logging.Level = "debug"

	reloadComponents(app, newCfg, observability.NopLogger())

	assert.Same(t, newCfg, app.config)
	assert.Same(t, before, app.auditLogger.Load(), "unchanged audit config keeps the sink")
	assert.Equal(t, float64(1),
		testutil.ToFloat64(app.reloadMetrics.reloadTotal.WithLabelValues("success")))
}

func TestReloadComponentsSwapsAuditLogger(t *testing.T) {
	t.Parallel()

	app := newReloadTestApp()
	before := app.auditLogger.Load()

	newCfg := config.DefaultConfig()
	newCfg.Audit.Output = "stderr"

	reloadComponents(app, newCfg, observability.NopLogger())

	assert.NotSame(t, before, app.auditLogger.Load(), "changed audit config rebuilds the sink")
}

func TestReloadComponentsUpdatesRateLimiter(t *testing.T) {
	t.Parallel()

	app := newReloadTestApp()
	app.config.RateLimit.Enabled = true
	app.config.RateLimit.RequestsPerSecond = 1
	app.config.RateLimit.Burst = 1

	app.rateLimiter = middleware.NewRateLimiter(1, 1, false,
		middleware.WithRateLimiterLogger(observability.NopLogger()))
	defer app.rateLimiter.Stop()

	for app.rateLimiter.Allow("10.0.0.1") {
	}

	newCfg := config.DefaultConfig()
	newCfg.RateLimit.Enabled = true
	newCfg.RateLimit.RequestsPerSecond = 100
	newCfg.RateLimit.Burst = 10

	reloadComponents(app, newCfg, observability.NopLogger())

	assert.True(t, app.rateLimiter.Allow("10.0.0.1"), "new burst applies after reload")
}

func TestReloadAuditLoggerKeepsOldOnError(t *testing.T) {
	t.Parallel()

	app := newReloadTestApp()
	before := app.auditLogger.Load()

	newCfg := config.DefaultConfig()
	newCfg.Audit.Output = "file"
	newCfg.Audit.FilePath = ""

	reloadAuditLogger(app, newCfg, observability.NopLogger())

	assert.Same(t, before, app.auditLogger.Load(),
		"a sink that fails to build keeps the previous one")
}

func TestEnsureReloadMetrics(t *testing.T) {
	t.Parallel()

	app := &application{}
	rm := ensureReloadMetrics(app)
	require.NotNil(t, rm)
	assert.Same(t, rm, ensureReloadMetrics(app))
}

func TestStartConfigWatcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cmsgw.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 8090
cms:
  baseURL: http://cms.internal:1337/api
cache:
  type: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	app := newReloadTestApp()
	watcher := startConfigWatcher(app, path, observability.NopLogger())
	require.NotNil(t, watcher)
	defer watcher.Stop()

	assert.Equal(t, float64(1), testutil.ToFloat64(app.reloadMetrics.watcherRunning))
}

func TestStartConfigWatcherMissingFile(t *testing.T) {
	t.Parallel()

	app := newReloadTestApp()
	watcher := startConfigWatcher(app, filepath.Join(t.TempDir(), "missing.yaml"),
		observability.NopLogger())
	if watcher != nil {
		watcher.Stop()
	}

	assert.Equal(t, float64(0), testutil.ToFloat64(app.reloadMetrics.watcherRunning))
}
