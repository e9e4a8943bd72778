package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avcmsgw/internal/audit"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// reloadMetrics holds Prometheus metrics for configuration reload
// operations. All collectors are registered with the gateway's custom
// registry so they appear on the /metrics endpoint.
type reloadMetrics struct {
	reloadTotal       *prometheus.CounterVec
	reloadLastSuccess prometheus.Gauge
	watcherRunning    prometheus.Gauge
}

// newReloadMetrics creates reload metrics and registers them with the
// provided Metrics instance's custom registry.
func newReloadMetrics(m *observability.Metrics) *reloadMetrics {
	rm := &reloadMetrics{
		reloadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cmsgw",
				Name:      "config_reload_total",
				Help:      "Total number of configuration reloads",
			},
			[]string{"result"},
		),
		reloadLastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cmsgw",
				Name:      "config_reload_last_success_timestamp",
				Help:      "Timestamp of last successful config reload",
			},
		),
		watcherRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cmsgw",
				Name:      "config_watcher_running",
				Help:      "Whether the config file watcher is running (1=running, 0=stopped)",
			},
		),
	}

	collectors := []prometheus.Collector{
		rm.reloadTotal,
		rm.reloadLastSuccess,
		rm.watcherRunning,
	}
	for _, c := range collectors {
		// Ignore duplicate registration errors (safe because descriptors
		// are identical when re-registered).
		_ = m.Registry().Register(c)
	}

	return rm
}

// ensureReloadMetrics returns the application's reload metrics, lazily
// initializing them with a standalone registry when the application was
// created without initApplication (e.g. in tests).
func ensureReloadMetrics(app *application) *reloadMetrics {
	if app.reloadMetrics != nil {
		return app.reloadMetrics
	}
	app.reloadMetrics = newReloadMetrics(observability.NewMetrics("cmsgw"))
	return app.reloadMetrics
}

// startConfigWatcher starts the configuration watcher. The watcher
// validates a changed file before handing it over, so the callback only
// sees configurations that already passed Validate.
func startConfigWatcher(
	app *application,
	configPath string,
	logger observability.Logger,
) *config.Watcher {
	rm := ensureReloadMetrics(app)

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Info("configuration changed, reloading")
		reloadComponents(app, newCfg, logger)
	},
		config.WithWatcherLogger(logger),
		config.WithErrorCallback(func(error) {
			rm.reloadTotal.WithLabelValues("error").Inc()
		}),
	)

	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		rm.watcherRunning.Set(0)
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		rm.watcherRunning.Set(0)
		return watcher
	}

	rm.watcherRunning.Set(1)
	return watcher
}

// reloadComponents applies the runtime-swappable parts of a new
// configuration: the log level, rate limiter tuning, and the audit
// trail sink. The listener, upstream client, cache backend, and the
// static middleware chain are built once at startup; changed sections
// there are called out so operators know a restart is needed.
func reloadComponents(app *application, newCfg *config.Config, logger observability.Logger) {
	rm := ensureReloadMetrics(app)

	if err := observability.SetLevel(logger, newCfg.Observability.Logging.Level); err != nil {
		logger.Warn("failed to apply log level", observability.Error(err))
	}

	if app.rateLimiter != nil && newCfg.RateLimit.Enabled {
		app.rateLimiter.UpdateConfig(&newCfg.RateLimit)
	}
	if app.config.RateLimit.Enabled != newCfg.RateLimit.Enabled {
		logger.Warn("rate limit enable/disable is NOT hot-reloaded; " +
			"restart the gateway to change it (rate and burst reload in place)")
	}

	reloadAuditLogger(app, newCfg, logger)

	if changed := restartOnlyChanges(app.config, newCfg); len(changed) > 0 {
		logger.Warn("changed sections are NOT hot-reloaded; restart the gateway to apply them",
			observability.String("sections", strings.Join(changed, ", ")),
		)
	}

	app.config = newCfg

	rm.reloadTotal.WithLabelValues("success").Inc()
	rm.reloadLastSuccess.SetToCurrentTime()

	logger.Info("configuration reloaded", observability.String("config", newCfg.String()))
}

// reloadAuditLogger replaces the audit trail sink when its configuration
// changed. The swap goes through the atomic wrapper so in-flight writes
// keep a consistent logger.
func reloadAuditLogger(app *application, newCfg *config.Config, logger observability.Logger) {
	if app.auditLogger == nil || !configSectionChanged(app.config.Audit, newCfg.Audit) {
		return
	}

	logger.Info("audit configuration changed, reloading audit logger")

	newAudit, err := audit.NewLogger(&newCfg.Audit,
		audit.WithLoggerLogger(logger),
		audit.WithLoggerMetrics(app.auditMetrics),
	)
	if err != nil {
		logger.Error("failed to rebuild audit logger, keeping previous sink",
			observability.Error(err),
		)
		return
	}

	if old := app.auditLogger.Swap(newAudit); old != nil {
		_ = old.Close()
	}
}

// restartOnlyChanges returns the names of changed sections that the
// running process cannot apply.
func restartOnlyChanges(oldCfg, newCfg *config.Config) []string {
	sections := []struct {
		name          string
		before, after interface{}
	}{
		{"server", oldCfg.Server, newCfg.Server},
		{"cms", oldCfg.CMS, newCfg.CMS},
		{"cache", oldCfg.Cache, newCfg.Cache},
		{"secrets", oldCfg.Secrets, newCfg.Secrets},
		{"cors", oldCfg.CORS, newCfg.CORS},
		{"security", oldCfg.Security, newCfg.Security},
		{"observability.metrics", oldCfg.Observability.Metrics, newCfg.Observability.Metrics},
		{"observability.tracing", oldCfg.Observability.Tracing, newCfg.Observability.Tracing},
	}

	var changed []string
	for _, s := range sections {
		if configSectionChanged(s.before, s.after) {
			changed = append(changed, s.name)
		}
	}
	return changed
}

// configSectionHash computes a SHA-256 hash of a configuration section
// for fast change detection.
func configSectionHash(v interface{}) ([sha256.Size]byte, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return [sha256.Size]byte{}, false
	}
	return sha256.Sum256(data), true
}

// configSectionChanged compares two configuration sections by hash,
// falling back to reflect.DeepEqual when marshaling fails.
func configSectionChanged(before, after interface{}) bool {
	beforeHash, beforeOK := configSectionHash(before)
	afterHash, afterOK := configSectionHash(after)
	if beforeOK && afterOK {
		return beforeHash != afterHash
	}
	return !reflect.DeepEqual(before, after)
}
