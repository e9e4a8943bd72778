package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// runGateway runs the gateway and handles shutdown.
func runGateway(app *application, configPath string, logger observability.Logger) {
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- app.server.Start()
	}()

	logger.Info("admin server started",
		observability.String("address", app.config.Server.Address()),
	)

	startMetricsServerIfEnabled(app, logger)
	watcher := startConfigWatcher(app, configPath, logger)

	waitForShutdown(app, watcher, serverErrCh, logger)
}

// waitForShutdown waits for a shutdown signal or a server failure and
// performs graceful shutdown.
func waitForShutdown(
	app *application,
	watcher *config.Watcher,
	serverErrCh <-chan error,
	logger observability.Logger,
) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("admin server failed", observability.Error(err))
		}
	}

	// Flip readiness before draining so load balancers stop routing
	// new requests here.
	app.healthChecker.SetDraining(true)

	// The watcher stops first so a late reload cannot race the
	// teardown below.
	if watcher != nil {
		_ = watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if app.metricsServer != nil {
		logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop admin server gracefully", observability.Error(err))
	}

	shutdownComponents(shutdownCtx, app, logger)

	logger.Info("gateway stopped")
}

// shutdownComponents releases the components that own goroutines or
// descriptors, after the listeners have drained.
func shutdownComponents(ctx context.Context, app *application, logger observability.Logger) {
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	if app.auditLogger != nil {
		if err := app.auditLogger.Close(); err != nil {
			logger.Error("failed to close audit logger", observability.Error(err))
		}
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			logger.Error("failed to close cache", observability.Error(err))
		}
	}

	if app.secrets != nil {
		if err := app.secrets.Close(); err != nil {
			logger.Error("failed to close secrets provider", observability.Error(err))
		}
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}
