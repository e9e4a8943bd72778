package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/audit"
	"github.com/vyrodovalexey/avcmsgw/internal/cache"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/gateway"
	"github.com/vyrodovalexey/avcmsgw/internal/health"
	"github.com/vyrodovalexey/avcmsgw/internal/middleware"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/secrets"
)

func TestShutdownComponents(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	logger := observability.NopLogger()

	responseCache, err := cache.New(&cfg.Cache, logger)
	require.NoError(t, err)

	secretsProvider, err := secrets.NewFromConfig(context.Background(), &cfg.Secrets, logger)
	require.NoError(t, err)

	app := &application{
		config:      cfg,
		tracer:      newTestTracer(t),
		auditLogger: audit.NewAtomicLogger(audit.NewNoopLogger()),
		cache:       responseCache,
		secrets:     secretsProvider,
		rateLimiter: middleware.NewRateLimiter(10, 10, true),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	shutdownComponents(ctx, app, logger)

	// A second rate limiter stop must not panic.
	app.rateLimiter.Stop()
}

func TestShutdownComponentsMinimal(t *testing.T) {
	t.Parallel()

	app := &application{
		config: config.DefaultConfig(),
		tracer: newTestTracer(t),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	shutdownComponents(ctx, app, observability.NopLogger())
}

func TestWaitForShutdownOnServerError(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	logger := observability.NopLogger()

	app := &application{
		config:        cfg,
		server:        gateway.NewServer(cfg.Server, nil, logger),
		healthChecker: health.NewChecker("test"),
		tracer:        newTestTracer(t),
	}

	serverErrCh := make(chan error, 1)
	serverErrCh <- errors.New("listen tcp: address already in use")

	done := make(chan struct{})
	go func() {
		waitForShutdown(app, nil, serverErrCh, logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waitForShutdown did not return after a server error")
	}

	assert.True(t, app.healthChecker.IsDraining(),
		"readiness flips before the listeners drain")
}
