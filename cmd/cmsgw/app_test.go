package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/audit"
	"github.com/vyrodovalexey/avcmsgw/internal/cache"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/health"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/secrets"
	"github.com/vyrodovalexey/avcmsgw/internal/strapi"
)

func TestInitApplication(t *testing.T) {
	// Not parallel - sets the global client IP extractor.
	cfg := config.DefaultConfig()
	logger := observability.NopLogger()

	app := initApplication(cfg, logger)
	require.NotNil(t, app)

	assert.NotNil(t, app.server)
	assert.NotNil(t, app.healthChecker)
	assert.NotNil(t, app.metrics)
	assert.NotNil(t, app.reloadMetrics)
	assert.NotNil(t, app.tracer)
	assert.NotNil(t, app.auditLogger)
	assert.NotNil(t, app.auditMetrics)
	assert.NotNil(t, app.cache)
	assert.NotNil(t, app.secrets)
	assert.Same(t, cfg, app.config)
	assert.Nil(t, app.rateLimiter, "rate limiting is disabled by default")
	assert.Nil(t, app.metricsServer, "metrics server starts later in runGateway")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	shutdownComponents(ctx, app, logger)
}

func TestInitApplicationWithRateLimit(t *testing.T) {
	// Not parallel - sets the global client IP extractor.
	cfg := config.DefaultConfig()
	cfg.RateLimit.Enabled = true
	logger := observability.NopLogger()

	app := initApplication(cfg, logger)
	require.NotNil(t, app)
	assert.NotNil(t, app.rateLimiter)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	shutdownComponents(ctx, app, logger)
}

func TestBuildProviderCachesReads(t *testing.T) {
	t.Parallel()

	var upstreamHits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":7,"attributes":{"title":"hello"}}],"meta":{"pagination":{"page":1,"pageSize":25,"pageCount":1,"total":1}}}`)
	}))
	defer upstream.Close()

	cfg := config.DefaultConfig()
	cfg.CMS.BaseURL = upstream.URL

	cmsClient, err := strapi.New(&cfg.CMS, strapi.WithLogger(observability.NopLogger()))
	require.NoError(t, err)

	responseCache, err := cache.New(&cfg.Cache, observability.NopLogger())
	require.NoError(t, err)
	defer func() { _ = responseCache.Close() }()

	auditLogger := audit.NewAtomicLogger(audit.NewNoopLogger())

	p := buildProvider(cmsClient, responseCache, auditLogger, cfg,
		observability.NopLogger(), observability.NewMetrics("test"))

	first, err := p.GetList(context.Background(), "posts", provider.GetListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)
	require.Len(t, first.Data, 1)
	assert.Equal(t, "hello", first.Data[0]["title"])

	second, err := p.GetList(context.Background(), "posts", provider.GetListParams{})
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)

	assert.EqualValues(t, 1, upstreamHits.Load(), "second read should be served from cache")
}

func TestRegisterHealthChecks(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	cfg := config.DefaultConfig()
	cfg.CMS.BaseURL = upstream.URL

	responseCache, err := cache.New(&cfg.Cache, observability.NopLogger())
	require.NoError(t, err)
	defer func() { _ = responseCache.Close() }()

	checker := health.NewChecker("test")
	registerHealthChecks(checker, cfg, responseCache)

	resp := checker.Readiness(context.Background())
	assert.Equal(t, health.StatusHealthy, resp.Status)
	assert.Contains(t, resp.Checks, "cms")
	assert.Contains(t, resp.Checks, "cache")
}

func TestResolveCMSTokenLiteral(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.CMS.Token = "literal-token"

	token := resolveCMSToken(context.Background(), cfg, nil, observability.NopLogger())
	assert.Equal(t, "literal-token", token)
}

func TestResolveCMSTokenFromSecret(t *testing.T) {
	t.Setenv("CMSGW_SECRET_CMS_TOKEN", "resolved-token")

	cfg := config.DefaultConfig()
	cfg.CMS.Token = "literal-token"
	cfg.CMS.TokenSecret = "cms-token"
	cfg.Secrets.Provider = "env"

	secretsProvider := initSecretsProvider(context.Background(), cfg, observability.NopLogger())
	defer func() { _ = secretsProvider.Close() }()

	token := resolveCMSToken(context.Background(), cfg, secretsProvider, observability.NopLogger())
	assert.Equal(t, "resolved-token", token, "secret reference wins over the literal token")
}

func TestResolveRedisPassword(t *testing.T) {
	t.Setenv("CMSGW_SECRET_REDIS_PASSWORD", "s3cret")

	cfg := config.DefaultConfig()
	cfg.Cache.Type = config.CacheTypeRedis
	cfg.Cache.Redis.PasswordSecret = "redis-password"
	cfg.Secrets.Provider = "env"

	secretsProvider := initSecretsProvider(context.Background(), cfg, observability.NopLogger())
	defer func() { _ = secretsProvider.Close() }()

	resolveRedisPassword(context.Background(), cfg, secretsProvider, observability.NopLogger())
	assert.Equal(t, "s3cret", cfg.Cache.Redis.Password)
}

func TestResolveRedisPasswordSkippedForMemoryCache(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Cache.Redis.PasswordSecret = "redis-password"

	resolveRedisPassword(context.Background(), cfg, nil, observability.NopLogger())
	assert.Empty(t, cfg.Cache.Redis.Password, "memory cache does not resolve the redis secret")
}

func TestInitSecretsProviderDefault(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	secretsProvider := initSecretsProvider(context.Background(), cfg, observability.NopLogger())
	require.NotNil(t, secretsProvider)
	defer func() { _ = secretsProvider.Close() }()

	assert.Equal(t, secrets.ProviderTypeNoop, secretsProvider.Type())
}

func TestInitAuditLogger(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	auditLogger := initAuditLogger(&cfg.Audit, observability.NopLogger(), nil)
	require.NotNil(t, auditLogger)
	assert.NoError(t, auditLogger.Close())
}

func TestInitTracerDisabled(t *testing.T) {
	// initTracer calls os.Exit on error, so only the disabled happy path
	// is exercised here.
	cfg := config.DefaultConfig()

	tracer := initTracer(cfg, observability.NopLogger())
	require.NotNil(t, tracer)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tracer.Shutdown(ctx))
}

func TestInitClientIPExtractor(t *testing.T) {
	// Not parallel - replaces the global extractor.
	cfg := config.DefaultConfig()
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	initClientIPExtractor(cfg, observability.NopLogger())

	cfg.Server.TrustedProxies = nil
	initClientIPExtractor(cfg, observability.NopLogger())
}
