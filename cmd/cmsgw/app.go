package main

import (
	"context"
	"net/http"

	"github.com/vyrodovalexey/avcmsgw/internal/audit"
	"github.com/vyrodovalexey/avcmsgw/internal/cache"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/gateway"
	"github.com/vyrodovalexey/avcmsgw/internal/health"
	"github.com/vyrodovalexey/avcmsgw/internal/middleware"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/secrets"
	"github.com/vyrodovalexey/avcmsgw/internal/strapi"
)

// application holds all application components.
type application struct {
	server        *gateway.Server
	healthChecker *health.Checker
	metrics       *observability.Metrics
	reloadMetrics *reloadMetrics
	metricsServer *http.Server
	tracer        *observability.Tracer
	config        *config.Config
	rateLimiter   *middleware.RateLimiter
	auditLogger   *audit.AtomicLogger
	auditMetrics  *audit.Metrics
	cache         cache.Cache
	secrets       secrets.Provider
}

// initApplication initializes all application components.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	ctx := context.Background()

	metrics := observability.NewMetrics("cmsgw")
	metrics.SetBuildInfo(version, gitCommit)
	tracer := initTracer(cfg, logger)
	healthChecker := health.NewChecker(version)

	registerSubsystemMetrics(metrics, logger)
	initClientIPExtractor(cfg, logger)

	// Audit metrics are created once and shared across reloads so the
	// same counter instances stay registered when the trail sink is
	// swapped.
	auditMetrics := audit.NewMetricsWithRegisterer(metrics.Registry())
	auditMetrics.Init()
	auditLogger := audit.NewAtomicLogger(initAuditLogger(&cfg.Audit, logger, auditMetrics))

	secretsProvider := initSecretsProvider(ctx, cfg, logger)
	token := resolveCMSToken(ctx, cfg, secretsProvider, logger)
	resolveRedisPassword(ctx, cfg, secretsProvider, logger)

	cmsClient, err := strapi.New(&cfg.CMS,
		strapi.WithToken(token),
		strapi.WithLogger(logger),
		strapi.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("failed to create CMS client", observability.Error(err))
	}

	responseCache, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		logger.Fatal("failed to create cache", observability.Error(err))
	}

	dataProvider := buildProvider(cmsClient, responseCache, auditLogger, cfg, logger, metrics)

	registerHealthChecks(healthChecker, cfg, responseCache)

	handlers := gateway.NewHandlers(dataProvider, logger)
	chain := buildMiddlewareChain(gateway.NewEngine(handlers), cfg, logger, metrics, tracer)

	server := gateway.NewServer(cfg.Server, chain.handler, logger)

	return &application{
		server:        server,
		healthChecker: healthChecker,
		metrics:       metrics,
		reloadMetrics: newReloadMetrics(metrics),
		tracer:        tracer,
		config:        cfg,
		rateLimiter:   chain.rateLimiter,
		auditLogger:   auditLogger,
		auditMetrics:  auditMetrics,
		cache:         responseCache,
		secrets:       secretsProvider,
	}
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config, logger observability.Logger) *observability.Tracer {
	tc := cfg.Observability.Tracing

	tracerCfg := observability.TracerConfig{
		ServiceName:  tc.ServiceName,
		OTLPEndpoint: tc.OTLPEndpoint,
		SamplingRate: tc.SamplingRate,
		Enabled:      tc.Enabled,
	}
	if tracerCfg.ServiceName == "" {
		tracerCfg.ServiceName = "avcmsgw"
	}

	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		logger.Fatal("failed to initialize tracer", observability.Error(err))
	}

	return tracer
}

// initAuditLogger creates the write-operation audit trail.
func initAuditLogger(
	cfg *config.AuditConfig,
	logger observability.Logger,
	auditMetrics *audit.Metrics,
) audit.Logger {
	auditLogger, err := audit.NewLogger(cfg,
		audit.WithLoggerLogger(logger),
		audit.WithLoggerMetrics(auditMetrics),
	)
	if err != nil {
		logger.Fatal("failed to create audit logger", observability.Error(err))
	}
	return auditLogger
}

// initSecretsProvider creates the secrets provider.
func initSecretsProvider(ctx context.Context, cfg *config.Config, logger observability.Logger) secrets.Provider {
	secretsProvider, err := secrets.NewFromConfig(ctx, &cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("failed to create secrets provider", observability.Error(err))
	}
	return secretsProvider
}

// resolveCMSToken returns the upstream bearer token, preferring the
// secret reference over the literal config value.
func resolveCMSToken(
	ctx context.Context,
	cfg *config.Config,
	secretsProvider secrets.Provider,
	logger observability.Logger,
) string {
	if cfg.CMS.TokenSecret == "" {
		return cfg.CMS.Token
	}

	token, err := secrets.Resolve(ctx, secretsProvider, cfg.CMS.TokenSecret)
	if err != nil {
		logger.Fatal("failed to resolve CMS token secret",
			observability.String("ref", cfg.CMS.TokenSecret),
			observability.Error(err),
		)
	}
	return token
}

// resolveRedisPassword fills in the Redis password from its secret
// reference when one is configured.
func resolveRedisPassword(
	ctx context.Context,
	cfg *config.Config,
	secretsProvider secrets.Provider,
	logger observability.Logger,
) {
	if cfg.Cache.Type != config.CacheTypeRedis || cfg.Cache.Redis.PasswordSecret == "" {
		return
	}

	password, err := secrets.Resolve(ctx, secretsProvider, cfg.Cache.Redis.PasswordSecret)
	if err != nil {
		logger.Fatal("failed to resolve redis password secret",
			observability.String("ref", cfg.Cache.Redis.PasswordSecret),
			observability.Error(err),
		)
	}
	cfg.Cache.Redis.Password = password
}

// buildProvider assembles the data provider chain around the CMS client:
// response caching closest to the client, the audit trail above it so
// write outcomes include invalidation, and operation metrics outermost so
// they cover cache-served reads too.
func buildProvider(
	cmsClient *strapi.Client,
	responseCache cache.Cache,
	auditLogger *audit.AtomicLogger,
	cfg *config.Config,
	logger observability.Logger,
	metrics *observability.Metrics,
) provider.DataProvider {
	var p provider.DataProvider = cmsClient

	p = provider.NewCachingProvider(p, responseCache,
		provider.WithCacheTTL(cfg.Cache.TTL.Duration()),
		provider.WithCachingLogger(logger),
		provider.WithCachingMetrics(metrics),
	)
	p = provider.NewAuditingProvider(p, auditLogger)
	p = provider.NewInstrumentedProvider(p, metrics)

	return p
}

// registerHealthChecks registers the readiness probes: upstream CMS
// reachability and the cache backend.
func registerHealthChecks(checker *health.Checker, cfg *config.Config, responseCache cache.Cache) {
	checker.RegisterCheck("cms", health.HTTPCheck(cfg.CMS.BaseURL, nil))
	checker.RegisterCheck("cache", health.CacheCheck(responseCache))
}

// registerSubsystemMetrics initializes the subsystem metric singletons
// and registers them with the gateway's Prometheus registry. The leaf
// packages use promauto, which registers with the default global
// registry, while /metrics is served from the gateway's own registry.
// Without the explicit registration those series would be invisible
// there.
func registerSubsystemMetrics(metrics *observability.Metrics, logger observability.Logger) {
	registry := metrics.Registry()

	cacheMetrics := cache.GetCacheMetrics()
	cacheMetrics.MustRegister(registry)
	cacheMetrics.Init()

	mwMetrics := middleware.GetMiddlewareMetrics()
	mwMetrics.MustRegister(registry)

	hlMetrics := health.GetHealthMetrics()
	hlMetrics.MustRegister(registry)
	hlMetrics.Init()

	secretsMetrics := secrets.GetSecretsMetrics()
	secretsMetrics.MustRegister(registry)

	logger.Info("subsystem metrics registered with gateway registry")
}

// initClientIPExtractor creates and sets the global ClientIPExtractor
// from the configured trusted proxies list.
func initClientIPExtractor(cfg *config.Config, logger observability.Logger) {
	proxies := cfg.Server.TrustedProxies
	middleware.SetGlobalIPExtractor(middleware.NewClientIPExtractor(proxies))

	if len(proxies) > 0 {
		logger.Info("client IP extraction configured with trusted proxies",
			observability.Int("trusted_proxy_count", len(proxies)),
		)
	} else {
		logger.Info("client IP extraction using RemoteAddr only (no trusted proxies)")
	}
}
