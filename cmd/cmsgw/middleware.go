package main

import (
	"net/http"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/middleware"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/security"
)

// middlewareChainResult holds the result of building the middleware chain.
type middlewareChainResult struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// buildMiddlewareChain builds the middleware chain around the admin
// router. The execution order (outermost executes first):
// Recovery -> RequestID -> Logging -> Tracing -> Metrics -> CORS ->
// SecurityHeaders -> RateLimit -> BodyLimit -> [router]
func buildMiddlewareChain(
	handler http.Handler,
	cfg *config.Config,
	logger observability.Logger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) middlewareChainResult {
	h := handler
	var rateLimiter *middleware.RateLimiter

	if cfg.Server.BodyLimitBytes > 0 {
		h = middleware.BodyLimit(cfg.Server.BodyLimitBytes, logger)(h)
	}

	if cfg.RateLimit.Enabled {
		var rateLimitMiddleware func(http.Handler) http.Handler
		rateLimitMiddleware, rateLimiter = middleware.RateLimitFromConfig(&cfg.RateLimit, logger)
		h = rateLimitMiddleware(h)
	}

	h = security.Headers(&cfg.Security)(h)
	h = middleware.CORSFromConfig(&cfg.CORS)(h)
	h = observability.MetricsMiddleware(metrics)(h)
	h = observability.TracingMiddleware(tracer)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.Recovery(logger)(h)

	return middlewareChainResult{
		handler:     h,
		rateLimiter: rateLimiter,
	}
}
