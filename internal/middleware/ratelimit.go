package middleware

import (
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// Rate limiter cleanup bounds.
const (
	// DefaultClientTTL is how long an idle client's limiter is kept.
	DefaultClientTTL = 5 * time.Minute

	// MinCleanupInterval is the lower bound for the cleanup sweep.
	MinCleanupInterval = 10 * time.Second

	// MaxCleanupInterval is the upper bound for the cleanup sweep.
	MaxCleanupInterval = time.Minute
)

// clientEntry pairs a limiter with its last access time so idle clients
// can be swept.
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token bucket limit, either shared or per client
// IP. Per-client entries are dropped after ClientTTL of inactivity.
type RateLimiter struct {
	limiter   *rate.Limiter
	perClient bool
	clients   map[string]*clientEntry
	mu        sync.Mutex
	rps       float64
	burst     int
	logger    observability.Logger
	clientTTL time.Duration
	stopCh    chan struct{}
	stopped   bool
}

// RateLimiterOption configures the rate limiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// WithClientTTL sets how long idle per-client limiters are kept.
func WithClientTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if ttl > 0 {
			rl.clientTTL = ttl
		}
	}
}

// NewRateLimiter creates a rate limiter allowing rps requests per second
// with the given burst.
func NewRateLimiter(rps float64, burst int, perClient bool, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		perClient: perClient,
		clients:   make(map[string]*clientEntry),
		rps:       rps,
		burst:     burst,
		logger:    observability.NopLogger(),
		clientTTL: DefaultClientTTL,
		stopCh:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// Allow reports whether a request from the client may proceed.
func (rl *RateLimiter) Allow(clientIP string) bool {
	if rl.perClient {
		return rl.allowPerClient(clientIP)
	}

	// UpdateConfig replaces the limiter, so the read needs the lock.
	rl.mu.Lock()
	limiter := rl.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// allowPerClient looks up or creates the client's limiter and refreshes
// its last access time under one lock acquisition.
func (rl *RateLimiter) allowPerClient(clientIP string) bool {
	now := time.Now()

	rl.mu.Lock()
	entry, exists := rl.clients[clientIP]
	if !exists {
		entry = &clientEntry{
			limiter:    rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
			lastAccess: now,
		}
		rl.clients[clientIP] = entry
	} else {
		entry.lastAccess = now
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// CleanupIdleClients drops per-client limiters idle longer than maxAge.
func (rl *RateLimiter) CleanupIdleClients(maxAge time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for clientIP, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > maxAge {
			delete(rl.clients, clientIP)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("swept idle rate limiter clients",
			observability.Int("removed", removed),
			observability.Int("remaining", len(rl.clients)),
		)
	}
}

// StartAutoCleanup starts the periodic idle-client sweep. The interval
// is half the client TTL, clamped to the cleanup bounds.
func (rl *RateLimiter) StartAutoCleanup() {
	rl.mu.Lock()
	if rl.stopped {
		rl.mu.Unlock()
		return
	}
	rl.mu.Unlock()

	go func() {
		interval := rl.clientTTL / 2
		if interval > MaxCleanupInterval {
			interval = MaxCleanupInterval
		}
		if interval < MinCleanupInterval {
			interval = MinCleanupInterval
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.CleanupIdleClients(rl.clientTTL)
			case <-rl.stopCh:
				return
			}
		}
	}()
}

// UpdateConfig retunes the rate and burst on config reload. The shared
// bucket is rebuilt and the per-client limiters are dropped, so the new
// settings take effect with a full burst instead of inheriting the old
// bucket's drained token count. The per-client mode itself cannot
// change at runtime.
func (rl *RateLimiter) UpdateConfig(cfg *config.RateLimitConfig) {
	if cfg == nil || !cfg.Enabled {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.rps = cfg.RequestsPerSecond
	rl.burst = cfg.Burst
	rl.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	rl.clients = make(map[string]*clientEntry)
}

// Stop ends the cleanup sweep. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.stopped {
		rl.stopped = true
		close(rl.stopCh)
	}
}

// clientCount returns the number of tracked per-client limiters.
func (rl *RateLimiter) clientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimit returns a middleware that rejects over-limit requests
// with 429.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			if !rl.Allow(clientIP) {
				rl.logger.Warn("rate limit exceeded",
					observability.String("client_ip", clientIP),
					observability.String("path", r.URL.Path),
				)

				GetMiddlewareMetrics().rateLimitRejected.Inc()

				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.Header().Set(HeaderRetryAfter, "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, ErrRateLimitExceeded)
				return
			}

			GetMiddlewareMetrics().rateLimitAllowed.Inc()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitFromConfig builds the rate limit middleware from gateway
// config. The returned limiter owns a cleanup goroutine; the caller
// stops it on shutdown. Disabled config yields a pass-through and a
// nil limiter.
func RateLimitFromConfig(
	cfg *config.RateLimitConfig,
	logger observability.Logger,
) (func(http.Handler) http.Handler, *RateLimiter) {
	if cfg == nil || !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}, nil
	}

	rl := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, cfg.PerClient,
		WithRateLimiterLogger(logger),
		WithClientTTL(cfg.ClientTTL.Duration()),
	)

	if cfg.PerClient {
		rl.StartAutoCleanup()
	}

	return RateLimit(rl), rl
}
