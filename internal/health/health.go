package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusDegraded indicates the service is degraded but operational.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
)

// DefaultCheckTimeout bounds a single readiness check invocation.
const DefaultCheckTimeout = 5 * time.Second

// Check is the result of an individual readiness check.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// CheckFunc performs a single readiness check.
type CheckFunc func(ctx context.Context) Check

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse is the body of the readiness endpoint.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Checker runs registered readiness checks and serves the probe
// endpoints.
type Checker struct {
	version      string
	startTime    time.Time
	checkTimeout time.Duration
	draining     atomic.Bool

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithCheckTimeout sets the per-check timeout for readiness probes.
func WithCheckTimeout(timeout time.Duration) CheckerOption {
	return func(c *Checker) {
		if timeout > 0 {
			c.checkTimeout = timeout
		}
	}
}

// NewChecker creates a health checker reporting the given version.
func NewChecker(version string, opts ...CheckerOption) *Checker {
	c := &Checker{
		version:      version,
		startTime:    time.Now(),
		checkTimeout: DefaultCheckTimeout,
		checks:       make(map[string]CheckFunc),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RegisterCheck registers a named readiness check.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a readiness check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// SetDraining marks the gateway as draining. While draining, readiness
// reports unhealthy regardless of check results.
func (c *Checker) SetDraining(draining bool) {
	c.draining.Store(draining)
}

// IsDraining reports whether the gateway is draining.
func (c *Checker) IsDraining() bool {
	return c.draining.Load()
}

// Health returns the health status.
func (c *Checker) Health() HealthResponse {
	return HealthResponse{
		Status:    StatusHealthy,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Readiness runs the registered checks and aggregates their results.
// A single unhealthy check makes the whole response unhealthy; a
// degraded check downgrades an otherwise healthy response.
func (c *Checker) Readiness(ctx context.Context) ReadinessResponse {
	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]Check),
		Timestamp: time.Now(),
	}

	if c.IsDraining() {
		response.Status = StatusUnhealthy
		response.Checks["draining"] = Check{
			Status:  StatusUnhealthy,
			Message: "shutting down",
		}
		return response
	}

	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	metrics := GetHealthMetrics()
	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
		check := fn(checkCtx)
		cancel()

		response.Checks[name] = check
		metrics.SetCheckStatus(name, check.Status == StatusHealthy)

		switch check.Status {
		case StatusUnhealthy:
			response.Status = StatusUnhealthy
		case StatusDegraded:
			if response.Status != StatusUnhealthy {
				response.Status = StatusDegraded
			}
		}
	}
	metrics.SetCheckStatus("overall", response.Status != StatusUnhealthy)

	return response
}

// HealthHandler returns the handler for the health endpoint.
func (c *Checker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		GetHealthMetrics().RecordProbe("health")
		writeJSON(w, http.StatusOK, c.Health())
	}
}

// ReadinessHandler returns the handler for the readiness endpoint.
// Unhealthy responses carry a 503 so load balancers drop the instance;
// degraded responses stay 200 because the gateway can still serve.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		GetHealthMetrics().RecordProbe("readiness")

		response := c.Readiness(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		writeJSON(w, statusCode, response)
	}
}

// LivenessHandler returns the handler for the liveness endpoint.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		GetHealthMetrics().RecordProbe("liveness")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
