package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vyrodovalexey/avcmsgw/internal/cache"
)

// HTTPCheck probes an HTTP endpoint and reports it reachable. Any
// response proves reachability; a 5xx downgrades to degraded because
// the upstream answered but is failing.
func HTTPCheck(url string, client *http.Client) CheckFunc {
	if client == nil {
		client = &http.Client{Timeout: DefaultCheckTimeout}
	}

	return func(ctx context.Context) Check {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}

		resp, err := client.Do(req)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= http.StatusInternalServerError {
			return Check{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("status %d", resp.StatusCode),
			}
		}

		return Check{Status: StatusHealthy}
	}
}

// CacheCheck pings the response cache. Cache failures degrade rather
// than fail readiness: reads fall back to the upstream when the cache
// is down.
func CacheCheck(c cache.Cache) CheckFunc {
	return func(ctx context.Context) Check {
		if c == nil {
			return Check{Status: StatusHealthy, Message: "cache disabled"}
		}

		if _, err := c.Exists(ctx, "health:ping"); err != nil {
			if errors.Is(err, cache.ErrCacheDisabled) {
				return Check{Status: StatusHealthy, Message: "cache disabled"}
			}
			return Check{Status: StatusDegraded, Message: err.Error()}
		}

		return Check{Status: StatusHealthy}
	}
}
