// Package health exposes liveness, health, and readiness probes for
// the gateway. Liveness is a static ok. Health reports version and
// uptime. Readiness runs the registered dependency checks (upstream
// CMS reachability, cache ping) and aggregates their results into
// healthy, degraded, or unhealthy; a draining gateway always reports
// unhealthy so load balancers stop routing before shutdown completes.
package health
