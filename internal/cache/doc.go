// Package cache provides the response cache for CMS read operations.
//
// The cache stores serialized operation results keyed by resource,
// operation, and a digest of the request parameters. It supports:
//
//   - In-memory LRU cache with configurable size
//   - Redis-based distributed cache
//   - Configurable TTL per entry with jitter
//   - Per-resource invalidation via key prefixes
//   - Centralized retry logic with exponential backoff
//   - OpenTelemetry tracing for cache operations
//   - Prometheus metrics
//
// # Example Usage
//
//	cfg := &config.CacheConfig{
//	    Type: config.CacheTypeMemory,
//	    TTL:  config.Duration(time.Minute),
//	}
//
//	c, err := cache.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	key, err := cache.Key("posts", "getList", params)
//	err = c.Set(ctx, key, payload, 0)
//	value, err := c.Get(ctx, key)
//
//	// Drop every cached read for a resource after a write
//	err = c.DeleteByPrefix(ctx, cache.ResourcePrefix("posts"))
//
// # Thread Safety
//
// All cache implementations are safe for concurrent use.
package cache
