package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/cache"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// Cache lookup results as recorded in metrics.
const (
	cacheResultHit    = "hit"
	cacheResultMiss   = "miss"
	cacheResultBypass = "bypass"
	cacheResultError  = "error"
)

// CachingProvider serves read operations from a response cache and drops
// every cached entry of a resource after a successful write to it. Cache
// failures degrade to plain fetches; they never fail the operation.
type CachingProvider struct {
	next    DataProvider
	cache   cache.Cache
	ttl     time.Duration
	logger  observability.Logger
	metrics *observability.Metrics
}

var _ DataProvider = (*CachingProvider)(nil)

// CachingOption configures the caching provider.
type CachingOption func(*CachingProvider)

// WithCacheTTL overrides the cache backend's default entry lifetime.
func WithCacheTTL(ttl time.Duration) CachingOption {
	return func(p *CachingProvider) {
		p.ttl = ttl
	}
}

// WithCachingLogger sets the logger.
func WithCachingLogger(logger observability.Logger) CachingOption {
	return func(p *CachingProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCachingMetrics enables cache hit/miss metrics.
func WithCachingMetrics(m *observability.Metrics) CachingOption {
	return func(p *CachingProvider) {
		p.metrics = m
	}
}

// NewCachingProvider wraps a provider with the response cache.
func NewCachingProvider(next DataProvider, c cache.Cache, opts ...CachingOption) *CachingProvider {
	p := &CachingProvider{
		next:   next,
		cache:  c,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetList serves a collection page, cached per query shape.
func (p *CachingProvider) GetList(ctx context.Context, resource string, params GetListParams) (*GetListResult, error) {
	return cachedRead(ctx, p, resource, OpGetList, params, func() (*GetListResult, error) {
		return p.next.GetList(ctx, resource, params)
	})
}

// GetOne serves a single record, cached per id.
func (p *CachingProvider) GetOne(ctx context.Context, resource string, params GetOneParams) (*GetOneResult, error) {
	return cachedRead(ctx, p, resource, OpGetOne, params, func() (*GetOneResult, error) {
		return p.next.GetOne(ctx, resource, params)
	})
}

// GetMany serves a batch read, cached per id set.
func (p *CachingProvider) GetMany(ctx context.Context, resource string, params GetManyParams) (*GetManyResult, error) {
	return cachedRead(ctx, p, resource, OpGetMany, params, func() (*GetManyResult, error) {
		return p.next.GetMany(ctx, resource, params)
	})
}

// GetManyReference serves a related-list read, cached per query shape.
func (p *CachingProvider) GetManyReference(ctx context.Context, resource string, params GetManyReferenceParams) (*GetManyReferenceResult, error) {
	return cachedRead(ctx, p, resource, OpGetManyReference, params, func() (*GetManyReferenceResult, error) {
		return p.next.GetManyReference(ctx, resource, params)
	})
}

// Create forwards the write and invalidates the resource on success.
func (p *CachingProvider) Create(ctx context.Context, resource string, params CreateParams) (*CreateResult, error) {
	result, err := p.next.Create(ctx, resource, params)
	if err == nil {
		p.invalidate(ctx, resource)
	}
	return result, err
}

// Update forwards the write and invalidates the resource on success.
func (p *CachingProvider) Update(ctx context.Context, resource string, params UpdateParams) (*UpdateResult, error) {
	result, err := p.next.Update(ctx, resource, params)
	if err == nil {
		p.invalidate(ctx, resource)
	}
	return result, err
}

// UpdateMany forwards the batch write and invalidates the resource on
// success.
func (p *CachingProvider) UpdateMany(ctx context.Context, resource string, params UpdateManyParams) (*UpdateManyResult, error) {
	result, err := p.next.UpdateMany(ctx, resource, params)
	if err == nil {
		p.invalidate(ctx, resource)
	}
	return result, err
}

// Delete forwards the delete and invalidates the resource on success.
func (p *CachingProvider) Delete(ctx context.Context, resource string, params DeleteParams) (*DeleteResult, error) {
	result, err := p.next.Delete(ctx, resource, params)
	if err == nil {
		p.invalidate(ctx, resource)
	}
	return result, err
}

// DeleteMany forwards the batch delete and invalidates the resource on
// success.
func (p *CachingProvider) DeleteMany(ctx context.Context, resource string, params DeleteManyParams) (*DeleteManyResult, error) {
	result, err := p.next.DeleteMany(ctx, resource, params)
	if err == nil {
		p.invalidate(ctx, resource)
	}
	return result, err
}

// cachedRead returns the cached result for an operation or fetches and
// stores it. Decoding keeps numbers as json.Number so cached records
// match fresh ones exactly.
func cachedRead[T any](
	ctx context.Context,
	p *CachingProvider,
	resource, operation string,
	params interface{},
	fetch func() (*T, error),
) (*T, error) {
	key, err := cache.Key(resource, operation, params)
	if err != nil {
		p.record(cacheResultError)
		return fetch()
	}

	raw, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		var result T
		if decodeErr := decodeCached(raw, &result); decodeErr == nil {
			p.record(cacheResultHit)
			return &result, nil
		}
		// A corrupt entry falls through to a fresh fetch.
		p.record(cacheResultError)
	case errors.Is(err, cache.ErrCacheMiss):
		p.record(cacheResultMiss)
	case errors.Is(err, cache.ErrCacheDisabled):
		p.record(cacheResultBypass)
	default:
		p.record(cacheResultError)
		p.logger.Warn("cache read failed",
			observability.String("resource", resource),
			observability.String("operation", operation),
			observability.Error(err),
		)
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}

	if buf, marshalErr := json.Marshal(result); marshalErr == nil {
		if setErr := p.cache.Set(ctx, key, buf, p.ttl); setErr != nil &&
			!errors.Is(setErr, cache.ErrCacheDisabled) {
			p.logger.Warn("cache write failed",
				observability.String("resource", resource),
				observability.String("operation", operation),
				observability.Error(setErr),
			)
		}
	}
	return result, nil
}

func decodeCached(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// invalidate drops every cached entry of a resource.
func (p *CachingProvider) invalidate(ctx context.Context, resource string) {
	err := p.cache.DeleteByPrefix(ctx, cache.ResourcePrefix(resource))
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		p.logger.Warn("cache invalidation failed",
			observability.String("resource", resource),
			observability.Error(err),
		)
	}
}

func (p *CachingProvider) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordCacheResult(result)
	}
}
