package provider

import (
	"context"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// InstrumentedProvider records one duration/status observation per
// provider operation.
type InstrumentedProvider struct {
	next    DataProvider
	metrics *observability.Metrics
}

var _ DataProvider = (*InstrumentedProvider)(nil)

// NewInstrumentedProvider wraps a provider with operation metrics.
func NewInstrumentedProvider(next DataProvider, metrics *observability.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{next: next, metrics: metrics}
}

func (p *InstrumentedProvider) GetList(ctx context.Context, resource string, params GetListParams) (*GetListResult, error) {
	return observe(p, resource, OpGetList, func() (*GetListResult, error) {
		return p.next.GetList(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) GetOne(ctx context.Context, resource string, params GetOneParams) (*GetOneResult, error) {
	return observe(p, resource, OpGetOne, func() (*GetOneResult, error) {
		return p.next.GetOne(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) GetMany(ctx context.Context, resource string, params GetManyParams) (*GetManyResult, error) {
	return observe(p, resource, OpGetMany, func() (*GetManyResult, error) {
		return p.next.GetMany(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) GetManyReference(ctx context.Context, resource string, params GetManyReferenceParams) (*GetManyReferenceResult, error) {
	return observe(p, resource, OpGetManyReference, func() (*GetManyReferenceResult, error) {
		return p.next.GetManyReference(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) Create(ctx context.Context, resource string, params CreateParams) (*CreateResult, error) {
	return observe(p, resource, OpCreate, func() (*CreateResult, error) {
		return p.next.Create(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) Update(ctx context.Context, resource string, params UpdateParams) (*UpdateResult, error) {
	return observe(p, resource, OpUpdate, func() (*UpdateResult, error) {
		return p.next.Update(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) UpdateMany(ctx context.Context, resource string, params UpdateManyParams) (*UpdateManyResult, error) {
	return observe(p, resource, OpUpdateMany, func() (*UpdateManyResult, error) {
		return p.next.UpdateMany(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) Delete(ctx context.Context, resource string, params DeleteParams) (*DeleteResult, error) {
	return observe(p, resource, OpDelete, func() (*DeleteResult, error) {
		return p.next.Delete(ctx, resource, params)
	})
}

func (p *InstrumentedProvider) DeleteMany(ctx context.Context, resource string, params DeleteManyParams) (*DeleteManyResult, error) {
	return observe(p, resource, OpDeleteMany, func() (*DeleteManyResult, error) {
		return p.next.DeleteMany(ctx, resource, params)
	})
}

func observe[T any](p *InstrumentedProvider, resource, operation string, fn func() (*T, error)) (*T, error) {
	start := time.Now()
	result, err := fn()
	if p.metrics != nil {
		p.metrics.RecordProviderOp(resource, operation, err, time.Since(start))
	}
	return result, err
}
