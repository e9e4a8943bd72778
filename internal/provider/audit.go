package provider

import (
	"context"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/audit"
)

// AuditingProvider emits an audit event for every write operation. Read
// operations pass through untouched.
type AuditingProvider struct {
	next  DataProvider
	trail audit.Logger
}

var _ DataProvider = (*AuditingProvider)(nil)

// NewAuditingProvider wraps a provider with the audit trail.
func NewAuditingProvider(next DataProvider, trail audit.Logger) *AuditingProvider {
	if trail == nil {
		trail = audit.NewNoopLogger()
	}
	return &AuditingProvider{next: next, trail: trail}
}

func (p *AuditingProvider) GetList(ctx context.Context, resource string, params GetListParams) (*GetListResult, error) {
	return p.next.GetList(ctx, resource, params)
}

func (p *AuditingProvider) GetOne(ctx context.Context, resource string, params GetOneParams) (*GetOneResult, error) {
	return p.next.GetOne(ctx, resource, params)
}

func (p *AuditingProvider) GetMany(ctx context.Context, resource string, params GetManyParams) (*GetManyResult, error) {
	return p.next.GetMany(ctx, resource, params)
}

func (p *AuditingProvider) GetManyReference(ctx context.Context, resource string, params GetManyReferenceParams) (*GetManyReferenceResult, error) {
	return p.next.GetManyReference(ctx, resource, params)
}

// Create audits with the created record's id once the backend assigned it.
func (p *AuditingProvider) Create(ctx context.Context, resource string, params CreateParams) (*CreateResult, error) {
	start := time.Now()
	result, err := p.next.Create(ctx, resource, params)

	var ids []interface{}
	if err == nil && result != nil {
		ids = []interface{}{result.Data["id"]}
	}
	p.emit(ctx, audit.ActionCreate, resource, ids, start, err)
	return result, err
}

func (p *AuditingProvider) Update(ctx context.Context, resource string, params UpdateParams) (*UpdateResult, error) {
	start := time.Now()
	result, err := p.next.Update(ctx, resource, params)
	p.emit(ctx, audit.ActionUpdate, resource, []interface{}{params.ID}, start, err)
	return result, err
}

func (p *AuditingProvider) UpdateMany(ctx context.Context, resource string, params UpdateManyParams) (*UpdateManyResult, error) {
	start := time.Now()
	result, err := p.next.UpdateMany(ctx, resource, params)
	p.emit(ctx, audit.ActionUpdateMany, resource, params.IDs, start, err)
	return result, err
}

func (p *AuditingProvider) Delete(ctx context.Context, resource string, params DeleteParams) (*DeleteResult, error) {
	start := time.Now()
	result, err := p.next.Delete(ctx, resource, params)
	p.emit(ctx, audit.ActionDelete, resource, []interface{}{params.ID}, start, err)
	return result, err
}

func (p *AuditingProvider) DeleteMany(ctx context.Context, resource string, params DeleteManyParams) (*DeleteManyResult, error) {
	start := time.Now()
	result, err := p.next.DeleteMany(ctx, resource, params)
	p.emit(ctx, audit.ActionDeleteMany, resource, params.IDs, start, err)
	return result, err
}

func (p *AuditingProvider) emit(
	ctx context.Context,
	action, resource string,
	ids []interface{},
	start time.Time,
	err error,
) {
	event := audit.NewEvent(action, resource, ids, audit.OutcomeSuccess).
		WithDuration(time.Since(start)).
		WithError(err)
	p.trail.LogEvent(ctx, event)
}
