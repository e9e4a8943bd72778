package strapi

import (
	"context"
	"net/http"

	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

var _ provider.DataProvider = (*Client)(nil)

// GetList returns one page of a collection with full relation population.
func (c *Client) GetList(
	ctx context.Context,
	resource string,
	params provider.GetListParams,
) (*provider.GetListResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}

	env, err := c.send(ctx, provider.OpGetList, http.MethodGet,
		resourcePath(resource), listQuery(params), nil, "")
	if err != nil {
		return nil, err
	}

	records, err := recordsFromData(provider.OpGetList, env.data)
	if err != nil {
		return nil, err
	}
	total, err := totalFromMeta(provider.OpGetList, env.meta)
	if err != nil {
		return nil, err
	}

	return &provider.GetListResult{Data: records, Total: total}, nil
}

// GetOne returns a single record by id with full relation population.
func (c *Client) GetOne(
	ctx context.Context,
	resource string,
	params provider.GetOneParams,
) (*provider.GetOneResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if params.ID == nil {
		return nil, util.NewValidationError("id", params.ID, "id is required")
	}

	env, err := c.send(ctx, provider.OpGetOne, http.MethodGet,
		recordPath(resource, params.ID), oneQuery(), nil, "")
	if err != nil {
		return nil, err
	}

	record, err := recordFromData(provider.OpGetOne, env.data)
	if err != nil {
		return nil, err
	}

	return &provider.GetOneResult{Data: record}, nil
}

// GetMany returns the records matching a batch of ids. An empty id list
// short-circuits to an empty result without an upstream call.
func (c *Client) GetMany(
	ctx context.Context,
	resource string,
	params provider.GetManyParams,
) (*provider.GetManyResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if len(params.IDs) == 0 {
		return &provider.GetManyResult{Data: []provider.Record{}}, nil
	}

	env, err := c.send(ctx, provider.OpGetMany, http.MethodGet,
		resourcePath(resource), manyQuery(params.IDs), nil, "")
	if err != nil {
		return nil, err
	}

	records, err := recordsFromData(provider.OpGetMany, env.data)
	if err != nil {
		return nil, err
	}

	return &provider.GetManyResult{Data: records}, nil
}

// GetManyReference returns the page of records whose target field
// references the given id.
func (c *Client) GetManyReference(
	ctx context.Context,
	resource string,
	params provider.GetManyReferenceParams,
) (*provider.GetManyReferenceResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if params.Target == "" {
		return nil, util.NewValidationError("target", params.Target, "target field is required")
	}

	env, err := c.send(ctx, provider.OpGetManyReference, http.MethodGet,
		resourcePath(resource), manyReferenceQuery(params), nil, "")
	if err != nil {
		return nil, err
	}

	records, err := recordsFromData(provider.OpGetManyReference, env.data)
	if err != nil {
		return nil, err
	}
	total, err := totalFromMeta(provider.OpGetManyReference, env.meta)
	if err != nil {
		return nil, err
	}

	return &provider.GetManyReferenceResult{Data: records, Total: total}, nil
}
