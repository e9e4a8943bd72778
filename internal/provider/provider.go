// Package provider defines the data-provider contract between the admin
// surface and a CMS backend: the nine standard CRUD operations with their
// parameter and result shapes. Records are plain map trees so the shape
// layer stays schema-free.
package provider

import "context"

// Record is one flat resource record.
type Record = map[string]interface{}

// SortOrder is the direction of a list sort.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Sort names the field and direction a list is ordered by.
type Sort struct {
	Field string
	Order SortOrder
}

// Pagination selects a 1-indexed page of a given size.
type Pagination struct {
	Page    int
	PerPage int
}

// GetListParams carries pagination, sort, and filter for a list read.
type GetListParams struct {
	Pagination Pagination
	Sort       Sort
	Filter     map[string]interface{}
}

// GetListResult is a page of records plus the collection total.
type GetListResult struct {
	Data  []Record
	Total int
}

// GetOneParams identifies a single record.
type GetOneParams struct {
	ID interface{}
}

// GetOneResult is a single record.
type GetOneResult struct {
	Data Record
}

// GetManyParams identifies a batch of records by id.
type GetManyParams struct {
	IDs []interface{}
}

// GetManyResult is the batch of records found.
type GetManyResult struct {
	Data []Record
}

// GetManyReferenceParams selects records whose Target field references ID,
// with the usual list controls on top.
type GetManyReferenceParams struct {
	Target     string
	ID         interface{}
	Pagination Pagination
	Sort       Sort
	Filter     map[string]interface{}
}

// GetManyReferenceResult is a page of referencing records plus the total.
type GetManyReferenceResult struct {
	Data  []Record
	Total int
}

// CreateParams carries the record to create.
type CreateParams struct {
	Data Record
}

// CreateResult is the created record as echoed by the backend.
type CreateResult struct {
	Data Record
}

// UpdateParams carries the target id and the fields to write.
type UpdateParams struct {
	ID   interface{}
	Data Record
}

// UpdateResult is the updated record as echoed by the backend.
type UpdateResult struct {
	Data Record
}

// UpdateManyParams applies one record of changes to every listed id.
type UpdateManyParams struct {
	IDs  []interface{}
	Data Record
}

// UpdateManyResult lists the updated ids in input order.
type UpdateManyResult struct {
	IDs []interface{}
}

// DeleteParams identifies the record to delete.
type DeleteParams struct {
	ID interface{}
}

// DeleteResult is the deleted record as echoed by the backend.
type DeleteResult struct {
	Data Record
}

// DeleteManyParams identifies the records to delete.
type DeleteManyParams struct {
	IDs []interface{}
}

// DeleteManyResult lists the deleted ids in input order.
type DeleteManyResult struct {
	IDs []interface{}
}

// DataProvider is the CRUD contract the gateway, the caching wrapper, and
// tests compose. Implementations must be safe for concurrent use.
type DataProvider interface {
	// GetList returns one page of a resource collection.
	GetList(ctx context.Context, resource string, params GetListParams) (*GetListResult, error)

	// GetOne returns a single record by id.
	GetOne(ctx context.Context, resource string, params GetOneParams) (*GetOneResult, error)

	// GetMany returns the records matching a batch of ids.
	GetMany(ctx context.Context, resource string, params GetManyParams) (*GetManyResult, error)

	// GetManyReference returns the page of records whose target field
	// references the given id.
	GetManyReference(ctx context.Context, resource string, params GetManyReferenceParams) (*GetManyReferenceResult, error)

	// Create stores a new record and returns it.
	Create(ctx context.Context, resource string, params CreateParams) (*CreateResult, error)

	// Update writes fields of an existing record and returns it.
	Update(ctx context.Context, resource string, params UpdateParams) (*UpdateResult, error)

	// UpdateMany applies the same changes to every listed id. All writes
	// succeed or the whole operation fails.
	UpdateMany(ctx context.Context, resource string, params UpdateManyParams) (*UpdateManyResult, error)

	// Delete removes a record and returns the backend's echo of it.
	Delete(ctx context.Context, resource string, params DeleteParams) (*DeleteResult, error)

	// DeleteMany removes every listed id. All deletes succeed or the
	// whole operation fails.
	DeleteMany(ctx context.Context, resource string, params DeleteManyParams) (*DeleteManyResult, error)
}
