package provider

import (
	"context"
	"encoding/json"
	"sync"
)

// fakeProvider counts calls per operation and returns canned results, or
// fail when set.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	fail  error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: map[string]int{}}
}

func (f *fakeProvider) count(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail
}

func (f *fakeProvider) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProvider) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeProvider) GetList(_ context.Context, _ string, _ GetListParams) (*GetListResult, error) {
	if err := f.count(OpGetList); err != nil {
		return nil, err
	}
	return &GetListResult{
		Data:  []Record{{"id": json.Number("1"), "title": "A"}},
		Total: 1,
	}, nil
}

func (f *fakeProvider) GetOne(_ context.Context, _ string, params GetOneParams) (*GetOneResult, error) {
	if err := f.count(OpGetOne); err != nil {
		return nil, err
	}
	return &GetOneResult{Data: Record{"id": params.ID, "title": "A"}}, nil
}

func (f *fakeProvider) GetMany(_ context.Context, _ string, params GetManyParams) (*GetManyResult, error) {
	if err := f.count(OpGetMany); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(params.IDs))
	for _, id := range params.IDs {
		records = append(records, Record{"id": id})
	}
	return &GetManyResult{Data: records}, nil
}

func (f *fakeProvider) GetManyReference(_ context.Context, _ string, _ GetManyReferenceParams) (*GetManyReferenceResult, error) {
	if err := f.count(OpGetManyReference); err != nil {
		return nil, err
	}
	return &GetManyReferenceResult{
		Data:  []Record{{"id": json.Number("11")}},
		Total: 1,
	}, nil
}

func (f *fakeProvider) Create(_ context.Context, _ string, params CreateParams) (*CreateResult, error) {
	if err := f.count(OpCreate); err != nil {
		return nil, err
	}
	record := Record{"id": json.Number("77")}
	for k, v := range params.Data {
		record[k] = v
	}
	return &CreateResult{Data: record}, nil
}

func (f *fakeProvider) Update(_ context.Context, _ string, params UpdateParams) (*UpdateResult, error) {
	if err := f.count(OpUpdate); err != nil {
		return nil, err
	}
	record := Record{"id": params.ID}
	for k, v := range params.Data {
		record[k] = v
	}
	return &UpdateResult{Data: record}, nil
}

func (f *fakeProvider) UpdateMany(_ context.Context, _ string, params UpdateManyParams) (*UpdateManyResult, error) {
	if err := f.count(OpUpdateMany); err != nil {
		return nil, err
	}
	return &UpdateManyResult{IDs: params.IDs}, nil
}

func (f *fakeProvider) Delete(_ context.Context, _ string, params DeleteParams) (*DeleteResult, error) {
	if err := f.count(OpDelete); err != nil {
		return nil, err
	}
	return &DeleteResult{Data: Record{"id": params.ID}}, nil
}

func (f *fakeProvider) DeleteMany(_ context.Context, _ string, params DeleteManyParams) (*DeleteManyResult, error) {
	if err := f.count(OpDeleteMany); err != nil {
		return nil, err
	}
	return &DeleteManyResult{IDs: params.IDs}, nil
}

var _ DataProvider = (*fakeProvider)(nil)
