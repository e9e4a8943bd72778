package strapi

import (
	"bytes"
	"encoding/json"

	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/transcode"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// envelope is the decoded CMS response wrapper: the data payload plus
// response metadata.
type envelope struct {
	data interface{}
	meta map[string]interface{}
}

// decodeEnvelope parses a response body into its data and meta parts.
// Numbers stay as json.Number so large ids and decimals survive the
// round trip exactly. An empty body decodes to an empty envelope.
func decodeEnvelope(operation string, raw []byte) (*envelope, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &envelope{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, &util.ResponseError{
			Operation: operation,
			Message:   "invalid JSON body",
			Cause:     err,
		}
	}

	env := &envelope{data: payload["data"]}
	if meta, ok := payload["meta"].(map[string]interface{}); ok {
		env.meta = meta
	}
	return env, nil
}

// recordFromData flattens a single-record data payload.
func recordFromData(operation string, data interface{}) (provider.Record, error) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, util.NewResponseError(operation, "missing record data")
	}
	return transcode.FlattenRecord(obj), nil
}

// recordsFromData flattens a record-list data payload.
func recordsFromData(operation string, data interface{}) ([]provider.Record, error) {
	items, ok := data.([]interface{})
	if !ok {
		return nil, util.NewResponseError(operation, "missing record list data")
	}
	records := make([]provider.Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, util.NewResponseError(operation, "list element is not an object")
		}
		records = append(records, transcode.FlattenRecord(obj))
	}
	return records, nil
}

// totalFromMeta extracts the collection total from meta.pagination.total.
// A list response without it is malformed.
func totalFromMeta(operation string, meta map[string]interface{}) (int, error) {
	pagination, ok := meta["pagination"].(map[string]interface{})
	if !ok {
		return 0, util.NewResponseError(operation, "missing meta.pagination.total")
	}
	switch total := pagination["total"].(type) {
	case json.Number:
		n, err := total.Int64()
		if err != nil {
			return 0, &util.ResponseError{
				Operation: operation,
				Message:   "meta.pagination.total is not an integer",
				Cause:     err,
			}
		}
		return int(n), nil
	case float64:
		return int(total), nil
	default:
		return 0, util.NewResponseError(operation, "missing meta.pagination.total")
	}
}
