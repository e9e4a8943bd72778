package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/transcode"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// Create stores a new record and returns the backend's echo of it.
func (c *Client) Create(
	ctx context.Context,
	resource string,
	params provider.CreateParams,
) (*provider.CreateResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}

	body, contentType, err := writePayload(params.Data)
	if err != nil {
		return nil, err
	}

	env, err := c.send(ctx, provider.OpCreate, http.MethodPost,
		resourcePath(resource), nil, body, contentType)
	if err != nil {
		return nil, err
	}

	record, err := recordFromData(provider.OpCreate, env.data)
	if err != nil {
		return nil, err
	}

	return &provider.CreateResult{Data: record}, nil
}

// Update writes fields of an existing record and returns the echo.
func (c *Client) Update(
	ctx context.Context,
	resource string,
	params provider.UpdateParams,
) (*provider.UpdateResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if params.ID == nil {
		return nil, util.NewValidationError("id", params.ID, "id is required")
	}

	body, contentType, err := writePayload(params.Data)
	if err != nil {
		return nil, err
	}

	env, err := c.send(ctx, provider.OpUpdate, http.MethodPut,
		recordPath(resource, params.ID), nil, body, contentType)
	if err != nil {
		return nil, err
	}

	record, err := recordFromData(provider.OpUpdate, env.data)
	if err != nil {
		return nil, err
	}

	return &provider.UpdateResult{Data: record}, nil
}

// UpdateMany applies the same changes to every listed id, one concurrent
// request per id. Any sub-request failure fails the whole batch with the
// first error in input order; result ids preserve input order.
func (c *Client) UpdateMany(
	ctx context.Context,
	resource string,
	params provider.UpdateManyParams,
) (*provider.UpdateManyResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if len(params.IDs) == 0 {
		return &provider.UpdateManyResult{IDs: []interface{}{}}, nil
	}

	errs := make([]error, len(params.IDs))
	var wg sync.WaitGroup
	for i, id := range params.IDs {
		wg.Add(1)
		go func(i int, id interface{}) {
			defer wg.Done()
			_, errs[i] = c.Update(ctx, resource, provider.UpdateParams{ID: id, Data: params.Data})
		}(i, id)
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}

	return &provider.UpdateManyResult{IDs: copyIDs(params.IDs)}, nil
}

// Delete removes a record and returns the backend's echo of it.
func (c *Client) Delete(
	ctx context.Context,
	resource string,
	params provider.DeleteParams,
) (*provider.DeleteResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if params.ID == nil {
		return nil, util.NewValidationError("id", params.ID, "id is required")
	}

	env, err := c.send(ctx, provider.OpDelete, http.MethodDelete,
		recordPath(resource, params.ID), nil, nil, "")
	if err != nil {
		return nil, err
	}

	record, err := recordFromData(provider.OpDelete, env.data)
	if err != nil {
		return nil, err
	}

	return &provider.DeleteResult{Data: record}, nil
}

// DeleteMany removes every listed id, one concurrent request per id, with
// the same all-or-nothing aggregation as UpdateMany.
func (c *Client) DeleteMany(
	ctx context.Context,
	resource string,
	params provider.DeleteManyParams,
) (*provider.DeleteManyResult, error) {
	if err := util.ValidateResourceName(resource); err != nil {
		return nil, err
	}
	if len(params.IDs) == 0 {
		return &provider.DeleteManyResult{IDs: []interface{}{}}, nil
	}

	errs := make([]error, len(params.IDs))
	var wg sync.WaitGroup
	for i, id := range params.IDs {
		wg.Add(1)
		go func(i int, id interface{}) {
			defer wg.Done()
			_, errs[i] = c.Delete(ctx, resource, provider.DeleteParams{ID: id})
		}(i, id)
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}

	return &provider.DeleteManyResult{IDs: copyIDs(params.IDs)}, nil
}

// firstError returns the first non-nil error in input order.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func copyIDs(ids []interface{}) []interface{} {
	out := make([]interface{}, len(ids))
	copy(out, ids)
	return out
}

// writePayload renders a flat record for transport: a {data: ...} JSON
// body when the record has no multimedia fields, multipart form data
// otherwise.
func writePayload(record provider.Record) ([]byte, string, error) {
	wb := transcode.BuildWriteBody(record)
	if !wb.Multipart {
		body, err := json.Marshal(map[string]interface{}{"data": wb.Data})
		if err != nil {
			return nil, "", fmt.Errorf("encode write body: %w", err)
		}
		return body, contentTypeJSON, nil
	}
	return encodeMultipart(wb)
}

// encodeMultipart renders a write body as multipart form data: a JSON
// "data" part plus one "files.<field>" part per pending upload.
func encodeMultipart(wb *transcode.WriteBody) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := json.Marshal(wb.Data)
	if err != nil {
		return nil, "", fmt.Errorf("encode multipart data part: %w", err)
	}
	if err := w.WriteField("data", string(data)); err != nil {
		return nil, "", fmt.Errorf("write multipart data part: %w", err)
	}

	for _, part := range wb.Files {
		fw, err := createFilePart(w, part)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %q: %w", part.Field, err)
		}
		if _, err := io.Copy(fw, part.File.Reader); err != nil {
			return nil, "", fmt.Errorf("write file part %q: %w", part.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// createFilePart opens a files.<field> part carrying the upload's own
// content type when it has one.
func createFilePart(w *multipart.Writer, part transcode.FilePart) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files.%s"; filename="%s"`,
		escapeQuotes(part.Field), escapeQuotes(part.File.Name)))
	contentType := part.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
