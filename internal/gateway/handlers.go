package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/transcode"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// HeaderTotalCount carries the collection total on list responses.
const HeaderTotalCount = "X-Total-Count"

// Handlers exposes the data-provider operations as gin routes.
type Handlers struct {
	provider provider.DataProvider
	logger   observability.Logger
}

// NewHandlers creates the admin API handlers on top of a provider.
func NewHandlers(p provider.DataProvider, logger observability.Logger) *Handlers {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handlers{provider: p, logger: logger}
}

// List serves GET /api/:resource. The plain form is a paged list; an
// ids parameter turns it into a batch read, and target with targetId
// into a related-records read.
func (h *Handlers) List(c *gin.Context) {
	resource := c.Param("resource")

	if raw, ok := c.GetQuery("ids"); ok {
		h.getMany(c, resource, raw)
		return
	}

	_, hasTarget := c.GetQuery("target")
	_, hasTargetID := c.GetQuery("targetId")
	if hasTarget || hasTargetID {
		h.getManyReference(c, resource)
		return
	}

	h.getList(c, resource)
}

func (h *Handlers) getList(c *gin.Context, resource string) {
	params, err := parseListParams(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.provider.GetList(c.Request.Context(), resource, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondList(c, res.Data, res.Total)
}

func (h *Handlers) getMany(c *gin.Context, resource, rawIDs string) {
	params := provider.GetManyParams{IDs: parseIDList(rawIDs)}

	res, err := h.provider.GetMany(c.Request.Context(), resource, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data := res.Data
	if data == nil {
		data = []provider.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *Handlers) getManyReference(c *gin.Context, resource string) {
	target := c.Query("target")
	targetID := c.Query("targetId")
	if target == "" || targetID == "" {
		h.respondError(c, util.NewValidationError("target", target,
			"target and targetId are required together"))
		return
	}

	listParams, err := parseListParams(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	params := provider.GetManyReferenceParams{
		Target:     target,
		ID:         targetID,
		Pagination: listParams.Pagination,
		Sort:       listParams.Sort,
		Filter:     listParams.Filter,
	}

	res, err := h.provider.GetManyReference(c.Request.Context(), resource, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondList(c, res.Data, res.Total)
}

// GetOne serves GET /api/:resource/:id.
func (h *Handlers) GetOne(c *gin.Context) {
	params := provider.GetOneParams{ID: c.Param("id")}

	res, err := h.provider.GetOne(c.Request.Context(), c.Param("resource"), params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res.Data})
}

// Create serves POST /api/:resource. The body is either a JSON record
// or a multipart form with a data field plus file parts.
func (h *Handlers) Create(c *gin.Context) {
	record, cleanup, err := h.bindRecord(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer cleanup()

	res, err := h.provider.Create(c.Request.Context(), c.Param("resource"),
		provider.CreateParams{Data: record})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res.Data})
}

// Update serves PUT /api/:resource/:id with the same body forms as
// Create.
func (h *Handlers) Update(c *gin.Context) {
	record, cleanup, err := h.bindRecord(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer cleanup()

	params := provider.UpdateParams{ID: c.Param("id"), Data: record}
	res, err := h.provider.Update(c.Request.Context(), c.Param("resource"), params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res.Data})
}

// UpdateMany serves PUT /api/:resource with {"ids": [...], "data": {...}}.
func (h *Handlers) UpdateMany(c *gin.Context) {
	var body struct {
		IDs  []interface{}          `json:"ids"`
		Data map[string]interface{} `json:"data"`
	}
	if err := decodeJSONBody(c, &body); err != nil {
		h.respondError(c, err)
		return
	}

	params := provider.UpdateManyParams{IDs: body.IDs, Data: body.Data}
	res, err := h.provider.UpdateMany(c.Request.Context(), c.Param("resource"), params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondIDs(c, res.IDs)
}

// Delete serves DELETE /api/:resource/:id.
func (h *Handlers) Delete(c *gin.Context) {
	params := provider.DeleteParams{ID: c.Param("id")}

	res, err := h.provider.Delete(c.Request.Context(), c.Param("resource"), params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res.Data})
}

// DeleteMany serves DELETE /api/:resource with {"ids": [...]}.
func (h *Handlers) DeleteMany(c *gin.Context) {
	var body struct {
		IDs []interface{} `json:"ids"`
	}
	if err := decodeJSONBody(c, &body); err != nil {
		h.respondError(c, err)
		return
	}

	params := provider.DeleteManyParams{IDs: body.IDs}
	res, err := h.provider.DeleteMany(c.Request.Context(), c.Param("resource"), params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondIDs(c, res.IDs)
}

// bindRecord reads the write payload for Create and Update: a plain
// JSON record, or a multipart form carrying the record JSON in a data
// field and pending uploads as file parts named by attribute. The
// returned cleanup closes any opened upload handles and must run after
// the provider call consumed them.
func (h *Handlers) bindRecord(c *gin.Context) (provider.Record, func(), error) {
	noop := func() {}

	if c.ContentType() == "multipart/form-data" {
		return h.bindMultipartRecord(c)
	}

	var record provider.Record
	if err := decodeJSONBody(c, &record); err != nil {
		return nil, noop, err
	}
	if record == nil {
		return nil, noop, util.NewValidationError("body", nil, "must be a JSON object")
	}
	return record, noop, nil
}

func (h *Handlers) bindMultipartRecord(c *gin.Context) (provider.Record, func(), error) {
	noop := func() {}

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, noop, err
		}
		return nil, noop, util.NewValidationError("body", nil, "malformed multipart form")
	}

	values := form.Value["data"]
	if len(values) == 0 {
		return nil, noop, util.NewValidationError("data", nil,
			"multipart form requires a data field")
	}

	dec := json.NewDecoder(strings.NewReader(values[0]))
	dec.UseNumber()
	var record provider.Record
	if err := dec.Decode(&record); err != nil || record == nil {
		return nil, noop, util.NewValidationError("data", values[0], "must be a JSON object")
	}

	var closers []io.Closer
	cleanup := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}

	for field, headers := range form.File {
		files := make([]*transcode.File, 0, len(headers))
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				cleanup()
				return nil, noop, fmt.Errorf("open upload %q: %w", fh.Filename, err)
			}
			closers = append(closers, f)
			files = append(files, &transcode.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Reader:      f,
			})
		}
		attachFiles(record, field, files)
	}

	return record, cleanup, nil
}

// attachFiles merges pending uploads into the record field, keeping any
// already-persisted references the data JSON listed for it.
func attachFiles(record provider.Record, field string, files []*transcode.File) {
	items := make([]interface{}, 0, len(files))
	if existing, ok := record[field]; ok && existing != nil {
		if arr, ok := existing.([]interface{}); ok {
			items = append(items, arr...)
		} else {
			items = append(items, existing)
		}
	}
	for _, f := range files {
		items = append(items, f)
	}

	if len(items) == 1 {
		record[field] = items[0]
	} else {
		record[field] = items
	}
}

func (h *Handlers) respondList(c *gin.Context, data []provider.Record, total int) {
	if data == nil {
		data = []provider.Record{}
	}
	c.Header(HeaderTotalCount, strconv.Itoa(total))
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total})
}

func (h *Handlers) respondIDs(c *gin.Context, ids []interface{}) {
	if ids == nil {
		ids = []interface{}{}
	}
	c.JSON(http.StatusOK, gin.H{"data": ids})
}

// respondError maps an error to its HTTP status and a {"error": ...}
// body. Server-side failures get logged with request context; client
// mistakes only surface in the access log.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}

	status := util.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).Error("admin request failed",
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.Int("status", status),
			observability.Error(err),
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
