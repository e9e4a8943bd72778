package gateway

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// parseListParams reads the list controls from the query string. Absent
// pagination values stay zero so the upstream's own defaults apply.
func parseListParams(c *gin.Context) (provider.GetListParams, error) {
	params := provider.GetListParams{}

	page, err := parsePositiveInt(c, "page")
	if err != nil {
		return params, err
	}
	perPage, err := parsePositiveInt(c, "perPage")
	if err != nil {
		return params, err
	}
	params.Pagination = provider.Pagination{Page: page, PerPage: perPage}

	sort, err := parseSort(c)
	if err != nil {
		return params, err
	}
	params.Sort = sort

	filter, err := parseFilter(c)
	if err != nil {
		return params, err
	}
	params.Filter = filter

	return params, nil
}

func parsePositiveInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, util.NewValidationError(name, raw, "must be a positive integer")
	}
	return n, nil
}

func parseSort(c *gin.Context) (provider.Sort, error) {
	field := c.Query("sort")
	if field == "" {
		return provider.Sort{}, nil
	}

	order := provider.SortAsc
	if raw := c.Query("order"); raw != "" {
		switch strings.ToUpper(raw) {
		case string(provider.SortAsc):
			order = provider.SortAsc
		case string(provider.SortDesc):
			order = provider.SortDesc
		default:
			return provider.Sort{}, util.NewValidationError("order", raw, "must be ASC or DESC")
		}
	}

	return provider.Sort{Field: field, Order: order}, nil
}

// parseFilter decodes the filter query parameter as a JSON object.
// Numbers decode as json.Number so their text survives into the
// upstream query untouched.
func parseFilter(c *gin.Context) (map[string]interface{}, error) {
	raw := c.Query("filter")
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var filter map[string]interface{}
	if err := dec.Decode(&filter); err != nil {
		return nil, util.NewValidationError("filter", raw, "must be a JSON object")
	}

	return filter, nil
}

// parseIDList splits a comma-separated ids parameter. Blank segments
// are dropped; an empty parameter yields an empty batch.
func parseIDList(raw string) []interface{} {
	parts := strings.Split(raw, ",")
	ids := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, part)
	}
	return ids
}

// decodeJSONBody decodes a request body into dst with number fidelity
// preserved.
func decodeJSONBody(c *gin.Context, dst interface{}) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return util.NewValidationError("body", nil, "must be valid JSON")
	}
	return nil
}
