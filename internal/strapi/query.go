package strapi

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/transcode"
)

// Query construction in the backend's bracket notation:
//
//	populate=*
//	sort[0]=title:ASC
//	pagination[page]=2&pagination[pageSize]=10
//	filters[title][$containsi]=cat
//	filters[id][$in][0]=7&filters[id][$in][1]=9

// listQuery builds the query for a collection read: full population plus
// sort, pagination, and translated filters.
func listQuery(params provider.GetListParams) url.Values {
	values := url.Values{}
	values.Set("populate", "*")
	encodeSort(values, params.Sort)
	encodePagination(values, params.Pagination)
	encodeFilters(values, transcode.TranslateFilter(params.Filter))
	return values
}

// oneQuery builds the query for a single-record read.
func oneQuery() url.Values {
	values := url.Values{}
	values.Set("populate", "*")
	return values
}

// manyQuery builds the query for a batch read: an id $in list holding the
// bare ids, one indexed bracket key per element.
func manyQuery(ids []interface{}) url.Values {
	values := url.Values{}
	values.Set("populate", "*")
	for i, id := range ids {
		values.Set("filters[id][$in]["+strconv.Itoa(i)+"]", formatValue(id))
	}
	return values
}

// manyReferenceQuery builds the query for a related-list read: the usual
// list controls plus an exact match on the referencing field.
func manyReferenceQuery(params provider.GetManyReferenceParams) url.Values {
	values := url.Values{}
	values.Set("populate", "*")
	encodeSort(values, params.Sort)
	encodePagination(values, params.Pagination)
	encodeFilters(values, transcode.TranslateFilter(params.Filter))
	values.Set("filters["+params.Target+"][$eq]", formatValue(params.ID))
	return values
}

func encodeSort(values url.Values, sort provider.Sort) {
	if sort.Field == "" {
		return
	}
	order := sort.Order
	if order == "" {
		order = provider.SortAsc
	}
	values.Set("sort[0]", sort.Field+":"+string(order))
}

func encodePagination(values url.Values, p provider.Pagination) {
	if p.Page > 0 {
		values.Set("pagination[page]", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		values.Set("pagination[pageSize]", strconv.Itoa(p.PerPage))
	}
}

// encodeFilters renders a translated filter tree into bracket keys. Nested
// objects extend the key path; arrays index each element.
func encodeFilters(values url.Values, filter map[string]interface{}) {
	for key, value := range filter {
		encodeFilterValue(values, "filters["+key+"]", value)
	}
}

func encodeFilterValue(values url.Values, prefix string, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		for key, nested := range val {
			encodeFilterValue(values, prefix+"["+key+"]", nested)
		}
	case []interface{}:
		for i, item := range val {
			encodeFilterValue(values, prefix+"["+strconv.Itoa(i)+"]", item)
		}
	default:
		values.Set(prefix, formatValue(v))
	}
}

// formatValue renders a scalar for a query parameter or path segment,
// preserving numeric text exactly.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
