package strapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// newTestClient starts a CMS stub and returns a client pointed at its
// /api prefix.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.CMSConfig{
		BaseURL: server.URL + "/api",
		Timeout: config.Duration(5 * time.Second),
	}
	client, err := New(cfg, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", contentTypeJSON)
	_, err := io.WriteString(w, body)
	assert.NoError(t, err)
}

func TestGetList(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/posts", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("populate"))
		assert.Equal(t, "title:ASC", q.Get("sort[0]"))
		assert.Equal(t, "2", q.Get("pagination[page]"))
		assert.Equal(t, "10", q.Get("pagination[pageSize]"))
		assert.Equal(t, "cat", q.Get("filters[title][$containsi]"))

		writeJSON(t, w, `{
			"data": [
				{"id": 1, "attributes": {
					"title": "Cats",
					"author": {"data": {"id": 7, "attributes": {"name": "Ann"}}}
				}},
				{"id": 2, "attributes": {
					"title": "More cats",
					"author": {"data": null}
				}}
			],
			"meta": {"pagination": {"page": 2, "pageSize": 10, "pageCount": 5, "total": 42}}
		}`)
	})

	client := newTestClient(t, handler)
	result, err := client.GetList(context.Background(), "posts", provider.GetListParams{
		Pagination: provider.Pagination{Page: 2, PerPage: 10},
		Sort:       provider.Sort{Field: "title", Order: provider.SortAsc},
		Filter:     map[string]interface{}{"title_q": "cat"},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, result.Total)
	require.Len(t, result.Data, 2)
	assert.Equal(t, json.Number("1"), result.Data[0]["id"])
	assert.Equal(t, "Cats", result.Data[0]["title"])
	assert.Equal(t, json.Number("7"), result.Data[0]["author"])
	assert.Equal(t, "", result.Data[1]["author"])
}

func TestGetListMissingTotal(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"data": [], "meta": {}}`)
	})

	client := newTestClient(t, handler)
	_, err := client.GetList(context.Background(), "posts", provider.GetListParams{})
	assert.ErrorIs(t, err, util.ErrMalformedResponse)
}

func TestGetListUpstreamError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": {"message": "boom"}}`)
	})

	client := newTestClient(t, handler)
	_, err := client.GetList(context.Background(), "posts", provider.GetListParams{})
	require.Error(t, err)

	var ue *util.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Contains(t, ue.Body, "boom")
	assert.Equal(t, provider.OpGetList, ue.Operation)
}

func TestGetListInvalidResource(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())
	_, err := client.GetList(context.Background(), "../admin", provider.GetListParams{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestGetOne(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/posts/7", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("populate"))

		writeJSON(t, w, `{"data": {"id": 7, "attributes": {
			"title": "Hello",
			"tags": {"data": [{"id": 1}, {"id": 2}]}
		}}}`)
	})

	client := newTestClient(t, handler)
	result, err := client.GetOne(context.Background(), "posts", provider.GetOneParams{ID: 7})
	require.NoError(t, err)

	assert.Equal(t, json.Number("7"), result.Data["id"])
	assert.Equal(t, "Hello", result.Data["title"])
	assert.Equal(t, []interface{}{json.Number("1"), json.Number("2")}, result.Data["tags"])
}

func TestGetOneNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": {"status": 404}}`)
	})

	client := newTestClient(t, handler)
	_, err := client.GetOne(context.Background(), "posts", provider.GetOneParams{ID: 99})
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestGetOneMissingID(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	client := newTestClient(t, handler)
	_, err := client.GetOne(context.Background(), "posts", provider.GetOneParams{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGetMany(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "7", q.Get("filters[id][$in][0]"))
		assert.Equal(t, "9", q.Get("filters[id][$in][1]"))

		writeJSON(t, w, `{"data": [
			{"id": 7, "attributes": {
				"title": "A",
				"gallery": {"data": [
					{"id": 3, "mime": "image/png", "url": "/uploads/3.png"},
					{"id": 4, "mime": "image/png", "url": "/uploads/4.png"}
				]}
			}},
			{"id": 9, "attributes": {"title": "B"}}
		]}`)
	})

	client := newTestClient(t, handler)
	result, err := client.GetMany(context.Background(), "posts", provider.GetManyParams{
		IDs: []interface{}{7, 9},
	})
	require.NoError(t, err)
	require.Len(t, result.Data, 2)

	// A file collection keeps full objects per element, not bare ids.
	gallery, ok := result.Data[0]["gallery"].([]interface{})
	require.True(t, ok)
	require.Len(t, gallery, 2)
	first, ok := gallery[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, json.Number("3"), first["id"])
	assert.Equal(t, "image/png", first["mime"])
}

func TestGetManyEmptyIDs(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	client := newTestClient(t, handler)
	result, err := client.GetMany(context.Background(), "posts", provider.GetManyParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGetManyReference(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comments", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "42", q.Get("filters[post][$eq]"))
		assert.Equal(t, "1", q.Get("pagination[page]"))
		assert.Equal(t, "25", q.Get("pagination[pageSize]"))

		writeJSON(t, w, `{
			"data": [{"id": 11, "attributes": {"body": "Nice"}}],
			"meta": {"pagination": {"total": 1}}
		}`)
	})

	client := newTestClient(t, handler)
	result, err := client.GetManyReference(context.Background(), "comments", provider.GetManyReferenceParams{
		Target:     "post",
		ID:         42,
		Pagination: provider.Pagination{Page: 1, PerPage: 25},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Nice", result.Data[0]["body"])
}

func TestGetManyReferenceMissingTarget(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())
	_, err := client.GetManyReference(context.Background(), "comments", provider.GetManyReferenceParams{ID: 42})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}
