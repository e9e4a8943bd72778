package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/provider"
	"github.com/vyrodovalexey/avcmsgw/internal/transcode"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubProvider dispatches to per-operation functions so each test wires
// only the operation it exercises.
type stubProvider struct {
	getList          func(ctx context.Context, resource string, params provider.GetListParams) (*provider.GetListResult, error)
	getOne           func(ctx context.Context, resource string, params provider.GetOneParams) (*provider.GetOneResult, error)
	getMany          func(ctx context.Context, resource string, params provider.GetManyParams) (*provider.GetManyResult, error)
	getManyReference func(ctx context.Context, resource string, params provider.GetManyReferenceParams) (*provider.GetManyReferenceResult, error)
	create           func(ctx context.Context, resource string, params provider.CreateParams) (*provider.CreateResult, error)
	update           func(ctx context.Context, resource string, params provider.UpdateParams) (*provider.UpdateResult, error)
	updateMany       func(ctx context.Context, resource string, params provider.UpdateManyParams) (*provider.UpdateManyResult, error)
	deleteOne        func(ctx context.Context, resource string, params provider.DeleteParams) (*provider.DeleteResult, error)
	deleteMany       func(ctx context.Context, resource string, params provider.DeleteManyParams) (*provider.DeleteManyResult, error)
}

var _ provider.DataProvider = (*stubProvider)(nil)

func (s *stubProvider) GetList(ctx context.Context, resource string, params provider.GetListParams) (*provider.GetListResult, error) {
	return s.getList(ctx, resource, params)
}

func (s *stubProvider) GetOne(ctx context.Context, resource string, params provider.GetOneParams) (*provider.GetOneResult, error) {
	return s.getOne(ctx, resource, params)
}

func (s *stubProvider) GetMany(ctx context.Context, resource string, params provider.GetManyParams) (*provider.GetManyResult, error) {
	return s.getMany(ctx, resource, params)
}

func (s *stubProvider) GetManyReference(ctx context.Context, resource string, params provider.GetManyReferenceParams) (*provider.GetManyReferenceResult, error) {
	return s.getManyReference(ctx, resource, params)
}

func (s *stubProvider) Create(ctx context.Context, resource string, params provider.CreateParams) (*provider.CreateResult, error) {
	return s.create(ctx, resource, params)
}

func (s *stubProvider) Update(ctx context.Context, resource string, params provider.UpdateParams) (*provider.UpdateResult, error) {
	return s.update(ctx, resource, params)
}

func (s *stubProvider) UpdateMany(ctx context.Context, resource string, params provider.UpdateManyParams) (*provider.UpdateManyResult, error) {
	return s.updateMany(ctx, resource, params)
}

func (s *stubProvider) Delete(ctx context.Context, resource string, params provider.DeleteParams) (*provider.DeleteResult, error) {
	return s.deleteOne(ctx, resource, params)
}

func (s *stubProvider) DeleteMany(ctx context.Context, resource string, params provider.DeleteManyParams) (*provider.DeleteManyResult, error) {
	return s.deleteMany(ctx, resource, params)
}

func newTestEngine(p provider.DataProvider) *gin.Engine {
	return NewEngine(NewHandlers(p, nil))
}

func serve(engine *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	var body map[string]interface{}
	require.NoError(t, dec.Decode(&body))
	return body
}

func TestGetList(t *testing.T) {
	t.Parallel()

	var got provider.GetListParams
	stub := &stubProvider{
		getList: func(_ context.Context, resource string, params provider.GetListParams) (*provider.GetListResult, error) {
			assert.Equal(t, "posts", resource)
			got = params
			return &provider.GetListResult{
				Data: []provider.Record{
					{"id": json.Number("1"), "title": "first"},
					{"id": json.Number("2"), "title": "second"},
				},
				Total: 42,
			}, nil
		},
	}

	query := url.Values{}
	query.Set("page", "2")
	query.Set("perPage", "10")
	query.Set("sort", "title")
	query.Set("order", "DESC")
	query.Set("filter", `{"q":"cat"}`)

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/posts?"+query.Encode(), nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get(HeaderTotalCount))

	assert.Equal(t, provider.Pagination{Page: 2, PerPage: 10}, got.Pagination)
	assert.Equal(t, provider.Sort{Field: "title", Order: provider.SortDesc}, got.Sort)
	assert.Equal(t, "cat", got.Filter["q"])

	body := decodeBody(t, rec)
	assert.Equal(t, json.Number("42"), body["total"])
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestGetListPassesZeroDefaults(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getList: func(_ context.Context, _ string, params provider.GetListParams) (*provider.GetListResult, error) {
			assert.Zero(t, params.Pagination)
			assert.Zero(t, params.Sort)
			assert.Nil(t, params.Filter)
			return &provider.GetListResult{Data: []provider.Record{}, Total: 0}, nil
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/posts", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderTotalCount))
	assert.JSONEq(t, `{"data":[],"total":0}`, rec.Body.String())
}

func TestGetListInvalidParams(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getList: func(_ context.Context, _ string, _ provider.GetListParams) (*provider.GetListResult, error) {
			t.Error("provider must not be called on invalid params")
			return nil, nil
		},
	}
	engine := newTestEngine(stub)

	for _, target := range []string{
		"/api/posts?page=abc",
		"/api/posts?perPage=0",
		"/api/posts?sort=title&order=SIDEWAYS",
		"/api/posts?filter=%7Bbroken",
	} {
		rec := serve(engine, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		body := decodeBody(t, rec)
		assert.Contains(t, body, "error", target)
	}
}

func TestGetListUpstreamStatusPassthrough(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getList: func(_ context.Context, _ string, _ provider.GetListParams) (*provider.GetListResult, error) {
			return nil, util.NewUpstreamError("getList", http.StatusForbidden, `{"error":"forbidden"}`)
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/posts", nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "status 403")
}

func TestGetListMalformedUpstream(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getList: func(_ context.Context, _ string, _ provider.GetListParams) (*provider.GetListResult, error) {
			return nil, util.NewResponseError("getList", "missing pagination total")
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/posts", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetMany(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getMany: func(_ context.Context, resource string, params provider.GetManyParams) (*provider.GetManyResult, error) {
			assert.Equal(t, "tags", resource)
			assert.Equal(t, []interface{}{"1", "2", "3"}, params.IDs)
			return &provider.GetManyResult{Data: []provider.Record{
				{"id": json.Number("1")},
				{"id": json.Number("2")},
				{"id": json.Number("3")},
			}}, nil
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/tags?ids=1,2,3", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 3)
	assert.NotContains(t, body, "total")
}

func TestGetManyEmptyIDs(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getMany: func(_ context.Context, _ string, params provider.GetManyParams) (*provider.GetManyResult, error) {
			assert.Empty(t, params.IDs)
			return &provider.GetManyResult{Data: []provider.Record{}}, nil
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/tags?ids=", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestGetManyReference(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getManyReference: func(_ context.Context, resource string, params provider.GetManyReferenceParams) (*provider.GetManyReferenceResult, error) {
			assert.Equal(t, "comments", resource)
			assert.Equal(t, "post", params.Target)
			assert.Equal(t, "7", params.ID)
			assert.Equal(t, provider.Pagination{Page: 1, PerPage: 5}, params.Pagination)
			return &provider.GetManyReferenceResult{
				Data:  []provider.Record{{"id": json.Number("11")}},
				Total: 9,
			}, nil
		},
	}

	target := "/api/comments?target=post&targetId=7&page=1&perPage=5"
	rec := serve(newTestEngine(stub), http.MethodGet, target, nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Header().Get(HeaderTotalCount))
}

func TestGetManyReferenceRequiresBothParams(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{}
	engine := newTestEngine(stub)

	for _, target := range []string{
		"/api/comments?target=post",
		"/api/comments?targetId=7",
	} {
		rec := serve(engine, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetOne(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getOne: func(_ context.Context, resource string, params provider.GetOneParams) (*provider.GetOneResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, "7", params.ID)
			return &provider.GetOneResult{Data: provider.Record{
				"id":    json.Number("7"),
				"title": "hello",
			}}, nil
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/posts/7", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":7,"title":"hello"}}`, rec.Body.String())
}

func TestGetOneNotFound(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		getOne: func(_ context.Context, _ string, _ provider.GetOneParams) (*provider.GetOneResult, error) {
			return nil, util.NewUpstreamError("getOne", http.StatusNotFound, "")
		},
	}

	rec := serve(newTestEngine(stub), http.MethodGet, "/api/posts/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateJSON(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		create: func(_ context.Context, resource string, params provider.CreateParams) (*provider.CreateResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, "hello", params.Data["title"])
			assert.Equal(t, json.Number("123"), params.Data["views"])
			return &provider.CreateResult{Data: provider.Record{
				"id":    json.Number("77"),
				"title": "hello",
			}}, nil
		},
	}

	body := strings.NewReader(`{"title":"hello","views":123}`)
	rec := serve(newTestEngine(stub), http.MethodPost, "/api/posts", body, "application/json")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":77,"title":"hello"}}`, rec.Body.String())
}

func TestCreateInvalidJSON(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		create: func(_ context.Context, _ string, _ provider.CreateParams) (*provider.CreateResult, error) {
			t.Error("provider must not be called on a bad body")
			return nil, nil
		},
	}

	body := strings.NewReader(`not json`)
	rec := serve(newTestEngine(stub), http.MethodPost, "/api/posts", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, data string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("data", data))

	for field, content := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			`form-data; name="`+field+`"; filename="`+field+`.png"`)
		h.Set("Content-Type", "image/png")
		fw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateMultipart(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		create: func(_ context.Context, resource string, params provider.CreateParams) (*provider.CreateResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, "hello", params.Data["title"])

			file, ok := params.Data["cover"].(*transcode.File)
			require.True(t, ok, "cover must carry the pending upload")
			assert.Equal(t, "cover.png", file.Name)
			assert.Equal(t, "image/png", file.ContentType)

			content, err := io.ReadAll(file.Reader)
			require.NoError(t, err)
			assert.Equal(t, []byte("png-bytes"), content)

			return &provider.CreateResult{Data: provider.Record{"id": json.Number("1")}}, nil
		},
	}

	body, contentType := multipartBody(t, `{"title":"hello"}`,
		map[string][]byte{"cover": []byte("png-bytes")})
	rec := serve(newTestEngine(stub), http.MethodPost, "/api/posts", body, contentType)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateMultipartKeepsPersistedRefs(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		create: func(_ context.Context, _ string, params provider.CreateParams) (*provider.CreateResult, error) {
			items, ok := params.Data["images"].([]interface{})
			require.True(t, ok)
			require.Len(t, items, 2)

			persisted, ok := items[0].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, json.Number("5"), persisted["id"])

			_, ok = items[1].(*transcode.File)
			assert.True(t, ok)

			return &provider.CreateResult{Data: provider.Record{"id": json.Number("2")}}, nil
		},
	}

	data := `{"images":[{"id":5,"mime":"image/png"}]}`
	body, contentType := multipartBody(t, data, map[string][]byte{"images": []byte("x")})
	rec := serve(newTestEngine(stub), http.MethodPost, "/api/posts", body, contentType)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateMultipartMissingDataField(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("other", "x"))
	require.NoError(t, w.Close())

	rec := serve(newTestEngine(stub), http.MethodPost, "/api/posts", &buf, w.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "data")
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		update: func(_ context.Context, resource string, params provider.UpdateParams) (*provider.UpdateResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, "7", params.ID)
			assert.Equal(t, "renamed", params.Data["title"])
			return &provider.UpdateResult{Data: provider.Record{
				"id":    json.Number("7"),
				"title": "renamed",
			}}, nil
		},
	}

	body := strings.NewReader(`{"title":"renamed"}`)
	rec := serve(newTestEngine(stub), http.MethodPut, "/api/posts/7", body, "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":7,"title":"renamed"}}`, rec.Body.String())
}

func TestUpdateMany(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		updateMany: func(_ context.Context, resource string, params provider.UpdateManyParams) (*provider.UpdateManyResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, []interface{}{json.Number("1"), json.Number("2")}, params.IDs)
			assert.Equal(t, "published", params.Data["status"])
			return &provider.UpdateManyResult{IDs: params.IDs}, nil
		},
	}

	body := strings.NewReader(`{"ids":[1,2],"data":{"status":"published"}}`)
	rec := serve(newTestEngine(stub), http.MethodPut, "/api/posts", body, "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[1,2]}`, rec.Body.String())
}

func TestUpdateManyBatchFailure(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		updateMany: func(_ context.Context, _ string, _ provider.UpdateManyParams) (*provider.UpdateManyResult, error) {
			return nil, util.NewUpstreamError("update", http.StatusInternalServerError, "boom")
		},
	}

	body := strings.NewReader(`{"ids":[1,2],"data":{}}`)
	rec := serve(newTestEngine(stub), http.MethodPut, "/api/posts", body, "application/json")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		deleteOne: func(_ context.Context, resource string, params provider.DeleteParams) (*provider.DeleteResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, "7", params.ID)
			return &provider.DeleteResult{Data: provider.Record{"id": json.Number("7")}}, nil
		},
	}

	rec := serve(newTestEngine(stub), http.MethodDelete, "/api/posts/7", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":7}}`, rec.Body.String())
}

func TestDeleteMany(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{
		deleteMany: func(_ context.Context, resource string, params provider.DeleteManyParams) (*provider.DeleteManyResult, error) {
			assert.Equal(t, "posts", resource)
			assert.Equal(t, []interface{}{"a", "b"}, params.IDs)
			return &provider.DeleteManyResult{IDs: params.IDs}, nil
		},
	}

	body := strings.NewReader(`{"ids":["a","b"]}`)
	rec := serve(newTestEngine(stub), http.MethodDelete, "/api/posts", body, "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":["a","b"]}`, rec.Body.String())
}

func TestNoRoute(t *testing.T) {
	t.Parallel()

	rec := serve(newTestEngine(&stubProvider{}), http.MethodGet, "/nowhere", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec := serve(newTestEngine(&stubProvider{}), http.MethodPatch, "/api/posts", nil, "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"method not allowed"}`, rec.Body.String())
}
