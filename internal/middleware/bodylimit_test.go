package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	t.Parallel()

	handler := BodyLimit(16, observability.NopLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run for an oversized body")
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, ErrRequestEntityTooLarge, rec.Body.String())
}

func TestBodyLimitAllowsSmallBody(t *testing.T) {
	t.Parallel()

	var got []byte
	handler := BodyLimit(64, observability.NopLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			got = body
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"ok"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"title":"ok"}`, string(got))
}

func TestBodyLimitCapsUndeclaredLength(t *testing.T) {
	t.Parallel()

	var readErr error
	handler := BodyLimit(8, observability.NopLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		}),
	)

	// Undeclared length: the early Content-Length check cannot fire.
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(strings.Repeat("y", 32)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Error(t, readErr)
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}
