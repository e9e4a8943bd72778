package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avcmsgw/internal/cache"
	"github.com/vyrodovalexey/avcmsgw/internal/config"
)

func TestHTTPCheckHealthy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	check := HTTPCheck(srv.URL, srv.Client())(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
}

func TestHTTPCheckClientErrorStillReachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	// A 4xx proves the upstream answered.
	check := HTTPCheck(srv.URL, srv.Client())(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
}

func TestHTTPCheckDegradedOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	check := HTTPCheck(srv.URL, srv.Client())(context.Background())
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "status 503", check.Message)
}

func TestHTTPCheckUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	check := HTTPCheck(url, &http.Client{Timeout: time.Second})(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestCacheCheckHealthy(t *testing.T) {
	t.Parallel()

	c, err := cache.New(&config.CacheConfig{
		Type: config.CacheTypeMemory,
		TTL:  config.Duration(time.Minute),
	}, nil)
	require.NoError(t, err)
	defer c.Close()

	check := CacheCheck(c)(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
}

func TestCacheCheckNilCache(t *testing.T) {
	t.Parallel()

	check := CacheCheck(nil)(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Equal(t, "cache disabled", check.Message)
}

func TestCacheCheckDisabledCache(t *testing.T) {
	t.Parallel()

	c, err := cache.New(&config.CacheConfig{Type: config.CacheTypeDisabled}, nil)
	require.NoError(t, err)

	check := CacheCheck(c)(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Equal(t, "cache disabled", check.Message)
}

type failingCache struct {
	err error
}

func (f *failingCache) Get(_ context.Context, _ string) ([]byte, error) { return nil, f.err }
func (f *failingCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return f.err
}
func (f *failingCache) Delete(_ context.Context, _ string) error         { return f.err }
func (f *failingCache) DeleteByPrefix(_ context.Context, _ string) error { return f.err }
func (f *failingCache) Exists(_ context.Context, _ string) (bool, error) { return false, f.err }
func (f *failingCache) Close() error                                     { return nil }

func TestCacheCheckDegradedOnError(t *testing.T) {
	t.Parallel()

	c := &failingCache{err: errors.New("connection refused")}

	check := CacheCheck(c)(context.Background())
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "connection refused", check.Message)
}
