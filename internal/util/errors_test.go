package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		field          string
		message        string
		cause          error
		expectedString string
	}{
		{
			name:           "with field",
			field:          "cms.baseURL",
			message:        "base URL is required",
			cause:          nil,
			expectedString: "config error at cms.baseURL: base URL is required",
		},
		{
			name:           "without field",
			field:          "",
			message:        "invalid configuration",
			cause:          nil,
			expectedString: "config error: invalid configuration",
		},
		{
			name:           "with cause",
			field:          "server.port",
			message:        "invalid port",
			cause:          errors.New("port out of range"),
			expectedString: "config error at server.port: invalid port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err *ConfigError
			if tt.cause != nil {
				err = NewConfigErrorWithCause(tt.field, tt.message, tt.cause)
			} else {
				err = NewConfigError(tt.field, tt.message)
			}

			assert.Equal(t, tt.expectedString, err.Error())
			assert.Equal(t, tt.field, err.Field)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.cause, err.Unwrap())
			assert.True(t, errors.Is(err, ErrConfigInvalid))
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("title", 42, "must be a string")
	assert.Equal(t, "validation failed for title: must be a string", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))

	bare := NewValidationError("", nil, "body required")
	assert.Equal(t, "validation failed: body required", bare.Error())
}

func TestUpstreamError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		operation  string
		statusCode int
		matches    []error
		noMatch    []error
	}{
		{
			name:       "not found",
			operation:  "getOne",
			statusCode: http.StatusNotFound,
			matches:    []error{ErrNotFound},
			noMatch:    []error{ErrUpstreamUnavail},
		},
		{
			name:       "bad gateway",
			operation:  "getList",
			statusCode: http.StatusBadGateway,
			matches:    []error{ErrUpstreamUnavail},
			noMatch:    []error{ErrNotFound},
		},
		{
			name:       "service unavailable",
			operation:  "update",
			statusCode: http.StatusServiceUnavailable,
			matches:    []error{ErrUpstreamUnavail},
			noMatch:    []error{ErrNotFound},
		},
		{
			name:       "validation failure passes through unmatched",
			operation:  "create",
			statusCode: http.StatusBadRequest,
			matches:    nil,
			noMatch:    []error{ErrNotFound, ErrUpstreamUnavail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewUpstreamError(tt.operation, tt.statusCode, `{"error":{}}`)
			assert.Contains(t, err.Error(), tt.operation)
			for _, target := range tt.matches {
				assert.True(t, errors.Is(err, target))
			}
			for _, target := range tt.noMatch {
				assert.False(t, errors.Is(err, target))
			}
		})
	}
}

func TestResponseError(t *testing.T) {
	t.Parallel()

	err := NewResponseError("getList", "missing pagination total")
	assert.Equal(t, "malformed response during getList: missing pagination total", err.Error())
	assert.True(t, errors.Is(err, ErrMalformedResponse))

	wrapped := WrapError(err, "posts")
	assert.True(t, errors.Is(wrapped, ErrMalformedResponse))
	assert.Contains(t, wrapped.Error(), "posts")
}

func TestClientServerClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		isClient bool
		isServer bool
	}{
		{"invalid input", ErrInvalidInput, true, false},
		{"not found sentinel", ErrNotFound, true, false},
		{"upstream 404", NewUpstreamError("getOne", 404, ""), true, false},
		{"upstream 422", NewUpstreamError("create", 422, ""), true, false},
		{"upstream 500", NewUpstreamError("create", 500, ""), false, true},
		{"malformed response", NewResponseError("getList", "no total"), false, true},
		{"circuit open", ErrCircuitOpen, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.isClient, IsClientError(tt.err))
			assert.Equal(t, tt.isServer, IsServerError(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"upstream status passes through", NewUpstreamError("update", 409, ""), 409},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"malformed response", NewResponseError("getList", "no total"), http.StatusBadGateway},
		{"circuit open", ErrCircuitOpen, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
