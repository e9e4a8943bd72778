// Package util provides utility functions and types shared across the gateway.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., UpstreamError, ValidationError). Each
//     type implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrUpstreamUnavail   = errors.New("upstream unavailable")
	ErrCircuitOpen       = errors.New("circuit breaker open")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrConfigInvalid     = errors.New("invalid configuration")
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError wrapping a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is checks if the error matches the target.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// UpstreamError represents a non-2xx response from the CMS backend. The
// status code and a bounded excerpt of the body are preserved so callers
// can pass the failure through or inspect it.
type UpstreamError struct {
	StatusCode int
	Body       string
	Operation  string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("upstream error during %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("upstream error: status %d", e.StatusCode)
}

// Is checks if the error matches the target.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUpstreamUnavail:
		return e.StatusCode == http.StatusBadGateway ||
			e.StatusCode == http.StatusServiceUnavailable ||
			e.StatusCode == http.StatusGatewayTimeout
	}
	return false
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(operation string, statusCode int, body string) *UpstreamError {
	return &UpstreamError{Operation: operation, StatusCode: statusCode, Body: body}
}

// ResponseError represents a structurally invalid upstream payload, e.g. a
// list response without a pagination total.
type ResponseError struct {
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("malformed response during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("malformed response: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// NewResponseError creates a new ResponseError.
func NewResponseError(operation, message string) *ResponseError {
	return &ResponseError{Operation: operation, Message: message}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsClientError returns true for errors caused by the caller's input.
func IsClientError(err error) bool {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode >= 400 && ue.StatusCode < 500
	}
	return false
}

// IsServerError returns true for upstream or internal failures.
func IsServerError(err error) bool {
	if errors.Is(err, ErrUpstreamUnavail) || errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode >= 500
	}
	return false
}

// HTTPStatus maps an error to the status code the admin surface should
// return. Upstream statuses pass through; malformed payloads map to 502.
func HTTPStatus(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrUpstreamUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
