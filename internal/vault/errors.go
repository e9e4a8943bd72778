package vault

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors for Vault operations.
var (
	// ErrNotAuthenticated indicates the client is not authenticated.
	ErrNotAuthenticated = errors.New("vault: client not authenticated")

	// ErrAuthenticationFailed indicates authentication failed.
	ErrAuthenticationFailed = errors.New("vault: authentication failed")

	// ErrSecretNotFound indicates the secret was not found.
	ErrSecretNotFound = errors.New("vault: secret not found")

	// ErrInvalidPath indicates an invalid secret path.
	ErrInvalidPath = errors.New("vault: invalid secret path")

	// ErrPermissionDenied indicates permission was denied.
	ErrPermissionDenied = errors.New("vault: permission denied")

	// ErrConnectionFailed indicates connection to Vault failed.
	ErrConnectionFailed = errors.New("vault: connection failed")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("vault: client closed")

	// ErrInvalidAuthConfig is returned when auth configuration is invalid.
	ErrInvalidAuthConfig = errors.New("vault: invalid auth configuration")
)

// ConfigurationError represents an invalid Vault configuration field.
type ConfigurationError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("vault configuration: %s", e.Message)
	}
	return fmt.Sprintf("vault configuration %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// NewConfigurationErrorWithCause creates a new ConfigurationError with a cause.
func NewConfigurationErrorWithCause(field, message string, cause error) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message, Cause: cause}
}

// VaultError represents a Vault operation error with additional context.
type VaultError struct {
	Op   string // operation that failed
	Path string // secret path if applicable
	Code int    // HTTP status code if applicable
	Err  error  // underlying error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vault %s on path %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *VaultError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for VaultError.
func (e *VaultError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewVaultError creates a new VaultError.
func NewVaultError(op, path string, err error) *VaultError {
	return &VaultError{Op: op, Path: path, Err: err}
}

// NewVaultErrorWithCode creates a new VaultError with an HTTP status code.
func NewVaultErrorWithCode(op, path string, err error, code int) *VaultError {
	return &VaultError{Op: op, Path: path, Err: err, Code: code}
}

// IsRetryable returns true if the error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var vaultErr *VaultError
	if errors.As(err, &vaultErr) && vaultErr.Code != 0 {
		// Retry on server errors (5xx) and rate limiting (429)
		return vaultErr.Code >= http.StatusInternalServerError ||
			vaultErr.Code == http.StatusTooManyRequests
	}

	return errors.Is(err, ErrConnectionFailed)
}

// IsNotFound returns true if the error indicates a missing secret.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrSecretNotFound) {
		return true
	}

	var vaultErr *VaultError
	if errors.As(err, &vaultErr) {
		return vaultErr.Code == http.StatusNotFound
	}

	return false
}

// IsAuthError returns true if the error is an authentication error.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrPermissionDenied) {
		return true
	}

	var vaultErr *VaultError
	if errors.As(err, &vaultErr) {
		return vaultErr.Code == http.StatusUnauthorized ||
			vaultErr.Code == http.StatusForbidden
	}

	return false
}
