// Package secrets provides a unified interface for resolving sensitive
// configuration values such as the CMS API token and the Redis password,
// with support for environment variables, local files, and HashiCorp
// Vault as backends.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderType represents the type of secrets provider
type ProviderType string

const (
	// ProviderTypeVault uses HashiCorp Vault as the backend
	ProviderTypeVault ProviderType = "vault"
	// ProviderTypeLocal uses local files as the backend
	ProviderTypeLocal ProviderType = "local"
	// ProviderTypeEnv uses environment variables as the backend
	ProviderTypeEnv ProviderType = "env"
	// ProviderTypeNoop disables secret resolution
	ProviderTypeNoop ProviderType = "none"
)

// Common errors for secrets providers
var (
	// ErrSecretNotFound is returned when a secret is not found
	ErrSecretNotFound = errors.New("secret not found")
	// ErrProviderNotConfigured is returned when the provider is not properly configured
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrReadOnly is returned when attempting to write to a read-only provider
	ErrReadOnly = errors.New("provider is read-only")
	// ErrInvalidPath is returned when the secret path is invalid
	ErrInvalidPath = errors.New("invalid secret path")
	// ErrInvalidProviderType is returned when an unknown provider type is specified
	ErrInvalidProviderType = errors.New("invalid provider type")
	// ErrKeyNotFound is returned when a secret exists but lacks the requested key
	ErrKeyNotFound = errors.New("key not found in secret")
)

// Secret represents a secret with key-value data
type Secret struct {
	// Name is the name of the secret
	Name string
	// Data contains the secret key-value pairs
	Data map[string][]byte
	// Metadata contains additional metadata about the secret
	Metadata map[string]string
	// Version is the version of the secret (if supported by the provider)
	Version string
	// CreatedAt is when the secret was created
	CreatedAt *time.Time
	// UpdatedAt is when the secret was last updated
	UpdatedAt *time.Time
}

// GetString returns a string value from the secret data
func (s *Secret) GetString(key string) (string, bool) {
	if s == nil || s.Data == nil {
		return "", false
	}
	v, ok := s.Data[key]
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetBytes returns a byte slice value from the secret data
func (s *Secret) GetBytes(key string) ([]byte, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	v, ok := s.Data[key]
	return v, ok
}

// Provider is the interface for secrets providers
type Provider interface {
	// Type returns the provider type
	Type() ProviderType

	// GetSecret retrieves a secret by path/name
	// Path format depends on the provider:
	// - vault: "path/to/secret" under the configured KV v2 mount
	// - local: "secret-name" (maps to base-path/secret-name[.yaml|.json] or a directory)
	// - env: "secret-name" (maps to env var with configured prefix)
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// ListSecrets lists secrets at a path
	// Returns a list of secret names/paths
	ListSecrets(ctx context.Context, path string) ([]string, error)

	// WriteSecret writes a secret (if supported)
	// Returns ErrReadOnly if the provider doesn't support writes
	WriteSecret(ctx context.Context, path string, data map[string][]byte) error

	// DeleteSecret deletes a secret (if supported)
	// Returns ErrReadOnly if the provider doesn't support deletes
	DeleteSecret(ctx context.Context, path string) error

	// IsReadOnly returns true if provider doesn't support writes
	IsReadOnly() bool

	// HealthCheck checks provider connectivity
	// Returns nil if the provider is healthy
	HealthCheck(ctx context.Context) error

	// Close cleans up provider resources
	Close() error
}

// DefaultKey is the data key a secret reference resolves to when the
// reference does not name one explicitly.
const DefaultKey = "value"

// Resolve resolves a secret reference to a string value. A reference is
// either "path" or "path#key"; without an explicit key the value is read
// from the "value" key.
func Resolve(ctx context.Context, p Provider, ref string) (string, error) {
	if p == nil {
		return "", ErrProviderNotConfigured
	}
	if ref == "" {
		return "", ErrInvalidPath
	}

	path := ref
	key := DefaultKey
	if idx := lastIndexByte(ref, '#'); idx >= 0 {
		path = ref[:idx]
		key = ref[idx+1:]
	}
	if path == "" || key == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, ref)
	}

	secret, err := p.GetSecret(ctx, path)
	if err != nil {
		return "", err
	}

	value, ok := secret.GetString(key)
	if !ok {
		return "", fmt.Errorf("%w: key %s in %s", ErrKeyNotFound, key, path)
	}
	return value, nil
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// ValidateProviderType validates that the given string is a valid provider type
func ValidateProviderType(providerType string) (ProviderType, error) {
	switch ProviderType(providerType) {
	case ProviderTypeVault, ProviderTypeLocal, ProviderTypeEnv, ProviderTypeNoop:
		return ProviderType(providerType), nil
	default:
		return "", fmt.Errorf("%w: %s, must be one of: vault, local, env, none", ErrInvalidProviderType, providerType)
	}
}

// IsValidProviderType checks if the given string is a valid provider type
func IsValidProviderType(providerType string) bool {
	_, err := ValidateProviderType(providerType)
	return err == nil
}
