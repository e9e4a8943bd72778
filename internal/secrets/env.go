package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// DefaultEnvPrefix is the default prefix for environment variable secrets
const DefaultEnvPrefix = "CMSGW_SECRET_"

// EnvProviderConfig holds configuration for the environment variable secrets provider
type EnvProviderConfig struct {
	// Prefix is the prefix for environment variables
	// Default: "CMSGW_SECRET_"
	Prefix string
	// Logger is the logger instance
	Logger observability.Logger
}

// EnvProvider implements the Provider interface using environment variables
// Secrets are read from environment variables with a configurable prefix.
// Path format: "secret-name" maps to env var "{PREFIX}SECRET_NAME"
// For complex secrets with multiple keys, the env var value should be JSON-encoded.
type EnvProvider struct {
	prefix string
	logger observability.Logger
}

// NewEnvProvider creates a new environment variable secrets provider
func NewEnvProvider(cfg *EnvProviderConfig) (*EnvProvider, error) {
	if cfg == nil {
		cfg = &EnvProviderConfig{}
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &EnvProvider{
		prefix: prefix,
		logger: logger,
	}, nil
}

// Type returns the provider type
func (p *EnvProvider) Type() ProviderType {
	return ProviderTypeEnv
}

// normalizeEnvName converts a secret path to an environment variable name
// - Converts to uppercase
// - Replaces dashes, dots, and slashes with underscores
// - Adds the configured prefix
func (p *EnvProvider) normalizeEnvName(path string) string {
	name := strings.ToUpper(path)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "/", "_")

	return p.prefix + name
}

// GetSecret retrieves a secret from environment variables
// The path is converted to an environment variable name using the configured prefix.
// If the value is valid JSON, it's parsed as a map of key-value pairs.
// Otherwise, the entire value is stored under the key "value".
func (p *EnvProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "get", time.Since(start), nil)
	}()

	if path == "" {
		RecordOperation(p.Type(), "get", time.Since(start), ErrInvalidPath)
		return nil, ErrInvalidPath
	}

	envName := p.normalizeEnvName(path)

	p.logger.Debug("getting secret from environment variable",
		observability.String("path", path),
		observability.String("envVar", envName),
	)

	value, exists := os.LookupEnv(envName)
	if !exists {
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envName)
	}

	data := make(map[string][]byte)

	// Try to parse as JSON for complex secrets
	var jsonData map[string]interface{}
	if err := json.Unmarshal([]byte(value), &jsonData); err == nil {
		for k, v := range jsonData {
			switch val := v.(type) {
			case string:
				data[k] = []byte(val)
			default:
				jsonBytes, err := json.Marshal(val)
				if err != nil {
					p.logger.Warn("failed to marshal value to JSON",
						observability.String("key", k),
						observability.Error(err),
					)
					continue
				}
				data[k] = jsonBytes
			}
		}
	} else {
		// Not JSON, store as single value
		data[DefaultKey] = []byte(value)
	}

	return &Secret{
		Name: path,
		Data: data,
		Metadata: map[string]string{
			"source":  "environment",
			"env_var": envName,
		},
	}, nil
}

// ListSecrets lists all secrets available from environment variables
// Returns all environment variables that match the configured prefix
func (p *EnvProvider) ListSecrets(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "list", time.Since(start), nil)
	}()

	var secrets []string
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name := parts[0]
		if strings.HasPrefix(name, p.prefix) {
			// Remove prefix and convert back to path format
			secretName := strings.TrimPrefix(name, p.prefix)
			secretName = strings.ToLower(secretName)
			secretName = strings.ReplaceAll(secretName, "_", "-")
			secrets = append(secrets, secretName)
		}
	}

	p.logger.Debug("listed secrets from environment",
		observability.String("prefix", p.prefix),
		observability.Int("count", len(secrets)),
	)

	return secrets, nil
}

// WriteSecret is not supported for environment variables
func (p *EnvProvider) WriteSecret(ctx context.Context, path string, data map[string][]byte) error {
	return ErrReadOnly
}

// DeleteSecret is not supported for environment variables
func (p *EnvProvider) DeleteSecret(ctx context.Context, path string) error {
	return ErrReadOnly
}

// IsReadOnly returns true as environment variables are read-only
func (p *EnvProvider) IsReadOnly() bool {
	return true
}

// HealthCheck always returns nil as environment variables are always available
func (p *EnvProvider) HealthCheck(ctx context.Context) error {
	start := time.Now()
	RecordHealthStatus(p.Type(), true)
	RecordOperation(p.Type(), "health_check", time.Since(start), nil)
	return nil
}

// Close cleans up provider resources
func (p *EnvProvider) Close() error {
	return nil
}
