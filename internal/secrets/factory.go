package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/vault"
)

// DefaultCacheTTL is how long resolved secrets stay cached by the
// CachingProvider wrapper.
const DefaultCacheTTL = 5 * time.Minute

// buildVaultProviderConfig maps the application Vault configuration onto
// the provider configuration.
func buildVaultProviderConfig(cfg *config.VaultConfig, logger observability.Logger) *VaultProviderConfig {
	providerCfg := &VaultProviderConfig{
		Address:         cfg.Address,
		Namespace:       cfg.Namespace,
		AuthMethod:      cfg.AuthMethod,
		Token:           cfg.Token,
		AppRoleID:       cfg.RoleID,
		AppRoleSecretID: cfg.SecretID,
		Role:            cfg.Role,
		MountPath:       cfg.MountPath,
		Timeout:         cfg.Timeout.Duration(),
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay.Duration(),
		Logger:          logger,
	}

	if cfg.TLSSkipVerify || cfg.CACert != "" {
		providerCfg.TLSConfig = &vault.TLSConfig{
			CACert:     cfg.CACert,
			SkipVerify: cfg.TLSSkipVerify,
		}
	}

	return providerCfg
}

// NewFromConfig creates a secrets provider from the application
// configuration. The returned provider is wrapped with caching unless
// secret resolution is disabled.
func NewFromConfig(ctx context.Context, cfg *config.SecretsConfig, logger observability.Logger) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}

	if logger == nil {
		logger = observability.NopLogger()
	}

	providerType, err := ValidateProviderType(cfg.Provider)
	if err != nil {
		return nil, err
	}

	logger.Info("creating secrets provider",
		observability.String("type", string(providerType)),
	)

	var provider Provider
	switch providerType {
	case ProviderTypeNoop:
		return NewNoopProvider(logger), nil

	case ProviderTypeEnv:
		provider, err = NewEnvProvider(&EnvProviderConfig{
			Prefix: cfg.EnvPrefix,
			Logger: logger,
		})

	case ProviderTypeLocal:
		provider, err = NewLocalProvider(&LocalProviderConfig{
			BasePath: cfg.LocalPath,
			Logger:   logger,
		})

	case ProviderTypeVault:
		provider, err = NewVaultProvider(ctx, buildVaultProviderConfig(&cfg.Vault, logger))

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderType, providerType)
	}
	if err != nil {
		return nil, err
	}

	return NewCachingProvider(provider, DefaultCacheTTL, logger), nil
}

// NoopProvider is a provider that does nothing
// Used when secrets functionality is disabled
type NoopProvider struct {
	logger observability.Logger
}

// NewNoopProvider creates a new no-op provider
func NewNoopProvider(logger observability.Logger) *NoopProvider {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &NoopProvider{logger: logger}
}

// Type returns the provider type
func (p *NoopProvider) Type() ProviderType {
	return ProviderTypeNoop
}

// GetSecret always returns not found
func (p *NoopProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	return nil, ErrSecretNotFound
}

// ListSecrets always returns empty list
func (p *NoopProvider) ListSecrets(ctx context.Context, path string) ([]string, error) {
	return []string{}, nil
}

// WriteSecret always returns read-only error
func (p *NoopProvider) WriteSecret(ctx context.Context, path string, data map[string][]byte) error {
	return ErrReadOnly
}

// DeleteSecret always returns read-only error
func (p *NoopProvider) DeleteSecret(ctx context.Context, path string) error {
	return ErrReadOnly
}

// IsReadOnly returns true
func (p *NoopProvider) IsReadOnly() bool {
	return true
}

// HealthCheck always returns nil
func (p *NoopProvider) HealthCheck(ctx context.Context) error {
	return nil
}

// Close does nothing
func (p *NoopProvider) Close() error {
	return nil
}

// CachingProvider wraps a provider with a TTL cache so repeated lookups
// of the same reference do not hit the backend on every config reload.
type CachingProvider struct {
	provider Provider
	mu       sync.RWMutex
	cache    map[string]*cachedSecret
	ttl      time.Duration
	logger   observability.Logger
}

type cachedSecret struct {
	secret    *Secret
	expiresAt time.Time
}

// NewCachingProvider creates a new caching provider wrapper
func NewCachingProvider(provider Provider, ttl time.Duration, logger observability.Logger) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CachingProvider{
		provider: provider,
		cache:    make(map[string]*cachedSecret),
		ttl:      ttl,
		logger:   logger,
	}
}

// Type returns the underlying provider type
func (p *CachingProvider) Type() ProviderType {
	return p.provider.Type()
}

// GetSecret retrieves a secret, using cache if available
func (p *CachingProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	p.mu.RLock()
	cached, ok := p.cache[path]
	p.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		p.logger.Debug("secrets cache hit", observability.String("path", path))
		return cached.secret, nil
	}

	secret, err := p.provider.GetSecret(ctx, path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[path] = &cachedSecret{
		secret:    secret,
		expiresAt: time.Now().Add(p.ttl),
	}
	p.mu.Unlock()

	return secret, nil
}

// ListSecrets delegates to the underlying provider
func (p *CachingProvider) ListSecrets(ctx context.Context, path string) ([]string, error) {
	return p.provider.ListSecrets(ctx, path)
}

// WriteSecret delegates to the underlying provider and invalidates cache
func (p *CachingProvider) WriteSecret(ctx context.Context, path string, data map[string][]byte) error {
	err := p.provider.WriteSecret(ctx, path, data)
	if err == nil {
		p.InvalidateCache(path)
	}
	return err
}

// DeleteSecret delegates to the underlying provider and invalidates cache
func (p *CachingProvider) DeleteSecret(ctx context.Context, path string) error {
	err := p.provider.DeleteSecret(ctx, path)
	if err == nil {
		p.InvalidateCache(path)
	}
	return err
}

// IsReadOnly delegates to the underlying provider
func (p *CachingProvider) IsReadOnly() bool {
	return p.provider.IsReadOnly()
}

// HealthCheck delegates to the underlying provider
func (p *CachingProvider) HealthCheck(ctx context.Context) error {
	return p.provider.HealthCheck(ctx)
}

// Close closes the underlying provider
func (p *CachingProvider) Close() error {
	return p.provider.Close()
}

// InvalidateCache removes a path from the cache
func (p *CachingProvider) InvalidateCache(path string) {
	p.mu.Lock()
	delete(p.cache, path)
	p.mu.Unlock()
}

// ClearCache clears all cached secrets
func (p *CachingProvider) ClearCache() {
	p.mu.Lock()
	p.cache = make(map[string]*cachedSecret)
	p.mu.Unlock()
}
