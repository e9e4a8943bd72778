package secrets

import (
	"context"
	"fmt"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/retry"
	"github.com/vyrodovalexey/avcmsgw/internal/vault"
)

// VaultProviderConfig holds configuration for the Vault secrets provider
type VaultProviderConfig struct {
	// Address is the Vault server address
	Address string
	// Namespace is the Vault namespace (Enterprise only)
	Namespace string
	// AuthMethod is the authentication method (token, approle, kubernetes)
	AuthMethod string
	// Token is the Vault token for token auth
	Token string
	// AppRoleID is the AppRole role ID
	AppRoleID string
	// AppRoleSecretID is the AppRole secret ID
	AppRoleSecretID string
	// Role is the Vault role for Kubernetes auth
	Role string
	// MountPath is the KV v2 secrets engine mount point
	MountPath string
	// TLSConfig holds TLS configuration
	TLSConfig *vault.TLSConfig
	// Timeout is the request timeout
	Timeout time.Duration
	// MaxRetries is the maximum number of retries
	MaxRetries int
	// RetryDelay is the initial wait time between retries
	RetryDelay time.Duration
	// Logger is the logger instance
	Logger observability.Logger
}

// VaultProvider implements the Provider interface using HashiCorp Vault
type VaultProvider struct {
	client     *vault.Client
	kv2        *vault.KV2Client
	mountPoint string
	logger     observability.Logger
}

// buildVaultClientConfig maps the provider configuration onto the Vault
// client configuration, applying defaults for unset fields.
func buildVaultClientConfig(cfg *VaultProviderConfig) (*vault.Config, error) {
	clientCfg := vault.DefaultConfig()
	clientCfg.Address = cfg.Address
	clientCfg.Namespace = cfg.Namespace
	clientCfg.TLS = cfg.TLSConfig

	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		retryCfg.InitialBackoff = cfg.RetryDelay
	}
	clientCfg.Retry = retryCfg

	switch vault.AuthMethod(cfg.AuthMethod) {
	case vault.AuthMethodToken, "":
		clientCfg.AuthMethod = vault.AuthMethodToken
		clientCfg.Token = cfg.Token
	case vault.AuthMethodAppRole:
		clientCfg.AuthMethod = vault.AuthMethodAppRole
		clientCfg.AppRole = &vault.AppRoleAuthConfig{
			RoleID:   cfg.AppRoleID,
			SecretID: cfg.AppRoleSecretID,
		}
	case vault.AuthMethodKubernetes:
		clientCfg.AuthMethod = vault.AuthMethodKubernetes
		clientCfg.Kubernetes = &vault.KubernetesAuthConfig{
			Role: cfg.Role,
		}
	default:
		return nil, fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}

	return clientCfg, nil
}

// NewVaultProvider creates a new Vault secrets provider
func NewVaultProvider(ctx context.Context, cfg *VaultProviderConfig) (*VaultProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: vault address is required", ErrProviderNotConfigured)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	clientCfg, err := buildVaultClientConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderNotConfigured, err)
	}

	client, err := vault.New(clientCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if err := client.Authenticate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to authenticate with vault: %w", err)
	}

	mountPoint := cfg.MountPath
	if mountPoint == "" {
		mountPoint = "secret"
	}
	kv2 := vault.NewKV2Client(client, mountPoint, logger)

	logger.Info("vault secrets provider initialized",
		observability.String("address", cfg.Address),
		observability.String("authMethod", cfg.AuthMethod),
		observability.String("mountPoint", mountPoint),
	)

	return &VaultProvider{
		client:     client,
		kv2:        kv2,
		mountPoint: mountPoint,
		logger:     logger,
	}, nil
}

// Type returns the provider type
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// GetSecret retrieves a secret from Vault
func (p *VaultProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "get", time.Since(start), nil)
	}()

	if path == "" {
		RecordOperation(p.Type(), "get", time.Since(start), ErrInvalidPath)
		return nil, ErrInvalidPath
	}

	p.logger.Debug("getting secret from vault",
		observability.String("path", path),
	)

	vaultSecret, err := p.kv2.Get(ctx, path)
	if err != nil {
		RecordOperation(p.Type(), "get", time.Since(start), err)
		if vault.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		return nil, fmt.Errorf("failed to read secret from vault: %w", err)
	}

	data := make(map[string][]byte)
	for k, v := range vaultSecret.Data {
		if strVal, ok := v.(string); ok {
			data[k] = []byte(strVal)
		}
	}

	return &Secret{
		Name:     path,
		Data:     data,
		Metadata: map[string]string{"source": "vault", "mount": p.mountPoint},
	}, nil
}

// ListSecrets lists secrets at a path in Vault
func (p *VaultProvider) ListSecrets(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "list", time.Since(start), nil)
	}()

	secrets, err := p.kv2.List(ctx, path)
	if err != nil {
		RecordOperation(p.Type(), "list", time.Since(start), err)
		return nil, fmt.Errorf("failed to list secrets from vault: %w", err)
	}

	return secrets, nil
}

// WriteSecret writes a secret to Vault
func (p *VaultProvider) WriteSecret(ctx context.Context, path string, data map[string][]byte) error {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "write", time.Since(start), nil)
	}()

	if path == "" {
		RecordOperation(p.Type(), "write", time.Since(start), ErrInvalidPath)
		return ErrInvalidPath
	}

	secretData := make(map[string]interface{})
	for k, v := range data {
		secretData[k] = string(v)
	}

	if err := p.kv2.Put(ctx, path, secretData); err != nil {
		RecordOperation(p.Type(), "write", time.Since(start), err)
		return fmt.Errorf("failed to write secret to vault: %w", err)
	}

	p.logger.Info("wrote secret to vault",
		observability.String("path", path),
	)

	return nil
}

// DeleteSecret deletes a secret from Vault
func (p *VaultProvider) DeleteSecret(ctx context.Context, path string) error {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "delete", time.Since(start), nil)
	}()

	if path == "" {
		RecordOperation(p.Type(), "delete", time.Since(start), ErrInvalidPath)
		return ErrInvalidPath
	}

	if err := p.kv2.Delete(ctx, path); err != nil {
		RecordOperation(p.Type(), "delete", time.Since(start), err)
		return fmt.Errorf("failed to delete secret from vault: %w", err)
	}

	p.logger.Info("deleted secret from vault",
		observability.String("path", path),
	)

	return nil
}

// IsReadOnly returns false as Vault supports writes
func (p *VaultProvider) IsReadOnly() bool {
	return false
}

// HealthCheck checks Vault connectivity
func (p *VaultProvider) HealthCheck(ctx context.Context) error {
	start := time.Now()

	status, err := p.client.Health(ctx)
	if err != nil {
		RecordHealthStatus(p.Type(), false)
		RecordOperation(p.Type(), "health_check", time.Since(start), err)
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if status.Sealed {
		err := fmt.Errorf("vault is sealed")
		RecordHealthStatus(p.Type(), false)
		RecordOperation(p.Type(), "health_check", time.Since(start), err)
		return err
	}

	RecordHealthStatus(p.Type(), true)
	RecordOperation(p.Type(), "health_check", time.Since(start), nil)
	return nil
}

// Close cleans up provider resources
func (p *VaultProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
