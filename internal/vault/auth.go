package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	vaultapi "github.com/hashicorp/vault/api"
)

const (
	// DefaultServiceAccountTokenPath is the standard Kubernetes service
	// account token path, not a hardcoded credential.
	//nolint:gosec // G101
	DefaultServiceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

	// DefaultKubernetesMountPath is the default mount path for Kubernetes auth.
	DefaultKubernetesMountPath = "kubernetes"

	// DefaultAppRoleMountPath is the default mount path for AppRole auth.
	DefaultAppRoleMountPath = "approle"
)

// Authenticator performs a Vault login and returns the auth secret.
type Authenticator interface {
	// Login authenticates with Vault and returns the auth secret.
	Login(ctx context.Context, api *vaultapi.Client) (*vaultapi.Secret, error)

	// Name returns the name of the authentication method.
	Name() string
}

// newAuthenticator builds the Authenticator matching the configured method.
func newAuthenticator(cfg *Config) (Authenticator, error) {
	switch cfg.AuthMethod {
	case AuthMethodToken:
		return NewTokenAuth(cfg.Token)
	case AuthMethodAppRole:
		if cfg.AppRole == nil {
			return nil, fmt.Errorf("%w: appRole configuration is required", ErrInvalidAuthConfig)
		}
		return NewAppRoleAuth(cfg.AppRole.RoleID, cfg.AppRole.SecretID, cfg.AppRole.GetMountPath())
	case AuthMethodKubernetes:
		if cfg.Kubernetes == nil {
			return nil, fmt.Errorf("%w: kubernetes configuration is required", ErrInvalidAuthConfig)
		}
		return NewKubernetesAuth(cfg.Kubernetes.Role, cfg.Kubernetes.GetMountPath(), cfg.Kubernetes.GetTokenPath())
	default:
		return nil, fmt.Errorf("%w: unsupported auth method %q", ErrInvalidAuthConfig, cfg.AuthMethod)
	}
}

// TokenAuth implements token-based authentication.
type TokenAuth struct {
	token string
}

// NewTokenAuth creates a new token authentication method.
func NewTokenAuth(token string) (*TokenAuth, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidAuthConfig)
	}
	return &TokenAuth{token: token}, nil
}

// Login implements Authenticator.
func (a *TokenAuth) Login(ctx context.Context, api *vaultapi.Client) (*vaultapi.Secret, error) {
	if api == nil {
		return nil, fmt.Errorf("token auth failed: vault client is nil")
	}

	api.SetToken(a.token)

	// Verify the token by looking up self
	secret, err := api.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("token auth failed: %w", err)
	}

	// Synthesize an auth response shaped like the login endpoints return
	authSecret := &vaultapi.Secret{
		Auth: &vaultapi.SecretAuth{
			ClientToken: a.token,
			Renewable:   false,
		},
	}

	if secret != nil && secret.Data != nil {
		// Vault may return ttl as float64 or json.Number
		switch ttl := secret.Data["ttl"].(type) {
		case float64:
			authSecret.Auth.LeaseDuration = int(ttl)
		case json.Number:
			if v, err := ttl.Int64(); err == nil {
				authSecret.Auth.LeaseDuration = int(v)
			}
		}

		if renewable, ok := secret.Data["renewable"].(bool); ok {
			authSecret.Auth.Renewable = renewable
		}
	}

	return authSecret, nil
}

// Name implements Authenticator.
func (a *TokenAuth) Name() string {
	return "token"
}

// AppRoleAuth implements AppRole authentication.
type AppRoleAuth struct {
	roleID    string
	secretID  string
	mountPath string
}

// NewAppRoleAuth creates a new AppRole authentication method.
func NewAppRoleAuth(roleID, secretID, mountPath string) (*AppRoleAuth, error) {
	if roleID == "" {
		return nil, fmt.Errorf("%w: roleID is required", ErrInvalidAuthConfig)
	}
	if secretID == "" {
		return nil, fmt.Errorf("%w: secretID is required", ErrInvalidAuthConfig)
	}
	if mountPath == "" {
		mountPath = DefaultAppRoleMountPath
	}

	return &AppRoleAuth{
		roleID:    roleID,
		secretID:  secretID,
		mountPath: mountPath,
	}, nil
}

// Login implements Authenticator.
func (a *AppRoleAuth) Login(ctx context.Context, api *vaultapi.Client) (*vaultapi.Secret, error) {
	if api == nil {
		return nil, fmt.Errorf("approle auth failed: vault client is nil")
	}

	path := fmt.Sprintf("auth/%s/login", a.mountPath)
	data := map[string]interface{}{
		"role_id":   a.roleID,
		"secret_id": a.secretID,
	}

	secret, err := api.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("approle auth failed: %w", err)
	}

	return secret, nil
}

// Name implements Authenticator.
func (a *AppRoleAuth) Name() string {
	return "approle"
}

// KubernetesAuth implements Kubernetes ServiceAccount authentication.
type KubernetesAuth struct {
	role               string
	mountPath          string
	serviceAccountPath string
}

// NewKubernetesAuth creates a new Kubernetes authentication method.
func NewKubernetesAuth(role, mountPath, tokenPath string) (*KubernetesAuth, error) {
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", ErrInvalidAuthConfig)
	}
	if mountPath == "" {
		mountPath = DefaultKubernetesMountPath
	}
	if tokenPath == "" {
		tokenPath = DefaultServiceAccountTokenPath
	}

	return &KubernetesAuth{
		role:               role,
		mountPath:          mountPath,
		serviceAccountPath: tokenPath,
	}, nil
}

// Login implements Authenticator.
func (a *KubernetesAuth) Login(ctx context.Context, api *vaultapi.Client) (*vaultapi.Secret, error) {
	if api == nil {
		return nil, fmt.Errorf("kubernetes auth failed: vault client is nil")
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("kubernetes auth failed: %w", ctx.Err())
	default:
	}

	jwt, err := os.ReadFile(a.serviceAccountPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account token: %w", err)
	}

	path := fmt.Sprintf("auth/%s/login", a.mountPath)
	data := map[string]interface{}{
		"role": a.role,
		"jwt":  string(jwt),
	}

	secret, err := api.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("kubernetes auth failed: %w", err)
	}

	return secret, nil
}

// Name implements Authenticator.
func (a *KubernetesAuth) Name() string {
	return "kubernetes"
}
