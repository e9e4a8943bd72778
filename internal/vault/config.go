package vault

import (
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/retry"
)

// AuthMethod specifies the Vault authentication method.
type AuthMethod string

// Authentication method constants.
const (
	// AuthMethodToken uses direct token authentication.
	AuthMethodToken AuthMethod = "token"

	// AuthMethodAppRole uses AppRole authentication with RoleID and SecretID.
	AuthMethodAppRole AuthMethod = "approle"

	// AuthMethodKubernetes uses Kubernetes ServiceAccount JWT authentication.
	AuthMethodKubernetes AuthMethod = "kubernetes"
)

// String returns the string representation of the auth method.
func (m AuthMethod) String() string {
	return string(m)
}

// IsValid returns true if the auth method is valid.
func (m AuthMethod) IsValid() bool {
	switch m {
	case AuthMethodToken, AuthMethodAppRole, AuthMethodKubernetes:
		return true
	default:
		return false
	}
}

// DefaultTimeout is the default request timeout for Vault operations.
const DefaultTimeout = 30 * time.Second

// Config represents Vault client configuration.
type Config struct {
	// Address is the Vault server address.
	Address string

	// Namespace is the Vault namespace (Enterprise feature).
	Namespace string

	// AuthMethod specifies the authentication method.
	AuthMethod AuthMethod

	// Token for token authentication.
	Token string

	// AppRole auth configuration.
	AppRole *AppRoleAuthConfig

	// Kubernetes auth configuration.
	Kubernetes *KubernetesAuthConfig

	// TLS configuration for the Vault connection.
	TLS *TLSConfig

	// Timeout is the request timeout for Vault operations.
	Timeout time.Duration

	// Retry configures backoff for transient failures.
	Retry *retry.Config
}

// AppRoleAuthConfig configures AppRole authentication.
type AppRoleAuthConfig struct {
	// RoleID is the AppRole role ID.
	RoleID string

	// SecretID is the AppRole secret ID.
	SecretID string

	// MountPath is the mount path for the AppRole auth method.
	// Defaults to "approle".
	MountPath string
}

// GetMountPath returns the effective mount path for AppRole auth.
func (c *AppRoleAuthConfig) GetMountPath() string {
	if c.MountPath != "" {
		return c.MountPath
	}
	return DefaultAppRoleMountPath
}

// KubernetesAuthConfig configures Kubernetes authentication.
type KubernetesAuthConfig struct {
	// Role is the Vault role to authenticate as.
	Role string

	// MountPath is the mount path for the Kubernetes auth method.
	// Defaults to "kubernetes".
	MountPath string

	// TokenPath is the path to the ServiceAccount token file.
	// Defaults to "/var/run/secrets/kubernetes.io/serviceaccount/token".
	TokenPath string
}

// GetMountPath returns the effective mount path for Kubernetes auth.
func (c *KubernetesAuthConfig) GetMountPath() string {
	if c.MountPath != "" {
		return c.MountPath
	}
	return DefaultKubernetesMountPath
}

// GetTokenPath returns the effective token path for Kubernetes auth.
func (c *KubernetesAuthConfig) GetTokenPath() string {
	if c.TokenPath != "" {
		return c.TokenPath
	}
	return DefaultServiceAccountTokenPath
}

// TLSConfig configures TLS for the Vault connection.
type TLSConfig struct {
	// CACert is the path to the CA certificate file.
	CACert string

	// CAPath is the path to a directory of CA certificates.
	CAPath string

	// ClientCert is the path to the client certificate file.
	ClientCert string

	// ClientKey is the path to the client private key file.
	ClientKey string

	// SkipVerify skips TLS certificate verification (insecure).
	SkipVerify bool
}

// Validate validates the TLS configuration.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.ClientCert != "" && c.ClientKey == "" {
		return NewConfigurationError("tls.clientKey", "client key is required when client cert is provided")
	}
	if c.ClientKey != "" && c.ClientCert == "" {
		return NewConfigurationError("tls.clientCert", "client cert is required when client key is provided")
	}
	return nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		AuthMethod: AuthMethodToken,
		Timeout:    DefaultTimeout,
		Retry:      retry.DefaultConfig(),
	}
}

// GetTimeout returns the effective request timeout.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Validate validates the Vault configuration.
func (c *Config) Validate() error {
	if c == nil {
		return NewConfigurationError("", "configuration is nil")
	}

	if c.Address == "" {
		return NewConfigurationError("address", "vault address is required")
	}
	if !c.AuthMethod.IsValid() {
		return NewConfigurationError("authMethod", "invalid auth method: "+string(c.AuthMethod))
	}

	switch c.AuthMethod {
	case AuthMethodToken:
		if c.Token == "" {
			return NewConfigurationError("token", "token is required for token authentication")
		}
	case AuthMethodAppRole:
		if c.AppRole == nil {
			return NewConfigurationError("appRole", "appRole configuration is required for approle authentication")
		}
		if c.AppRole.RoleID == "" {
			return NewConfigurationError("appRole.roleId", "roleId is required for approle authentication")
		}
		if c.AppRole.SecretID == "" {
			return NewConfigurationError("appRole.secretId", "secretId is required for approle authentication")
		}
	case AuthMethodKubernetes:
		if c.Kubernetes == nil {
			return NewConfigurationError("kubernetes", "kubernetes configuration is required for kubernetes authentication")
		}
		if c.Kubernetes.Role == "" {
			return NewConfigurationError("kubernetes.role", "role is required for kubernetes authentication")
		}
	}

	return c.TLS.Validate()
}
