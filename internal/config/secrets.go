package config

// Secrets provider types.
const (
	SecretsProviderNone  = "none"
	SecretsProviderEnv   = "env"
	SecretsProviderLocal = "local"
	SecretsProviderVault = "vault"
)

// SecretsConfig selects and configures the secrets provider used to
// resolve the CMS token and the Redis password.
type SecretsConfig struct {
	// Provider is one of none, env, local, vault.
	Provider string `json:"provider" yaml:"provider"`

	// EnvPrefix is prepended to normalized keys by the env provider.
	EnvPrefix string `json:"envPrefix" yaml:"envPrefix"`

	// LocalPath is the directory the local provider reads secret files
	// from.
	LocalPath string `json:"localPath" yaml:"localPath"`

	Vault VaultConfig `json:"vault" yaml:"vault"`
}

// VaultConfig holds the Vault secrets provider settings.
type VaultConfig struct {
	Address   string `json:"address" yaml:"address"`
	Namespace string `json:"namespace" yaml:"namespace"`

	// AuthMethod is one of token, approle, kubernetes.
	AuthMethod string `json:"authMethod" yaml:"authMethod"`

	// Token authenticates directly when AuthMethod is token.
	Token string `json:"token" yaml:"token"`

	// RoleID and SecretID authenticate when AuthMethod is approle.
	RoleID   string `json:"roleID" yaml:"roleID"`
	SecretID string `json:"secretID" yaml:"secretID"`

	// Role names the Vault role when AuthMethod is kubernetes.
	Role string `json:"role" yaml:"role"`

	// MountPath is the KV v2 mount secrets are read from.
	MountPath string `json:"mountPath" yaml:"mountPath"`

	Timeout    Duration `json:"timeout" yaml:"timeout"`
	MaxRetries int      `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay Duration `json:"retryDelay" yaml:"retryDelay"`

	TLSSkipVerify bool   `json:"tlsSkipVerify" yaml:"tlsSkipVerify"`
	CACert        string `json:"caCert" yaml:"caCert"`
}
