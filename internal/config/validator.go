package config

import (
	"fmt"

	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// Validate checks the whole configuration and returns the first problem
// found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.CMS.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Secrets.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if err := c.Audit.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the server listener settings.
func (c ServerConfig) Validate() error {
	if err := validatePort(c.Port, "server.port"); err != nil {
		return err
	}
	if c.ReadTimeout <= 0 {
		return util.NewConfigError("server.readTimeout", "must be positive")
	}
	if c.WriteTimeout <= 0 {
		return util.NewConfigError("server.writeTimeout", "must be positive")
	}
	if c.IdleTimeout <= 0 {
		return util.NewConfigError("server.idleTimeout", "must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return util.NewConfigError("server.shutdownTimeout", "must be positive")
	}
	if c.BodyLimitBytes <= 0 {
		return util.NewConfigError("server.bodyLimitBytes", "must be positive")
	}
	return nil
}

// Validate checks the upstream CMS settings.
func (c CMSConfig) Validate() error {
	if c.BaseURL == "" {
		return util.NewConfigError("cms.baseURL", "is required")
	}
	if err := util.ValidateURL(c.BaseURL); err != nil {
		return util.NewConfigErrorWithCause("cms.baseURL", "invalid URL", err)
	}
	if c.Timeout <= 0 {
		return util.NewConfigError("cms.timeout", "must be positive")
	}
	if c.MaxResponseBytes <= 0 {
		return util.NewConfigError("cms.maxResponseBytes", "must be positive")
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.MaxRequests <= 0 {
			return util.NewConfigError("cms.circuitBreaker.maxRequests", "must be positive")
		}
		if c.CircuitBreaker.Timeout <= 0 {
			return util.NewConfigError("cms.circuitBreaker.timeout", "must be positive")
		}
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return util.NewConfigError("cms.circuitBreaker.failureThreshold", "must be positive")
		}
	}
	return nil
}

// Validate checks the cache settings.
func (c CacheConfig) Validate() error {
	switch c.Type {
	case "", CacheTypeMemory, CacheTypeRedis, CacheTypeDisabled:
	default:
		return util.NewConfigError("cache.type",
			fmt.Sprintf("invalid type %q, must be one of: memory, redis, disabled", c.Type))
	}

	if !c.Enabled() {
		return nil
	}

	if c.TTL <= 0 {
		return util.NewConfigError("cache.ttl", "must be positive")
	}

	switch c.Type {
	case CacheTypeMemory:
		if c.Memory.MaxEntries <= 0 {
			return util.NewConfigError("cache.memory.maxEntries", "must be positive")
		}
	case CacheTypeRedis:
		if c.Redis.Address == "" {
			return util.NewConfigError("cache.redis.address", "is required")
		}
		if c.Redis.TTLJitter < 0 || c.Redis.TTLJitter > 1 {
			return util.NewConfigError("cache.redis.ttlJitter", "must be between 0.0 and 1.0")
		}
	}
	return nil
}

// Validate checks the secrets provider settings.
func (c SecretsConfig) Validate() error {
	switch c.Provider {
	case "", SecretsProviderNone, SecretsProviderEnv, SecretsProviderLocal:
		return nil
	case SecretsProviderVault:
	default:
		return util.NewConfigError("secrets.provider",
			fmt.Sprintf("invalid provider %q, must be one of: none, env, local, vault", c.Provider))
	}

	if c.Vault.Address == "" {
		return util.NewConfigError("secrets.vault.address", "is required")
	}
	switch c.Vault.AuthMethod {
	case "token":
		if c.Vault.Token == "" {
			return util.NewConfigError("secrets.vault.token", "is required for token auth")
		}
	case "approle":
		if c.Vault.RoleID == "" || c.Vault.SecretID == "" {
			return util.NewConfigError("secrets.vault.roleID", "roleID and secretID are required for approle auth")
		}
	case "kubernetes":
		if c.Vault.Role == "" {
			return util.NewConfigError("secrets.vault.role", "is required for kubernetes auth")
		}
	default:
		return util.NewConfigError("secrets.vault.authMethod",
			fmt.Sprintf("invalid auth method %q, must be one of: token, approle, kubernetes", c.Vault.AuthMethod))
	}
	if c.Vault.Timeout <= 0 {
		return util.NewConfigError("secrets.vault.timeout", "must be positive")
	}
	if c.Vault.MaxRetries < 0 {
		return util.NewConfigError("secrets.vault.maxRetries", "must be non-negative")
	}
	return nil
}

// Validate checks logging, metrics, and tracing settings.
func (c ObservabilityConfig) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return util.NewConfigError("observability.logging.level",
			fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return util.NewConfigError("observability.logging.format",
			fmt.Sprintf("invalid format %q, must be json or console", c.Logging.Format))
	}

	switch c.Logging.Output {
	case "stdout", "stderr":
	default:
		if c.Logging.Output == "" || (c.Logging.Output[0] != '/' && c.Logging.Output[0] != '.') {
			return util.NewConfigError("observability.logging.output",
				fmt.Sprintf("invalid output %q, must be stdout, stderr, or a file path", c.Logging.Output))
		}
	}

	if c.Metrics.Enabled {
		if err := validatePort(c.Metrics.Port, "observability.metrics.port"); err != nil {
			return err
		}
		if c.Metrics.Path == "" {
			return util.NewConfigError("observability.metrics.path", "is required")
		}
	}

	if c.Tracing.Enabled {
		if c.Tracing.OTLPEndpoint == "" {
			return util.NewConfigError("observability.tracing.otlpEndpoint", "is required when tracing is enabled")
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return util.NewConfigError("observability.tracing.samplingRate", "must be between 0.0 and 1.0")
		}
	}
	return nil
}

// Validate checks the rate limit settings.
func (c RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return util.NewConfigError("rateLimit.requestsPerSecond", "must be positive")
	}
	if c.Burst <= 0 {
		return util.NewConfigError("rateLimit.burst", "must be positive")
	}
	if c.ClientTTL <= 0 {
		return util.NewConfigError("rateLimit.clientTTL", "must be positive")
	}
	return nil
}

// Validate checks the security header settings.
func (c SecurityConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.XFrameOptions {
	case "", "DENY", "SAMEORIGIN":
	default:
		return util.NewConfigError("security.xFrameOptions",
			fmt.Sprintf("invalid value %q, must be DENY or SAMEORIGIN", c.XFrameOptions))
	}
	if c.HSTS.Enabled && c.HSTS.MaxAgeSeconds < 0 {
		return util.NewConfigError("security.hsts.maxAgeSeconds", "must be non-negative")
	}
	return nil
}

// Validate checks the audit trail settings.
func (c AuditConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Output {
	case "stdout", "stderr":
		return nil
	case "file":
		if c.FilePath == "" {
			return util.NewConfigError("audit.filePath", "is required when output is file")
		}
		return nil
	default:
		return util.NewConfigError("audit.output",
			fmt.Sprintf("invalid output %q, must be one of: stdout, stderr, file", c.Output))
	}
}

// validatePort validates that a port number is within valid range.
func validatePort(port int, field string) error {
	if port < 1 || port > 65535 {
		return util.NewConfigError(field, fmt.Sprintf("must be between 1 and 65535, got %d", port))
	}
	return nil
}
