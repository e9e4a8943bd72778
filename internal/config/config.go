// Package config provides configuration management for the CMS admin
// gateway. Configuration is loaded from a YAML file with ${VAR:-default}
// environment substitution, validated, and optionally watched for changes.
package config

import (
	"fmt"
	"time"
)

// Config holds all settings for the gateway process.
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	CMS           CMSConfig           `json:"cms" yaml:"cms"`
	Cache         CacheConfig         `json:"cache" yaml:"cache"`
	Secrets       SecretsConfig       `json:"secrets" yaml:"secrets"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	RateLimit     RateLimitConfig     `json:"rateLimit" yaml:"rateLimit"`
	CORS          CORSConfig          `json:"cors" yaml:"cors"`
	Security      SecurityConfig      `json:"security" yaml:"security"`
	Audit         AuditConfig         `json:"audit" yaml:"audit"`
}

// ServerConfig holds the admin HTTP listener settings.
type ServerConfig struct {
	Host            string   `json:"host" yaml:"host"`
	Port            int      `json:"port" yaml:"port"`
	ReadTimeout     Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// BodyLimitBytes caps inbound request bodies, uploads included.
	BodyLimitBytes int64 `json:"bodyLimitBytes" yaml:"bodyLimitBytes"`

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honored when resolving the client address. Empty means only the
	// direct peer address is used.
	TrustedProxies []string `json:"trustedProxies" yaml:"trustedProxies"`
}

// Address returns the host:port the server listens on.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CMSConfig holds the upstream CMS connection settings.
type CMSConfig struct {
	// BaseURL is the CMS REST root, including the API prefix,
	// e.g. http://cms:1337/api.
	BaseURL string `json:"baseURL" yaml:"baseURL"`

	// Token is a literal bearer token for the upstream. TokenSecret, when
	// set, is resolved through the secrets provider and wins over Token.
	Token       string `json:"token" yaml:"token"`
	TokenSecret string `json:"tokenSecret" yaml:"tokenSecret"`

	Timeout          Duration `json:"timeout" yaml:"timeout"`
	MaxResponseBytes int64    `json:"maxResponseBytes" yaml:"maxResponseBytes"`

	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
}

// CircuitBreakerConfig holds the upstream circuit breaker settings.
type CircuitBreakerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxRequests allowed through while half-open.
	MaxRequests int `json:"maxRequests" yaml:"maxRequests"`

	// Interval resets the closed-state failure counters.
	Interval Duration `json:"interval" yaml:"interval"`

	// Timeout is how long the breaker stays open before probing.
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// FailureThreshold trips the breaker after this many consecutive
	// failures.
	FailureThreshold int `json:"failureThreshold" yaml:"failureThreshold"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(120 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
			BodyLimitBytes:  32 << 20,
		},
		CMS: CMSConfig{
			BaseURL:          "http://localhost:1337/api",
			Timeout:          Duration(30 * time.Second),
			MaxResponseBytes: 16 << 20,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          false,
				MaxRequests:      3,
				Interval:         Duration(60 * time.Second),
				Timeout:          Duration(30 * time.Second),
				FailureThreshold: 5,
			},
		},
		Cache: CacheConfig{
			Type: CacheTypeMemory,
			TTL:  Duration(60 * time.Second),
			Memory: MemoryCacheConfig{
				MaxEntries: 10000,
			},
			Redis: RedisCacheConfig{
				Address:      "localhost:6379",
				DB:           0,
				PoolSize:     10,
				DialTimeout:  Duration(5 * time.Second),
				ReadTimeout:  Duration(3 * time.Second),
				WriteTimeout: Duration(3 * time.Second),
				TTLJitter:    0.1,
			},
		},
		Secrets: SecretsConfig{
			Provider:  "none",
			EnvPrefix: "CMSGW_SECRET_",
			LocalPath: "/etc/cmsgw/secrets",
			Vault: VaultConfig{
				Address:    "http://localhost:8200",
				AuthMethod: "token",
				MountPath:  "secret",
				Timeout:    Duration(30 * time.Second),
				MaxRetries: 3,
				RetryDelay: Duration(500 * time.Millisecond),
			},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Host:    "0.0.0.0",
				Port:    9091,
				Path:    "/metrics",
			},
			Tracing: TracingConfig{
				Enabled:      false,
				ServiceName:  "cmsgw",
				OTLPEndpoint: "localhost:4317",
				SamplingRate: 1.0,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 100,
			Burst:             50,
			PerClient:         true,
			ClientTTL:         Duration(5 * time.Minute),
		},
		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders: []string{"X-Total-Count", "X-Request-ID"},
			MaxAge:         Duration(12 * time.Hour),
		},
		Security: SecurityConfig{
			Enabled:             true,
			XFrameOptions:       "DENY",
			XContentTypeOptions: "nosniff",
			ReferrerPolicy:      "strict-origin-when-cross-origin",
		},
		Audit: AuditConfig{
			Enabled: true,
			Output:  "stdout",
		},
	}
}

// String returns a loggable summary of the config without sensitive data.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, CMS: %s, Cache: %s, Secrets: %s, LogLevel: %s, Metrics: %t, Tracing: %t, RateLimit: %t, Audit: %t}",
		c.Server.Address(), c.CMS.BaseURL, c.Cache.Type, c.Secrets.Provider,
		c.Observability.Logging.Level, c.Observability.Metrics.Enabled,
		c.Observability.Tracing.Enabled, c.RateLimit.Enabled, c.Audit.Enabled,
	)
}
