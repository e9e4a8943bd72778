package config

// RateLimitConfig holds inbound rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool    `json:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int     `json:"burst" yaml:"burst"`

	// PerClient keys the limit on the client IP instead of sharing one
	// bucket across all callers.
	PerClient bool `json:"perClient" yaml:"perClient"`

	// ClientTTL is how long an idle client's limiter sticks around
	// before the cleanup sweep drops it.
	ClientTTL Duration `json:"clientTTL" yaml:"clientTTL"`
}

// CORSConfig holds cross-origin settings for the admin surface.
type CORSConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `json:"allowedOrigins" yaml:"allowedOrigins"`
	AllowedMethods   []string `json:"allowedMethods" yaml:"allowedMethods"`
	AllowedHeaders   []string `json:"allowedHeaders" yaml:"allowedHeaders"`
	ExposedHeaders   []string `json:"exposedHeaders" yaml:"exposedHeaders"`
	AllowCredentials bool     `json:"allowCredentials" yaml:"allowCredentials"`
	MaxAge           Duration `json:"maxAge" yaml:"maxAge"`
}

// AuditConfig holds the write-operation audit trail settings.
type AuditConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Output is stdout, stderr, or file.
	Output string `json:"output" yaml:"output"`

	// FilePath is the audit log destination when Output is file.
	FilePath string `json:"filePath" yaml:"filePath"`
}
