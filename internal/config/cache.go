package config

// Cache backend types.
const (
	CacheTypeMemory   = "memory"
	CacheTypeRedis    = "redis"
	CacheTypeDisabled = "disabled"
)

// CacheConfig holds the read-through response cache settings.
type CacheConfig struct {
	// Type selects the backend: memory, redis, or disabled.
	Type string `json:"type" yaml:"type"`

	// TTL is how long cached read results stay valid.
	TTL Duration `json:"ttl" yaml:"ttl"`

	Memory MemoryCacheConfig `json:"memory" yaml:"memory"`
	Redis  RedisCacheConfig  `json:"redis" yaml:"redis"`
}

// Enabled reports whether a cache backend is configured.
func (c CacheConfig) Enabled() bool {
	return c.Type != "" && c.Type != CacheTypeDisabled
}

// MemoryCacheConfig holds the in-process LRU cache settings.
type MemoryCacheConfig struct {
	MaxEntries int `json:"maxEntries" yaml:"maxEntries"`
}

// RedisCacheConfig holds the Redis cache backend settings.
type RedisCacheConfig struct {
	Address string `json:"address" yaml:"address"`
	DB      int    `json:"db" yaml:"db"`

	// Password is a literal credential. PasswordSecret, when set, is
	// resolved through the secrets provider and wins over Password.
	Password       string `json:"password" yaml:"password"`
	PasswordSecret string `json:"passwordSecret" yaml:"passwordSecret"`

	PoolSize     int      `json:"poolSize" yaml:"poolSize"`
	DialTimeout  Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout Duration `json:"writeTimeout" yaml:"writeTimeout"`

	// TTLJitter randomizes expirations by the given fraction to avoid
	// synchronized eviction storms.
	TTLJitter float64 `json:"ttlJitter" yaml:"ttlJitter"`
}
