package config

// SecurityConfig holds the response security header settings.
type SecurityConfig struct {
	Enabled             bool   `json:"enabled" yaml:"enabled"`
	XFrameOptions       string `json:"xFrameOptions" yaml:"xFrameOptions"`
	XContentTypeOptions string `json:"xContentTypeOptions" yaml:"xContentTypeOptions"`
	ReferrerPolicy      string `json:"referrerPolicy" yaml:"referrerPolicy"`
	CSPPolicy           string `json:"cspPolicy" yaml:"cspPolicy"`

	HSTS HSTSConfig `json:"hsts" yaml:"hsts"`
}

// HSTSConfig holds Strict-Transport-Security settings.
type HSTSConfig struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	MaxAgeSeconds     int  `json:"maxAgeSeconds" yaml:"maxAgeSeconds"`
	IncludeSubDomains bool `json:"includeSubDomains" yaml:"includeSubDomains"`
}
