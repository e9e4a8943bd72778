package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Cache keys have the form "<resource>:<operation>:<digest>". Resource
// and operation stay plaintext so DeleteByPrefix can drop a resource's
// keyspace; the parameter digest keeps keys bounded regardless of filter
// complexity.

// Key builds a cache key for an operation on a resource. The params
// value is serialized to JSON and digested; encoding/json emits map keys
// in sorted order, so equal parameter sets produce equal keys.
func Key(resource, operation string, params interface{}) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(payload)

	var b strings.Builder
	b.WriteString(SanitizeKey(resource))
	b.WriteByte(':')
	b.WriteString(operation)
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(digest[:16]))
	return b.String(), nil
}

// ResourcePrefix returns the key prefix shared by every cached operation
// on a resource.
func ResourcePrefix(resource string) string {
	return SanitizeKey(resource) + ":"
}

// HashKey hashes a key to a fixed length.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// SanitizeKey removes or replaces characters that might cause issues in cache keys.
func SanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		":", "_",
		"\n", "",
		"\r", "",
		"\t", "",
	)
	return replacer.Replace(key)
}
