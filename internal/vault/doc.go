// Package vault provides a minimal HashiCorp Vault client for resolving
// gateway secrets such as the upstream CMS API token and the Redis
// password. It supports token, AppRole, and Kubernetes authentication,
// automatic token renewal, and the KV version 2 secrets engine.
//
// The client retries transient failures with exponential backoff; callers
// that need caching layer it on top through the secrets package.
package vault
