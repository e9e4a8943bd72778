package vault

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/retry"
)

// Vault client timeout constants.
const (
	// DefaultTokenRenewalTimeout is the timeout for token renewal operations.
	DefaultTokenRenewalTimeout = 30 * time.Second

	// DefaultCloseTimeout is the timeout for waiting for goroutines to stop.
	DefaultCloseTimeout = 5 * time.Second

	// MinRenewalInterval is the minimum interval between token renewals.
	MinRenewalInterval = time.Minute
)

// Secret represents a secret retrieved from Vault.
type Secret struct {
	// Data contains the secret data.
	Data map[string]interface{}

	// LeaseID is the lease ID for the secret.
	LeaseID string

	// LeaseDuration is the lease duration in seconds.
	LeaseDuration int

	// Renewable indicates if the lease is renewable.
	Renewable bool
}

// GetString returns a string value from the secret data.
func (s *Secret) GetString(key string) (string, bool) {
	if s == nil || s.Data == nil {
		return "", false
	}
	v, ok := s.Data[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetBytes returns a byte slice value from the secret data.
func (s *Secret) GetBytes(key string) ([]byte, bool) {
	str, ok := s.GetString(key)
	if !ok {
		return nil, false
	}
	return []byte(str), true
}

// HealthStatus represents Vault health status.
type HealthStatus struct {
	// Initialized indicates if Vault is initialized.
	Initialized bool

	// Sealed indicates if Vault is sealed.
	Sealed bool

	// Standby indicates if this is a standby node.
	Standby bool

	// Version is the Vault version.
	Version string

	// ClusterName is the cluster name.
	ClusterName string
}

// Client is a Vault API client with authentication and token renewal.
type Client struct {
	config *Config
	api    *vaultapi.Client
	logger observability.Logger

	// Token management
	tokenTTL    atomic.Int64
	tokenExpiry atomic.Int64

	// Lifecycle
	mu             sync.RWMutex
	closed         bool
	renewalStarted bool
	stopCh         chan struct{}
	stoppedCh      chan struct{}
}

// New creates a new Vault client from the configuration.
func New(cfg *Config, logger observability.Logger) (*Client, error) {
	if cfg == nil {
		return nil, NewConfigurationError("", "configuration is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address
	apiConfig.Timeout = cfg.GetTimeout()
	// Transient failures are retried through the retry package.
	apiConfig.MaxRetries = 0

	if cfg.TLS != nil {
		tlsConfig := &vaultapi.TLSConfig{
			CACert:     cfg.TLS.CACert,
			CAPath:     cfg.TLS.CAPath,
			ClientCert: cfg.TLS.ClientCert,
			ClientKey:  cfg.TLS.ClientKey,
			Insecure:   cfg.TLS.SkipVerify,
		}
		if err := apiConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, NewConfigurationErrorWithCause("tls", "failed to configure TLS", err)
		}
	}

	api, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, NewVaultError("init", "", err)
	}

	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}

	return &Client{
		config:    cfg,
		api:       api,
		logger:    logger.With(observability.String("component", "vault")),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Authenticate authenticates with Vault using the configured method and
// starts background token renewal when the returned token is renewable.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClientClosed
	}
	c.mu.RUnlock()

	auth, err := newAuthenticator(c.config)
	if err != nil {
		return err
	}

	start := time.Now()
	secret, err := auth.Login(ctx, c.api)
	if err != nil {
		return NewVaultError("authenticate", "", errors.Join(ErrAuthenticationFailed, err))
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return NewVaultError("authenticate", "", ErrAuthenticationFailed)
	}

	c.api.SetToken(secret.Auth.ClientToken)
	c.storeTokenLease(secret.Auth.LeaseDuration)

	c.logger.Info("authenticated with vault",
		observability.String("method", auth.Name()),
		observability.Duration("duration", time.Since(start)),
	)

	if secret.Auth.Renewable {
		c.startRenewal()
	}

	return nil
}

// RenewToken renews the current token.
func (c *Client) RenewToken(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClientClosed
	}
	c.mu.RUnlock()

	secret, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		return translateAPIError("renew_token", "", err)
	}

	if secret != nil && secret.Auth != nil {
		c.storeTokenLease(secret.Auth.LeaseDuration)
	}

	c.logger.Debug("token renewed",
		observability.Int64("ttl_seconds", c.tokenTTL.Load()),
	)
	return nil
}

// ReadSecret reads a secret at the given path.
func (c *Client) ReadSecret(ctx context.Context, path string) (*Secret, error) {
	return c.ReadSecretWithParams(ctx, path, nil)
}

// ReadSecretWithParams reads a secret at the given path with query
// parameters, such as a KV v2 version selector.
func (c *Client) ReadSecretWithParams(ctx context.Context, path string, params map[string][]string) (*Secret, error) {
	if err := c.guard(path); err != nil {
		return nil, err
	}

	var raw *vaultapi.Secret
	err := retry.Do(ctx, c.config.Retry, func() error {
		s, err := c.api.Logical().ReadWithDataWithContext(ctx, path, params)
		if err != nil {
			return translateAPIError("read", path, err)
		}
		raw = s
		return nil
	}, retry.WithShouldRetry(IsRetryable))
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, NewVaultErrorWithCode("read", path, ErrSecretNotFound, 404)
	}
	return convertSecret(raw), nil
}

// WriteSecret writes a secret at the given path.
func (c *Client) WriteSecret(ctx context.Context, path string, data map[string]interface{}) error {
	if err := c.guard(path); err != nil {
		return err
	}

	return retry.Do(ctx, c.config.Retry, func() error {
		if _, err := c.api.Logical().WriteWithContext(ctx, path, data); err != nil {
			return translateAPIError("write", path, err)
		}
		return nil
	}, retry.WithShouldRetry(IsRetryable))
}

// DeleteSecret deletes the secret at the given path.
func (c *Client) DeleteSecret(ctx context.Context, path string) error {
	if err := c.guard(path); err != nil {
		return err
	}

	return retry.Do(ctx, c.config.Retry, func() error {
		if _, err := c.api.Logical().DeleteWithContext(ctx, path); err != nil {
			return translateAPIError("delete", path, err)
		}
		return nil
	}, retry.WithShouldRetry(IsRetryable))
}

// ListSecrets lists the secret names under the given path.
func (c *Client) ListSecrets(ctx context.Context, path string) ([]string, error) {
	if err := c.guard(path); err != nil {
		return nil, err
	}

	var raw *vaultapi.Secret
	err := retry.Do(ctx, c.config.Retry, func() error {
		s, err := c.api.Logical().ListWithContext(ctx, path)
		if err != nil {
			return translateAPIError("list", path, err)
		}
		raw = s
		return nil
	}, retry.WithShouldRetry(IsRetryable))
	if err != nil {
		return nil, err
	}

	if raw == nil || raw.Data == nil {
		return nil, nil
	}
	keys, ok := raw.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := k.(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

// Health returns Vault health status.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClientClosed
	}
	c.mu.RUnlock()

	health, err := c.api.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, translateAPIError("health", "", err)
	}

	return &HealthStatus{
		Initialized: health.Initialized,
		Sealed:      health.Sealed,
		Standby:     health.Standby,
		Version:     health.Version,
		ClusterName: health.ClusterName,
	}, nil
}

// Close stops background token renewal and marks the client closed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	renewalStarted := c.renewalStarted
	c.mu.Unlock()

	close(c.stopCh)

	if renewalStarted {
		select {
		case <-c.stoppedCh:
		case <-time.After(DefaultCloseTimeout):
			c.logger.Warn("timeout waiting for token renewal to stop")
		}
	}

	c.logger.Info("vault client closed")
	return nil
}

// guard rejects operations on a closed client or an invalid path.
func (c *Client) guard(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return ValidatePath(path)
}

// storeTokenLease records the token TTL and expiry time.
func (c *Client) storeTokenLease(leaseSeconds int) {
	c.tokenTTL.Store(int64(leaseSeconds))
	if leaseSeconds > 0 {
		c.tokenExpiry.Store(time.Now().Add(time.Duration(leaseSeconds) * time.Second).Unix())
	}
}

// startRenewal launches the background renewal loop once.
func (c *Client) startRenewal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.renewalStarted || c.closed {
		return
	}
	c.renewalStarted = true
	go c.tokenRenewalLoop()
}

// tokenRenewalLoop renews the token at two-thirds of its TTL. It is bound
// to the client's stop channel rather than a caller context so it survives
// short-lived request contexts.
func (c *Client) tokenRenewalLoop() {
	defer close(c.stoppedCh)

	interval := c.renewalInterval()
	if interval <= 0 {
		c.logger.Debug("token renewal disabled (no TTL)")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("started token renewal loop",
		observability.Duration("interval", interval),
	)

	for {
		select {
		case <-c.stopCh:
			c.logger.Info("token renewal stopped")
			return
		case <-ticker.C:
			c.renewOnce()
			interval = c.resetRenewalInterval(ticker, interval)
		}
	}
}

// renewOnce performs a single renewal attempt with its own timeout, falling
// back to re-authentication when the token has already expired.
func (c *Client) renewOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTokenRenewalTimeout)
	defer cancel()

	if err := c.RenewToken(ctx); err != nil {
		c.logger.Error("failed to renew token", observability.Error(err))
		if c.tokenExpired() {
			c.logger.Info("token expired, attempting re-authentication")
			if err := c.reauthenticate(ctx); err != nil {
				c.logger.Error("failed to re-authenticate", observability.Error(err))
			}
		}
	}
}

// renewalInterval derives the renewal interval from the current token TTL.
func (c *Client) renewalInterval() time.Duration {
	ttl := c.tokenTTL.Load()
	if ttl <= 0 {
		return 0
	}
	interval := time.Duration(ttl*2/3) * time.Second
	if interval < MinRenewalInterval {
		interval = MinRenewalInterval
	}
	return interval
}

// resetRenewalInterval adjusts the ticker when the TTL changed after renewal.
func (c *Client) resetRenewalInterval(ticker *time.Ticker, current time.Duration) time.Duration {
	next := c.renewalInterval()
	if next <= 0 || next == current {
		return current
	}
	ticker.Reset(next)
	return next
}

// tokenExpired checks whether the token lease has lapsed.
func (c *Client) tokenExpired() bool {
	expiry := c.tokenExpiry.Load()
	if expiry == 0 {
		return false
	}
	return time.Now().Unix() >= expiry
}

// reauthenticate performs login again without restarting the renewal loop.
func (c *Client) reauthenticate(ctx context.Context) error {
	auth, err := newAuthenticator(c.config)
	if err != nil {
		return err
	}
	secret, err := auth.Login(ctx, c.api)
	if err != nil {
		return NewVaultError("authenticate", "", errors.Join(ErrAuthenticationFailed, err))
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return NewVaultError("authenticate", "", ErrAuthenticationFailed)
	}
	c.api.SetToken(secret.Auth.ClientToken)
	c.storeTokenLease(secret.Auth.LeaseDuration)
	return nil
}

// convertSecret converts a Vault API secret to the package representation.
func convertSecret(s *vaultapi.Secret) *Secret {
	return &Secret{
		Data:          s.Data,
		LeaseID:       s.LeaseID,
		LeaseDuration: s.LeaseDuration,
		Renewable:     s.Renewable,
	}
}

// translateAPIError maps Vault API errors to package errors, preserving the
// HTTP status code when the server responded.
func translateAPIError(op, path string, err error) error {
	var respErr *vaultapi.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 403:
			return NewVaultErrorWithCode(op, path, errors.Join(ErrPermissionDenied, err), respErr.StatusCode)
		case 404:
			return NewVaultErrorWithCode(op, path, errors.Join(ErrSecretNotFound, err), respErr.StatusCode)
		default:
			return NewVaultErrorWithCode(op, path, err, respErr.StatusCode)
		}
	}
	return NewVaultError(op, path, errors.Join(ErrConnectionFailed, err))
}
