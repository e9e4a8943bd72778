package vault

import (
	"context"
	"strconv"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// KV2Client provides a high-level interface to the KV version 2 secrets
// engine. It unwraps the data envelope the engine puts around secrets.
type KV2Client struct {
	client     *Client
	mountPoint string
	logger     observability.Logger
}

// NewKV2Client creates a new KV v2 client for the given mount point.
func NewKV2Client(client *Client, mountPoint string, logger observability.Logger) *KV2Client {
	if mountPoint == "" {
		mountPoint = "secret"
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &KV2Client{
		client:     client,
		mountPoint: mountPoint,
		logger:     logger,
	}
}

// Get retrieves the latest version of a secret.
func (c *KV2Client) Get(ctx context.Context, path string) (*Secret, error) {
	fullPath := c.dataPath(path)
	c.logger.Debug("reading kv2 secret", observability.String("path", fullPath))

	secret, err := c.client.ReadSecret(ctx, fullPath)
	if err != nil {
		return nil, err
	}
	return unwrapKV2(secret, fullPath)
}

// GetVersion retrieves a specific version of a secret.
func (c *KV2Client) GetVersion(ctx context.Context, path string, version int) (*Secret, error) {
	fullPath := c.dataPath(path)
	c.logger.Debug("reading kv2 secret version",
		observability.String("path", path),
		observability.Int("version", version),
	)

	secret, err := c.client.ReadSecretWithParams(ctx, fullPath, map[string][]string{
		"version": {strconv.Itoa(version)},
	})
	if err != nil {
		return nil, err
	}
	return unwrapKV2(secret, fullPath)
}

// Put writes a secret. KV v2 requires the payload wrapped in a "data" key.
func (c *KV2Client) Put(ctx context.Context, path string, data map[string]interface{}) error {
	fullPath := c.dataPath(path)
	c.logger.Debug("writing kv2 secret", observability.String("path", fullPath))

	return c.client.WriteSecret(ctx, fullPath, map[string]interface{}{
		"data": data,
	})
}

// Delete soft-deletes the latest version of a secret.
func (c *KV2Client) Delete(ctx context.Context, path string) error {
	fullPath := c.dataPath(path)
	c.logger.Debug("deleting kv2 secret", observability.String("path", fullPath))

	return c.client.DeleteSecret(ctx, fullPath)
}

// List lists secret names at the given path.
func (c *KV2Client) List(ctx context.Context, path string) ([]string, error) {
	fullPath := c.metadataPath(path)
	c.logger.Debug("listing kv2 secrets", observability.String("path", fullPath))

	return c.client.ListSecrets(ctx, fullPath)
}

// dataPath returns the data path for a secret.
func (c *KV2Client) dataPath(path string) string {
	return JoinPath(c.mountPoint, "data", path)
}

// metadataPath returns the metadata path for a secret.
func (c *KV2Client) metadataPath(path string) string {
	return JoinPath(c.mountPoint, "metadata", path)
}

// unwrapKV2 extracts the inner data map from a KV v2 read response.
func unwrapKV2(secret *Secret, path string) (*Secret, error) {
	if secret == nil || secret.Data == nil {
		return nil, NewVaultErrorWithCode("read", path, ErrSecretNotFound, 404)
	}

	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		// Soft-deleted versions come back with data: null
		return nil, NewVaultErrorWithCode("read", path, ErrSecretNotFound, 404)
	}

	return &Secret{
		Data:          inner,
		LeaseID:       secret.LeaseID,
		LeaseDuration: secret.LeaseDuration,
		Renewable:     secret.Renewable,
	}, nil
}
