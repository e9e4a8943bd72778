package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// LocalProviderConfig holds configuration for the local file secrets provider
type LocalProviderConfig struct {
	// BasePath is the base directory for secrets
	BasePath string
	// Logger is the logger instance
	Logger observability.Logger
}

// LocalProvider implements the Provider interface using local files
// Secrets are stored in a directory structure:
// - base-path/secret-name/key (each key is a separate file)
// - base-path/secret-name.yaml (single file with all keys)
// - base-path/secret-name.json (single file with all keys)
type LocalProvider struct {
	basePath string
	logger   observability.Logger
}

// NewLocalProvider creates a new local file secrets provider
func NewLocalProvider(cfg *LocalProviderConfig) (*LocalProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("%w: base path is required", ErrProviderNotConfigured)
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: base path does not exist: %s", ErrProviderNotConfigured, cfg.BasePath)
		}
		return nil, fmt.Errorf("%w: failed to access base path: %w", ErrProviderNotConfigured, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: base path is not a directory: %s", ErrProviderNotConfigured, cfg.BasePath)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &LocalProvider{
		basePath: cfg.BasePath,
		logger:   logger,
	}, nil
}

// Type returns the provider type
func (p *LocalProvider) Type() ProviderType {
	return ProviderTypeLocal
}

// cleanPath validates the path and returns a cleaned version.
func (p *LocalProvider) cleanPath(path, operation string, start time.Time) (string, error) {
	if path == "" {
		RecordOperation(p.Type(), operation, time.Since(start), ErrInvalidPath)
		return "", ErrInvalidPath
	}

	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		RecordOperation(p.Type(), operation, time.Since(start), ErrInvalidPath)
		return "", fmt.Errorf("%w: path escapes base directory", ErrInvalidPath)
	}

	return clean, nil
}

// tryReadFormats attempts to read a secret from the supported layouts.
func (p *LocalProvider) tryReadFormats(cleanPath string) (*Secret, bool) {
	dirPath := filepath.Join(p.basePath, cleanPath)
	if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
		if secret, err := p.readSecretFromDirectory(dirPath, cleanPath); err == nil {
			return secret, true
		}
		p.logger.Debug("failed to read secret from directory, trying file formats",
			observability.String("path", dirPath),
		)
	}

	formats := []struct {
		ext    string
		reader func(string, string) (*Secret, error)
	}{
		{".yaml", p.readSecretFromYAML},
		{".yml", p.readSecretFromYAML},
		{".json", p.readSecretFromJSON},
	}

	for _, format := range formats {
		filePath := filepath.Join(p.basePath, cleanPath+format.ext)
		if _, err := os.Stat(filePath); err == nil {
			if secret, err := format.reader(filePath, cleanPath); err == nil {
				return secret, true
			}
		}
	}

	return nil, false
}

// GetSecret retrieves a secret by path
// Tries multiple formats:
// 1. Directory with individual key files: base-path/secret-name/key
// 2. YAML file: base-path/secret-name.yaml
// 3. JSON file: base-path/secret-name.json
func (p *LocalProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "get", time.Since(start), nil)
	}()

	cleanPath, err := p.cleanPath(path, "get", start)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("getting local secret",
		observability.String("path", path),
		observability.String("basePath", p.basePath),
	)

	if secret, found := p.tryReadFormats(cleanPath); found {
		return secret, nil
	}

	RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
	return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
}

// readSecretFromDirectory reads a secret from a directory where each file is a key
func (p *LocalProvider) readSecretFromDirectory(dirPath, name string) (*Secret, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("directory is empty")
	}

	data := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		keyName := entry.Name()
		filePath := filepath.Join(dirPath, keyName)

		content, err := os.ReadFile(filepath.Clean(filePath))
		if err != nil {
			p.logger.Warn("failed to read key file",
				observability.String("file", filePath),
				observability.Error(err),
			)
			continue
		}

		// Trim trailing newline (common in secret files)
		data[keyName] = []byte(strings.TrimSuffix(string(content), "\n"))
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("no valid key files found")
	}

	info, _ := os.Stat(dirPath)
	modTime := info.ModTime()

	return &Secret{
		Name:      name,
		Data:      data,
		Metadata:  map[string]string{"source": "directory"},
		UpdatedAt: &modTime,
	}, nil
}

// readSecretFromYAML reads a secret from a YAML file
func (p *LocalProvider) readSecretFromYAML(filePath, name string) (*Secret, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}

	var rawData map[string]interface{}
	if err := yaml.Unmarshal(content, &rawData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	data, err := p.convertRawData(rawData)
	if err != nil {
		return nil, err
	}

	info, _ := os.Stat(filePath)
	modTime := info.ModTime()

	return &Secret{
		Name:      name,
		Data:      data,
		Metadata:  map[string]string{"source": "yaml", "file": filePath},
		UpdatedAt: &modTime,
	}, nil
}

// readSecretFromJSON reads a secret from a JSON file
func (p *LocalProvider) readSecretFromJSON(filePath, name string) (*Secret, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	var rawData map[string]interface{}
	if err := json.Unmarshal(content, &rawData); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	data, err := p.convertRawData(rawData)
	if err != nil {
		return nil, err
	}

	info, _ := os.Stat(filePath)
	modTime := info.ModTime()

	return &Secret{
		Name:      name,
		Data:      data,
		Metadata:  map[string]string{"source": "json", "file": filePath},
		UpdatedAt: &modTime,
	}, nil
}

// convertRawData converts decoded YAML/JSON values to byte slices,
// marshaling non-string values back to JSON.
func (p *LocalProvider) convertRawData(rawData map[string]interface{}) (map[string][]byte, error) {
	data := make(map[string][]byte)
	for k, v := range rawData {
		switch val := v.(type) {
		case string:
			data[k] = []byte(val)
		case []byte:
			data[k] = val
		default:
			jsonBytes, err := json.Marshal(val)
			if err != nil {
				p.logger.Warn("failed to marshal value to JSON",
					observability.String("key", k),
					observability.Error(err),
				)
				continue
			}
			data[k] = jsonBytes
		}
	}
	return data, nil
}

// ListSecrets lists secrets in the base path
func (p *LocalProvider) ListSecrets(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "list", time.Since(start), nil)
	}()

	searchPath := p.basePath
	if path != "" {
		cleanPath, err := p.cleanPath(path, "list", start)
		if err != nil {
			return nil, err
		}
		searchPath = filepath.Join(p.basePath, cleanPath)
	}

	entries, err := os.ReadDir(searchPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		RecordOperation(p.Type(), "list", time.Since(start), err)
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			seen[name] = true
			continue
		}
		for _, ext := range []string{".yaml", ".yml", ".json"} {
			if strings.HasSuffix(name, ext) {
				seen[strings.TrimSuffix(name, ext)] = true
				break
			}
		}
	}

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}

	p.logger.Debug("listed local secrets",
		observability.String("path", searchPath),
		observability.Int("count", len(result)),
	)

	return result, nil
}

// WriteSecret writes a secret to a YAML file
func (p *LocalProvider) WriteSecret(ctx context.Context, path string, data map[string][]byte) error {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "write", time.Since(start), nil)
	}()

	cleanPath, err := p.cleanPath(path, "write", start)
	if err != nil {
		return err
	}

	stringData := make(map[string]string)
	for k, v := range data {
		stringData[k] = string(v)
	}

	yamlContent, err := yaml.Marshal(stringData)
	if err != nil {
		RecordOperation(p.Type(), "write", time.Since(start), err)
		return fmt.Errorf("failed to marshal secret: %w", err)
	}

	filePath := filepath.Join(p.basePath, cleanPath+".yaml")
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		RecordOperation(p.Type(), "write", time.Since(start), err)
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, yamlContent, 0o600); err != nil {
		RecordOperation(p.Type(), "write", time.Since(start), err)
		return fmt.Errorf("failed to write secret: %w", err)
	}

	p.logger.Info("wrote secret",
		observability.String("path", filePath),
	)

	return nil
}

// DeleteSecret deletes a secret
func (p *LocalProvider) DeleteSecret(ctx context.Context, path string) error {
	start := time.Now()
	defer func() {
		RecordOperation(p.Type(), "delete", time.Since(start), nil)
	}()

	cleanPath, err := p.cleanPath(path, "delete", start)
	if err != nil {
		return err
	}

	deleted := false

	dirPath := filepath.Join(p.basePath, cleanPath)
	if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
		if err := os.RemoveAll(dirPath); err != nil {
			RecordOperation(p.Type(), "delete", time.Since(start), err)
			return fmt.Errorf("failed to delete secret directory: %w", err)
		}
		deleted = true
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		filePath := filepath.Join(p.basePath, cleanPath+ext)
		if _, err := os.Stat(filePath); err == nil {
			if err := os.Remove(filePath); err != nil {
				RecordOperation(p.Type(), "delete", time.Since(start), err)
				return fmt.Errorf("failed to delete secret file: %w", err)
			}
			deleted = true
		}
	}

	if deleted {
		p.logger.Info("deleted secret",
			observability.String("path", path),
		)
	}

	return nil
}

// IsReadOnly returns false as local provider supports writes
func (p *LocalProvider) IsReadOnly() bool {
	return false
}

// HealthCheck checks if the base path is accessible
func (p *LocalProvider) HealthCheck(ctx context.Context) error {
	start := time.Now()

	info, err := os.Stat(p.basePath)
	if err != nil {
		RecordHealthStatus(p.Type(), false)
		RecordOperation(p.Type(), "health_check", time.Since(start), err)
		return fmt.Errorf("base path not accessible: %w", err)
	}

	if !info.IsDir() {
		err := fmt.Errorf("base path is not a directory")
		RecordHealthStatus(p.Type(), false)
		RecordOperation(p.Type(), "health_check", time.Since(start), err)
		return err
	}

	RecordHealthStatus(p.Type(), true)
	RecordOperation(p.Type(), "health_check", time.Since(start), nil)
	return nil
}

// Close cleans up provider resources
func (p *LocalProvider) Close() error {
	return nil
}
