package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAPIClient returns a raw Vault API client pointed at the test server.
func newAPIClient(t *testing.T, serverURL string) *vaultapi.Client {
	t.Helper()
	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = serverURL
	apiConfig.MaxRetries = 0
	api, err := vaultapi.NewClient(apiConfig)
	require.NoError(t, err)
	return api
}

func TestNewAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("token", func(t *testing.T) {
		auth, err := newAuthenticator(&Config{AuthMethod: AuthMethodToken, Token: "t"})
		require.NoError(t, err)
		assert.Equal(t, "token", auth.Name())
	})

	t.Run("approle", func(t *testing.T) {
		auth, err := newAuthenticator(&Config{
			AuthMethod: AuthMethodAppRole,
			AppRole:    &AppRoleAuthConfig{RoleID: "r", SecretID: "s"},
		})
		require.NoError(t, err)
		assert.Equal(t, "approle", auth.Name())
	})

	t.Run("kubernetes", func(t *testing.T) {
		auth, err := newAuthenticator(&Config{
			AuthMethod: AuthMethodKubernetes,
			Kubernetes: &KubernetesAuthConfig{Role: "cmsgw"},
		})
		require.NoError(t, err)
		assert.Equal(t, "kubernetes", auth.Name())
	})

	t.Run("approle without configuration", func(t *testing.T) {
		_, err := newAuthenticator(&Config{AuthMethod: AuthMethodAppRole})
		assert.ErrorIs(t, err, ErrInvalidAuthConfig)
	})

	t.Run("unsupported method", func(t *testing.T) {
		_, err := newAuthenticator(&Config{AuthMethod: "ldap"})
		assert.ErrorIs(t, err, ErrInvalidAuthConfig)
	})
}

func TestTokenAuthConstructor(t *testing.T) {
	t.Parallel()

	_, err := NewTokenAuth("")
	assert.ErrorIs(t, err, ErrInvalidAuthConfig)

	auth, err := NewTokenAuth("t")
	require.NoError(t, err)
	assert.Equal(t, "token", auth.Name())
}

func TestTokenAuthLogin(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/token/lookup-self" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"request_id": "req-1",
			"data": {
				"ttl": 3600,
				"renewable": true
			}
		}`))
	}))
	defer server.Close()

	auth, err := NewTokenAuth("test-token")
	require.NoError(t, err)

	secret, err := auth.Login(context.Background(), newAPIClient(t, server.URL))
	require.NoError(t, err)
	require.NotNil(t, secret.Auth)

	assert.Equal(t, "test-token", secret.Auth.ClientToken)
	assert.Equal(t, 3600, secret.Auth.LeaseDuration)
	assert.True(t, secret.Auth.Renewable)
}

func TestTokenAuthLogin_LookupFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors": ["permission denied"]}`))
	}))
	defer server.Close()

	auth, err := NewTokenAuth("bad-token")
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), newAPIClient(t, server.URL))
	assert.Error(t, err)
}

func TestTokenAuthLogin_NilClient(t *testing.T) {
	t.Parallel()

	auth, err := NewTokenAuth("t")
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), nil)
	assert.Error(t, err)
}

func TestAppRoleAuthConstructor(t *testing.T) {
	t.Parallel()

	_, err := NewAppRoleAuth("", "s", "")
	assert.ErrorIs(t, err, ErrInvalidAuthConfig)

	_, err = NewAppRoleAuth("r", "", "")
	assert.ErrorIs(t, err, ErrInvalidAuthConfig)

	auth, err := NewAppRoleAuth("r", "s", "")
	require.NoError(t, err)
	assert.Equal(t, "approle", auth.Name())
	assert.Equal(t, "approle", auth.mountPath)
}

func TestAppRoleAuthLogin(t *testing.T) {
	t.Parallel()

	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/approle/login" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"auth": {
				"client_token": "approle-token",
				"lease_duration": 600,
				"renewable": true
			}
		}`))
	}))
	defer server.Close()

	auth, err := NewAppRoleAuth("role-1", "secret-1", "")
	require.NoError(t, err)

	secret, err := auth.Login(context.Background(), newAPIClient(t, server.URL))
	require.NoError(t, err)
	require.NotNil(t, secret.Auth)

	assert.Equal(t, "approle-token", secret.Auth.ClientToken)
	assert.Equal(t, "role-1", gotBody["role_id"])
	assert.Equal(t, "secret-1", gotBody["secret_id"])
}

func TestKubernetesAuthConstructor(t *testing.T) {
	t.Parallel()

	_, err := NewKubernetesAuth("", "", "")
	assert.ErrorIs(t, err, ErrInvalidAuthConfig)

	auth, err := NewKubernetesAuth("cmsgw", "", "")
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", auth.Name())
	assert.Equal(t, DefaultKubernetesMountPath, auth.mountPath)
	assert.Equal(t, DefaultServiceAccountTokenPath, auth.serviceAccountPath)
}

func TestKubernetesAuthLogin(t *testing.T) {
	t.Parallel()

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("jwt-content"), 0o600))

	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/kubernetes/login" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"auth": {
				"client_token": "k8s-token",
				"lease_duration": 900,
				"renewable": true
			}
		}`))
	}))
	defer server.Close()

	auth, err := NewKubernetesAuth("cmsgw", "", tokenPath)
	require.NoError(t, err)

	secret, err := auth.Login(context.Background(), newAPIClient(t, server.URL))
	require.NoError(t, err)
	require.NotNil(t, secret.Auth)

	assert.Equal(t, "k8s-token", secret.Auth.ClientToken)
	assert.Equal(t, "cmsgw", gotBody["role"])
	assert.Equal(t, "jwt-content", gotBody["jwt"])
}

func TestKubernetesAuthLogin_MissingTokenFile(t *testing.T) {
	t.Parallel()

	auth, err := NewKubernetesAuth("cmsgw", "", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), newAPIClient(t, "http://localhost:8200"))
	assert.Error(t, err)
}
