package secrets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewProvider_Literal(t *testing.T) {
	p, err := NewProvider("plain-secret", testLogger())
	require.NoError(t, err)

	secret, err := p.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("plain-secret"), secret)
	assert.Equal(t, "literal", p.Name())
}

func TestNewProvider_LiteralScheme(t *testing.T) {
	for source, want := range map[string]string{
		"literal://s3cr3t":            "s3cr3t",
		"literal://https://a:b@c/d?e": "https://a:b@c/d?e",
	} {
		p, err := NewProvider(source, testLogger())
		require.NoError(t, err, source)

		secret, err := p.Secret(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte(want), secret)
		assert.Equal(t, "literal", p.Name())
	}

	_, err := NewProvider("https://a:b@c/d", testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidSecretURI)
}

func TestNewProvider_Env(t *testing.T) {
	t.Setenv("INSTALLER_TEST_SECRET", "from-env")

	p, err := NewProvider("env://INSTALLER_TEST_SECRET", testLogger())
	require.NoError(t, err)
	secret, err := p.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("from-env"), secret)

	missing, err := NewProvider("env://INSTALLER_TEST_SECRET_UNSET", testLogger())
	require.NoError(t, err)
	_, err = missing.Secret(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrSecretNotFound)
}

func TestNewProvider_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.secret")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0600))

	p, err := NewProvider("file://"+path, testLogger())
	require.NoError(t, err)
	secret, err := p.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("from-file"), secret)

	missing, err := NewProvider("file://"+filepath.Join(t.TempDir(), "nope"), testLogger())
	require.NoError(t, err)
	_, err = missing.Secret(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrSecretNotFound)
}

func TestNewProvider_Invalid(t *testing.T) {
	_, err := NewProvider("", testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidSecretURI)

	_, err = NewProvider("gcs://bucket/secret", testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidSecretURI)
}

func TestVaultProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		switch r.URL.Path {
		case "/v1/secret/data/installer":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"data": map[string]interface{}{"jwt": "from-vault"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
		}
	}))
	defer srv.Close()

	p, err := NewVaultProvider(srv.URL, "test-token", "secret", "installer", "jwt", testLogger())
	require.NoError(t, err)
	secret, err := p.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("from-vault"), secret)

	missing, err := NewVaultProvider(srv.URL, "test-token", "secret", "other", "jwt", testLogger())
	require.NoError(t, err)
	_, err = missing.Secret(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrSecretNotFound)
}

func TestSecretsManagerProvider(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secretsmanager.GetSecretValue", r.Header.Get("X-Amz-Target"))
		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Name":         "installer",
			"SecretString": `{"jwt":"from-awssm"}`,
		})
	}))
	defer srv.Close()

	p, err := NewProvider("awssm://installer?region=eu-west-1&key=jwt&endpoint="+srv.URL, testLogger())
	require.NoError(t, err)
	secret, err := p.Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("from-awssm"), secret)
}

func TestDeriveSigningKey(t *testing.T) {
	k1, err := DeriveSigningKey([]byte("master"), SigningKeyInfo)
	require.NoError(t, err)
	k2, err := DeriveSigningKey([]byte("master"), SigningKeyInfo)
	require.NoError(t, err)
	k3, err := DeriveSigningKey([]byte("master"), "other")
	require.NoError(t, err)

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	_, err = DeriveSigningKey(nil, SigningKeyInfo)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	raw, err := Resolve(context.Background(), "plain", false, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), raw)

	derived, err := Resolve(context.Background(), "plain", true, testLogger())
	require.NoError(t, err)
	assert.Len(t, derived, 32)
}
