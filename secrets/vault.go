package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

// VaultProvider reads the secret from a Vault KV v2 mount.
type VaultProvider struct {
	client    *api.Client
	mountPath string
	dataPath  string
	key       string
	log       *slog.Logger
}

// NewVaultProvider creates a provider reading key from mountPath/dataPath.
// The client is configured from the standard VAULT_* environment when address
// is empty.
//
// Parameters:
//   - address: Vault server address, overrides VAULT_ADDR when set
//   - token: Vault token, overrides VAULT_TOKEN when set
//   - mountPath: KV v2 mount (e.g. "secret")
//   - dataPath: path within the mount (e.g. "installer")
//   - key: field of the stored object holding the secret
func NewVaultProvider(address, token, mountPath, dataPath, key string, log *slog.Logger) (*VaultProvider, error) {
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read Vault configuration: %w", config.Error)
	}
	if address != "" {
		config.Address = address
	}
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")
	if mountPath == "" || dataPath == "" {
		return nil, fmt.Errorf("%w: vault source needs mount and path", interfaces.ErrInvalidSecretURI)
	}
	if key == "" {
		key = "value"
	}

	return &VaultProvider{
		client:    client,
		mountPath: mountPath,
		dataPath:  dataPath,
		key:       key,
		log:       log,
	}, nil
}

// vault://mount/path/to/secret?key=value&addr=https://vault:8200
func newVaultProviderFromURL(u *url.URL, log *slog.Logger) (*VaultProvider, error) {
	query := u.Query()
	return NewVaultProvider(query.Get("addr"), "", u.Host, u.Path, query.Get("key"), log)
}

func (p *VaultProvider) Secret(ctx context.Context) ([]byte, error) {
	path := fmt.Sprintf("%s/data/%s", p.mountPath, p.dataPath)

	secret, err := p.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		p.log.Error("Failed to read secret from Vault", slog.String("path", path), "err", err)
		return nil, fmt.Errorf("failed to read %s from Vault: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrSecretNotFound, path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response for %s", path)
	}

	value, ok := data[p.key].(string)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: key %q in %s", interfaces.ErrSecretNotFound, p.key, path)
	}
	return []byte(value), nil
}

func (p *VaultProvider) Name() string {
	return fmt.Sprintf("vault-%s-%s", p.mountPath, p.dataPath)
}
