// Package secrets resolves the token signing secret from its configured source.
//
// Sources are addressed by URI:
//
//	env://NAME                         environment variable NAME
//	file:///path/to/secret             file content, trailing newline trimmed
//	vault://mount/path?key=value       HashiCorp Vault KV v2 (VAULT_ADDR, VAULT_TOKEN)
//	awssm://secret-id?region=r&key=k   AWS Secrets Manager, optional JSON key
//	literal://value                    value verbatim, may itself contain "://"
//
// Anything without a scheme is used verbatim as the secret.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

const literalPrefix = "literal://"

// NewProvider returns the SecretProvider addressed by source.
func NewProvider(source string, log *slog.Logger) (interfaces.SecretProvider, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty secret source", interfaces.ErrInvalidSecretURI)
	}
	if value, ok := strings.CutPrefix(source, literalPrefix); ok {
		return NewLiteralProvider(value), nil
	}
	if !strings.Contains(source, "://") {
		return NewLiteralProvider(source), nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidSecretURI, err)
	}

	log.Debug("Creating secret provider", slog.String("scheme", u.Scheme))

	switch strings.ToLower(u.Scheme) {
	case "env":
		return NewEnvProvider(u.Host + u.Path), nil
	case "file":
		return NewFileProvider(u.Host + u.Path)
	case "vault":
		return newVaultProviderFromURL(u, log)
	case "awssm":
		return newSecretsManagerProviderFromURL(u, log)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidSecretURI, u.Scheme)
	}
}

// Resolve loads the secret from source once. When derive is set the value is
// treated as a master secret and expanded with DeriveSigningKey.
func Resolve(ctx context.Context, source string, derive bool, log *slog.Logger) ([]byte, error) {
	provider, err := NewProvider(source, log)
	if err != nil {
		return nil, err
	}

	secret, err := provider.Secret(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret from %s: %w", provider.Name(), err)
	}
	log.Info("Loaded token signing secret", slog.String("source", provider.Name()), slog.Bool("derived", derive))

	if derive {
		return DeriveSigningKey(secret, SigningKeyInfo)
	}
	return secret, nil
}
