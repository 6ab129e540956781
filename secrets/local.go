package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

// LiteralProvider returns a fixed secret.
type LiteralProvider struct {
	value []byte
}

func NewLiteralProvider(value string) *LiteralProvider {
	return &LiteralProvider{value: []byte(value)}
}

func (p *LiteralProvider) Secret(ctx context.Context) ([]byte, error) {
	return p.value, nil
}

func (p *LiteralProvider) Name() string {
	return "literal"
}

// EnvProvider reads the secret from an environment variable.
type EnvProvider struct {
	name string
}

func NewEnvProvider(name string) *EnvProvider {
	return &EnvProvider{name: name}
}

func (p *EnvProvider) Secret(ctx context.Context) ([]byte, error) {
	value, ok := os.LookupEnv(p.name)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", interfaces.ErrSecretNotFound, p.name)
	}
	return []byte(value), nil
}

func (p *EnvProvider) Name() string {
	return "env-" + p.name
}

// FileProvider reads the secret from a file. A single trailing newline is dropped.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) (*FileProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI", interfaces.ErrInvalidSecretURI)
	}
	return &FileProvider{path: path}, nil
}

func (p *FileProvider) Secret(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrSecretNotFound, p.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file: %w", err)
	}

	value := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	if value == "" {
		return nil, fmt.Errorf("%w: %s is empty", interfaces.ErrSecretNotFound, p.path)
	}
	return []byte(value), nil
}

func (p *FileProvider) Name() string {
	return "file-" + p.path
}
