package interfaces

import (
	"context"
	"errors"
)

// SecretProvider resolves the token signing secret from its configured source.
// It is called once at startup; the result is injected into the token codec.
type SecretProvider interface {
	// Secret returns the raw secret bytes.
	Secret(ctx context.Context) ([]byte, error)

	// Name identifies the source for logging, without revealing the value.
	Name() string
}

var (
	// ErrSecretNotFound is returned when the configured source has no value.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidSecretURI is returned for malformed or unsupported secret sources.
	ErrInvalidSecretURI = errors.New("invalid secret source URI")
)
