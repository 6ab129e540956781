package secrets

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SigningKeyInfo is the HKDF info label for installation token keys.
const SigningKeyInfo = "installer-provisioning/token-signing/v1"

// DeriveSigningKey expands master into a 32-byte HMAC key with HKDF-SHA256.
func DeriveSigningKey(master []byte, info string) ([]byte, error) {
	if len(master) == 0 {
		return nil, errors.New("empty master secret")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	return key, nil
}
