package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// InstallHashBytes is the entropy of an install hash.
const InstallHashBytes = 16

// GenerateHash returns n random bytes hex encoded, 2n characters long.
// Uniqueness is not enforced.
func GenerateHash(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid hash length %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateInstallHash returns a fresh install hash.
func GenerateInstallHash() (string, error) {
	return GenerateHash(InstallHashBytes)
}
