package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SecretBytes is the entropy of every opaque token handed out: 256 bits.
const SecretBytes = 32

// New returns a cryptographically random, URL-safe token carrying
// SecretBytes of entropy (43 characters, unpadded base64url).
func New() (string, error) {
	b := make([]byte, SecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
