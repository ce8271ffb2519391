package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewMagicLinkToken generates a 64-character hex token with 256 bits of
// entropy. Unguessable, so possession of the link is the only credential.
func NewMagicLinkToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate magic link token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewSessionID generates a 32-character hex identifier carried in the
// session cookie claims.
func NewSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
