package session

import (
	"crypto/rand"
	"encoding/base64"

	"ripple/cmd/security/token"
)

// NewClientToken returns an opaque random token suitable for the
// X-Client-Token header. Browser clients normally mint their own; this
// helper serves native clients, CLI tools, and tests.
func NewClientToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// URL-safe, no padding.
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashClientTokenHex(plain string) string {
	return token.HashSessionTokenHex(plain) // 64 hex chars
}
