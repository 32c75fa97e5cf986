package app

import (
	"errors"

	"ripple/cmd/security/token"
)

// ValidateSecurityConfig enforces the token hashing policy at startup.
// Fail-fast is intentional: silently falling back to weaker hashing in
// production is unacceptable.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// 32 bytes is the minimum for an HMAC-SHA256 secret. Measured in bytes,
	// not runes, because the key is used as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: RIPPLE_REQUIRE_TOKEN_HMAC=true but RIPPLE_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: RIPPLE_REQUIRE_TOKEN_HMAC=true but RIPPLE_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	// Guards against a future change reintroducing the SHA fallback under policy.
	if !token.HMACEnabled() {
		return errors.New("security policy: RIPPLE_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}
