package identity

import (
	"errors"

	"ripple/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string using the
// env-configured parameters from cmd/security/password.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Invalid env is an operational error, not a weak fallback.
		return "", err
	}
	return cfg.Hash(plain)
}

// VerifyPassword checks a password against a PHC Argon2id hash.
// Malformed hashes surface as ErrInvalidInput so callers never confuse them
// with a plain mismatch.
func VerifyPassword(plain, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	ok, err := cfg.Verify(encodedPHC, plain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, OpError{Op: "identity.VerifyPassword", Kind: ErrInvalidInput, Msg: "malformed password hash"}
		}
		return false, err
	}
	return ok, nil
}
