package session

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines runtime configuration for the session subsystem.
//
// It controls session lifetime, the minimum accepted client-token length,
// and the entropy used by the NewClientToken helper. It is intentionally
// explicit and environment-driven so deployments can tune security
// parameters without code changes.
type Config struct {
	// TokenTTL is the session lifetime applied at sign-in.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// MinTokenLength is the minimum accepted length (in characters) of a
	// client-minted token. Shorter tokens are rejected at sign-in as
	// malformed requests.
	MinTokenLength int `env:"MIN_TOKEN_LENGTH" envDefault:"32"`

	// MaxTokenLength bounds accepted tokens to avoid pathological inputs.
	MaxTokenLength int `env:"MAX_TOKEN_LENGTH" envDefault:"4096"`

	// TokenBytes is the number of random bytes used by NewClientToken.
	TokenBytes int `env:"TOKEN_BYTES" envDefault:"32"`
}

// DefaultConfig returns a secure default configuration.
func DefaultConfig() Config {
	return Config{
		TokenTTL:       24 * time.Hour,
		MinTokenLength: 32,
		MaxTokenLength: 4096,
		TokenBytes:     32,
	}
}

// LoadConfigFromEnv loads session configuration from RIPPLE_AUTH_* variables.
//
// Optional:
//   - RIPPLE_AUTH_TOKEN_TTL (Go duration)
//   - RIPPLE_AUTH_MIN_TOKEN_LENGTH
//   - RIPPLE_AUTH_MAX_TOKEN_LENGTH
//   - RIPPLE_AUTH_TOKEN_BYTES
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RIPPLE_AUTH_"}); err != nil {
		return Config{}, ErrConfig
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the configuration invariants.
//
// MinTokenLength may be raised but never lowered below 32: the protocol
// requires that much client-side entropy. TokenBytes must produce helper
// tokens that themselves pass the minimum (24 random bytes encode to 32
// base64url characters).
func (c Config) Validate() error {
	if c.TokenTTL <= 0 {
		return ErrConfig
	}
	if c.MinTokenLength < 32 {
		return ErrConfig
	}
	if c.MaxTokenLength < c.MinTokenLength {
		return ErrConfig
	}
	if c.TokenBytes < 24 || c.TokenBytes > 64 {
		return ErrConfig
	}
	return nil
}
