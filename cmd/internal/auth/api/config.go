package authapi

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config controls auth API behavior.
type Config struct {
	// MaxBodyBytes bounds request bodies on auth endpoints.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"` // 1 MiB
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: 1 << 20}
}

// LoadConfigFromEnv loads auth API config from RIPPLE_API_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RIPPLE_API_"}); err != nil {
		return Config{}, fmt.Errorf("authapi: parse config: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg, nil
}
