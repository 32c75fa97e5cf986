package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server runtime configuration, loaded from RIPPLE_* env vars.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json | pretty

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	DatabaseURL       string `env:"DATABASE_URL"`
	DBMaxConns        int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns        int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	DBConnectAttempts uint64 `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`

	// MigrateOnStart applies pending schema migrations before serving.
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"true"`

	// ReadinessRequireDB makes /readyz fail unless the DB answers.
	ReadinessRequireDB bool `env:"READINESS_REQUIRE_DB" envDefault:"true"`

	// RequireTokenHMAC refuses to start unless RIPPLE_TOKEN_HMAC_KEY is set
	// and session-token hashing runs in HMAC mode.
	RequireTokenHMAC bool `env:"REQUIRE_TOKEN_HMAC" envDefault:"false"`
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RIPPLE_"}); err != nil {
		return Config{}, fmt.Errorf("app: parse config: %w", err)
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.MaxHeaderBytes <= 0 {
		cfg.MaxHeaderBytes = 1 << 20
	}
	return cfg, nil
}
