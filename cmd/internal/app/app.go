// Package app wires the Ripple server runtime: config, logging, database,
// HTTP routes, metrics, and the realtime feed gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ripple/cmd/identity"
	authapi "ripple/cmd/internal/auth/api"
	"ripple/cmd/internal/auth/session"
	"ripple/cmd/internal/realtime"
	"ripple/cmd/internal/social"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App owns the wired server dependencies and their lifecycle.
type App struct {
	cfg Config
	log Logger

	dbPool  *pgxpool.Pool
	hub     *realtime.Hub
	metrics *Metrics

	auth   *authapi.Handler
	gate   *authapi.Gate
	social *social.Handler
	feed   *realtime.Gateway
}

// New constructs a fully wired App. The database is mandatory: Ripple has no
// in-memory persistence mode.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: RIPPLE_DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := NewDBPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := migrateUp(cfg.DatabaseURL, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	accounts, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		pool.Close()
		return nil, err
	}
	sessions := session.NewService(sessCfg, accounts)

	apiCfg, err := authapi.LoadConfigFromEnv()
	if err != nil {
		pool.Close()
		return nil, err
	}
	auth, err := authapi.NewHandler(log, accounts, sessions, apiCfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	gate := authapi.NewGate(log, sessions)

	socialStore, err := social.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	hub := realtime.NewHub(log)

	socialHandler, err := social.NewHandler(log, socialStore, social.WithNotifier(hub))
	if err != nil {
		pool.Close()
		return nil, err
	}

	wsCfg, err := realtime.LoadGatewayConfigFromEnv()
	if err != nil {
		pool.Close()
		return nil, err
	}
	feed, err := realtime.NewGateway(log, hub, sessions, wsCfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		log:     log,
		dbPool:  pool,
		hub:     hub,
		metrics: NewMetrics(),
		auth:    auth,
		gate:    gate,
		social:  socialHandler,
		feed:    feed,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a fatal
// server error, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.metrics, a.auth, a.gate, a.social, a.feed)

	handler := WithRequestLogging(a.metrics.WithHTTPMetrics(mux), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.hub.Close()
	a.dbPool.Close()

	a.log.Info("server.stopped")
	return nil
}

func migrateUp(databaseURL string, log Logger) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if err := m.Up(); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("app: schema version %d is dirty", version)
	}
	log.Info("db.migrated", "version", version)
	return nil
}
