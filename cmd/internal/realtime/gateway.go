package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/coder/websocket"

	"ripple/cmd/identity"
	authapi "ripple/cmd/internal/auth/api"
	"ripple/cmd/internal/auth/session"
)

// SessionVerifier is the slice of the session service the gateway needs.
type SessionVerifier interface {
	Verify(ctx context.Context, now time.Time, userID, clientToken string) (identity.Account, error)
}

// GatewayConfig controls websocket behavior.
type GatewayConfig struct {
	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
	// OriginPatterns lists host patterns allowed for cross-origin upgrades.
	OriginPatterns []string `env:"ORIGIN_PATTERNS" envSeparator:"," envDefault:"localhost,127.0.0.1"`
	// DevInsecure skips origin verification entirely. Dev only.
	DevInsecure bool `env:"DEV_INSECURE" envDefault:"false"`
}

// DefaultGatewayConfig returns safe defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		WriteTimeout:   5 * time.Second,
		OriginPatterns: []string{"localhost", "127.0.0.1"},
	}
}

// LoadGatewayConfigFromEnv loads gateway config from RIPPLE_WS_* variables.
func LoadGatewayConfigFromEnv() (GatewayConfig, error) {
	var cfg GatewayConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RIPPLE_WS_"}); err != nil {
		return GatewayConfig{}, fmt.Errorf("realtime: parse config: %w", err)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return cfg, nil
}

// Gateway upgrades authenticated requests to websocket feed sessions.
type Gateway struct {
	log      *slog.Logger
	hub      *Hub
	sessions SessionVerifier
	cfg      GatewayConfig
}

// NewGateway constructs a Gateway.
func NewGateway(log *slog.Logger, hub *Hub, sessions SessionVerifier, cfg GatewayConfig) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		return nil, errors.New("realtime: nil hub")
	}
	if sessions == nil {
		return nil, errors.New("realtime: nil session verifier")
	}
	return &Gateway{log: log, hub: hub, sessions: sessions, cfg: cfg}, nil
}

// ServeHTTP authenticates the request, upgrades it, and streams feed events
// until the client goes away.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, clientToken, ok := feedCredentials(r)
	if !ok {
		httpJSONError(w, http.StatusUnauthorized, "credentials_missing")
		return
	}

	acct, err := g.sessions.Verify(r.Context(), time.Now().UTC(), userID, clientToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionInvalid), errors.Is(err, session.ErrAccountNotFound):
			g.log.Debug("ws.feed.reject", "user_id", userID, "reason", err.Error())
			httpJSONError(w, http.StatusUnauthorized, "invalid_token")
		default:
			g.log.Error("ws.feed.verify.fail", "err", err)
			httpJSONError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     g.cfg.OriginPatterns,
		InsecureSkipVerify: g.cfg.DevInsecure,
	})
	if err != nil {
		g.log.Info("ws.feed.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	// The feed is one-way; CloseRead keeps control frames flowing and
	// cancels the context when the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	events, cancel := g.hub.Subscribe()
	defer cancel()

	g.log.Info("ws.feed.open", "user_id", acct.ID)
	defer g.log.Info("ws.feed.close", "user_id", acct.ID)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				_ = conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if err := g.writeEvent(ctx, conn, ev); err != nil {
				g.log.Debug("ws.feed.write.fail", "user_id", acct.ID, "err", err)
				return
			}
		}
	}
}

func (g *Gateway) writeEvent(parent context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(parent, g.cfg.WriteTimeout)
	defer cancel()

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// feedCredentials reads the session credential from headers, falling back
// to query parameters because browser websocket clients cannot set headers.
func feedCredentials(r *http.Request) (userID, clientToken string, ok bool) {
	userID = strings.TrimSpace(r.Header.Get(authapi.HeaderUserID))
	clientToken = strings.TrimSpace(r.Header.Get(authapi.HeaderClientToken))
	if userID == "" {
		userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	if clientToken == "" {
		clientToken = strings.TrimSpace(r.URL.Query().Get("client_token"))
	}
	if userID == "" || clientToken == "" {
		return "", "", false
	}
	return userID, clientToken, true
}

func httpJSONError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":%q}`, code)
}
