package session

import (
	"context"
	"strings"
	"time"

	"ripple/cmd/identity"
	"ripple/cmd/security/token"
)

// Service implements the high-level session operations for Ripple.
//
// Issue binds a client-minted token to an account, Verify runs the
// verification state machine, and Revoke performs sign-out. All three are
// server-authoritative: the account record is the single source of truth.
type Service struct {
	cfg   Config
	store CredentialStore
}

// NewService constructs a Service with the provided configuration and store.
func NewService(cfg Config, store CredentialStore) *Service {
	return &Service{cfg: cfg, store: store}
}

// Issue stores the hash of clientToken on the account with an absolute
// expiry of now + TokenTTL, replacing any previous session. The plaintext
// token is never persisted.
//
// Returns ErrTokenTooShort for tokens outside the accepted length bounds
// (a malformed request, distinct from an authentication failure) and
// ErrAccountNotFound when the account has vanished.
func (s *Service) Issue(ctx context.Context, now time.Time, userID, clientToken string) (expiresAt time.Time, err error) {
	clientToken = strings.TrimSpace(clientToken)
	// The oversize case is equally malformed and shares the sentinel.
	if n := len(clientToken); n < s.cfg.MinTokenLength || n > s.cfg.MaxTokenLength {
		return time.Time{}, ErrTokenTooShort
	}

	expiresAt = now.Add(s.cfg.TokenTTL)

	if err := s.store.SetSessionToken(ctx, userID, hashClientTokenHex(clientToken), expiresAt, now); err != nil {
		if identity.IsNotFound(err) {
			return time.Time{}, ErrAccountNotFound
		}
		return time.Time{}, err
	}
	return expiresAt, nil
}

// Verify runs the verification state machine against the account record:
// account lookup, active-session presence, strict expiry (a session whose
// expiry equals now is already expired), then constant-time hash comparison.
//
// Every failure mode except a missing account maps to ErrSessionInvalid so
// callers cannot tell (and therefore cannot leak) which step rejected the
// token. Store infrastructure errors pass through unchanged and must never
// be treated as an authentication failure.
func (s *Service) Verify(ctx context.Context, now time.Time, userID, clientToken string) (identity.Account, error) {
	clientToken = strings.TrimSpace(clientToken)
	// Basic sanity bounds to avoid pathological inputs.
	if clientToken == "" || len(clientToken) > s.cfg.MaxTokenLength {
		return identity.Account{}, ErrSessionInvalid
	}

	rec, err := s.store.GetSessionRecord(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.Account{}, ErrAccountNotFound
		}
		return identity.Account{}, err
	}

	if rec.SessionTokenHash == nil || rec.SessionExpiresAt == nil {
		return identity.Account{}, errNoActiveSession
	}
	if !rec.SessionExpiresAt.After(now) {
		return identity.Account{}, errSessionExpired
	}
	if !token.ConstantTimeEqualHex(hashClientTokenHex(clientToken), *rec.SessionTokenHash) {
		return identity.Account{}, errTokenMismatch
	}

	return rec.Account, nil
}

// Revoke signs the account out. The presented token must pass the full
// verification state machine first: sign-out with an expired or wrong token
// fails, so revocation is not idempotent.
func (s *Service) Revoke(ctx context.Context, now time.Time, userID, clientToken string) error {
	if _, err := s.Verify(ctx, now, userID, clientToken); err != nil {
		return err
	}

	if err := s.store.ClearSessionToken(ctx, userID, now); err != nil {
		if identity.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime (for API responses and docs).
func (s *Service) TTL() time.Duration { return s.cfg.TokenTTL }

// MinTokenLength exposes the configured minimum client-token length.
func (s *Service) MinTokenLength() int { return s.cfg.MinTokenLength }
