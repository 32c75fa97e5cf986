// Package token provides session-token hashing primitives for Ripple.
//
// It is the single source of truth for how client session tokens are hashed
// before being stored on an account record.
//
// Design goals:
//   - Default dev mode: SHA-256(token) when no HMAC key is configured.
//   - Production-enforced mode: HMAC-SHA256(token, key) when policy requires it.
//   - Stable 64-char hex output for storage and constant-time comparison.
//
// Session tokens carry at least 32 bytes of client-side entropy, so a fast
// keyed hash is sufficient; the slow salted primitive is reserved for
// passwords (see cmd/security/password).
//
// Environment:
//   - RIPPLE_TOKEN_HMAC_KEY: when set, enables HMAC mode.
package token
