// Package identity is Ripple's credential store.
//
// It owns the account record: profile fields, the argon2id password hash,
// and the auth fields used by the session subsystem (session_token_hash and
// session_expires_at, which are always set and cleared together).
//
// The package exposes typed errors with stable sentinel kinds so API layers
// can map failures to status codes without string matching.
package identity
