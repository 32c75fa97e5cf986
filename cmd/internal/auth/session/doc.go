// Package session implements Ripple's session-token protocol.
//
// Clients mint an opaque token (at least 32 characters) and present it at
// sign-in. The server never stores the token itself: only its hash
// (HMAC-SHA256 when RIPPLE_TOKEN_HMAC_KEY is set; otherwise SHA-256 for dev)
// is written onto the account record together with an absolute expiry.
// An account holds at most one active session; a new sign-in overwrites the
// previous one. Expiry is lazy: expired records stay in place and fail
// verification until the next sign-in or sign-out.
//
// Transport (HTTP/WS) integration is intentionally out of scope here.
package session
