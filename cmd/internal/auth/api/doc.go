// Package authapi exposes Ripple's auth protocol over HTTP: sign-up,
// sign-in, sign-out, and token verification, plus the authorization and
// role gates consumed by every protected route.
//
// Error bodies are {"error":"<code>"} with stable snake_case codes. Auth
// failures are deliberately coarse: a protected route answers the same
// 401 invalid_token whether the account is unknown, the session expired,
// or the token simply does not match.
package authapi
