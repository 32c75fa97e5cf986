package session

import (
	"context"
	"time"

	"ripple/cmd/identity"
)

// CredentialStore is the slice of the account store this package depends on.
// *identity.PostgresStore satisfies it.
//
// Implementations must keep the token hash and expiry in lockstep: a write
// through SetSessionToken replaces both atomically, ClearSessionToken clears
// both, and neither field is ever observable without the other.
type CredentialStore interface {
	GetSessionRecord(ctx context.Context, id string) (identity.SessionRecord, error)
	SetSessionToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error
	ClearSessionToken(ctx context.Context, id string, now time.Time) error
}
