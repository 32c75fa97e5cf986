package identity

import (
	"context"
	"time"
)

// Role is the closed authorization role enum.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// Account is Ripple's canonical security principal, sans secrets.
type Account struct {
	ID     string
	Email  string
	Name   string
	Age    *int
	Gender *string
	Icon   *string
	Role   Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountAuth carries the password hash for sign-in checks only.
// It must never be serialized into API responses.
type AccountAuth struct {
	Account      Account
	PasswordHash string
}

// SessionRecord is the verifier's view of an account's auth fields.
// SessionTokenHash and SessionExpiresAt are nil together when signed out;
// an expired record keeps both until the next sign-in or sign-out
// (lazy invalidation, no background sweep).
type SessionRecord struct {
	Account          Account
	SessionTokenHash *string
	SessionExpiresAt *time.Time
}

// CreateAccountInput describes a signup request.
// Password is the plaintext password; the store hashes it before persisting.
type CreateAccountInput struct {
	Email    string
	Password string
	Name     string
	Age      *int
	Gender   *string
	Icon     *string
	Now      time.Time
}

// UpdateProfileInput carries optional profile updates; nil fields are untouched.
// Auth fields are deliberately not reachable from here.
type UpdateProfileInput struct {
	Email  *string
	Name   *string
	Age    *int
	Gender *string
	Now    time.Time
}

// Store is the credential-store persistence boundary.
//
// Contract for the session auth fields:
//   - SetSessionToken replaces any prior token hash and expiry in a single
//     record write (last-write-wins, single active session per account).
//   - ClearSessionToken clears hash and expiry together.
//   - Both return ErrNotFound when the account has vanished.
type Store interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error)
	GetAccountByID(ctx context.Context, id string) (Account, error)
	GetAccountAuthByEmail(ctx context.Context, email string) (AccountAuth, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Account, error)

	GetSessionRecord(ctx context.Context, id string) (SessionRecord, error)
	SetSessionToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error
	ClearSessionToken(ctx context.Context, id string, now time.Time) error
}
