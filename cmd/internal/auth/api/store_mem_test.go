package authapi

import (
	"context"
	"sync"
	"testing"
	"time"

	"ripple/cmd/identity"
)

// memStore is an in-memory identity.Store for handler and gate tests.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*memAccount
}

type memAccount struct {
	acc          identity.Account
	passwordHash string
	tokenHash    *string
	expiresAt    *time.Time
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]*memAccount)}
}

// fastArgon2 drops hashing cost so signup/signin tests stay fast.
func fastArgon2(t *testing.T) {
	t.Helper()
	t.Setenv("RIPPLE_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("RIPPLE_ARGON2_ITERATIONS", "1")
	t.Setenv("RIPPLE_ARGON2_PARALLELISM", "1")
}

func (m *memStore) CreateAccount(_ context.Context, in identity.CreateAccountInput) (identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	norm := identity.NormalizeEmail(in.Email)
	for _, a := range m.accounts {
		if identity.NormalizeEmail(a.acc.Email) == norm {
			return identity.Account{}, identity.ConflictError{Op: "mem.CreateAccount", Field: "email"}
		}
	}

	hash, err := identity.HashPassword(in.Password)
	if err != nil {
		return identity.Account{}, identity.OpError{Op: "mem.CreateAccount", Kind: identity.ErrInvalidInput, Msg: err.Error()}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := identity.NewULID(now)
	if err != nil {
		return identity.Account{}, err
	}

	acc := identity.Account{
		ID:        id,
		Email:     in.Email,
		Name:      in.Name,
		Age:       in.Age,
		Gender:    in.Gender,
		Icon:      in.Icon,
		Role:      identity.RoleStandard,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.accounts[id] = &memAccount{acc: acc, passwordHash: hash}
	return acc, nil
}

func (m *memStore) GetAccountByID(_ context.Context, id string) (identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return identity.Account{}, identity.NotFoundError{Op: "mem.GetAccountByID", Resource: "account"}
	}
	return a.acc, nil
}

func (m *memStore) GetAccountAuthByEmail(_ context.Context, email string) (identity.AccountAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	norm := identity.NormalizeEmail(email)
	for _, a := range m.accounts {
		if identity.NormalizeEmail(a.acc.Email) == norm {
			return identity.AccountAuth{Account: a.acc, PasswordHash: a.passwordHash}, nil
		}
	}
	return identity.AccountAuth{}, identity.NotFoundError{Op: "mem.GetAccountAuthByEmail", Resource: "account"}
}

func (m *memStore) ListAccounts(_ context.Context) ([]identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]identity.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a.acc)
	}
	return out, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, in identity.UpdateProfileInput) (identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return identity.Account{}, identity.NotFoundError{Op: "mem.UpdateProfile", Resource: "account"}
	}
	if in.Email != nil {
		norm := identity.NormalizeEmail(*in.Email)
		for otherID, other := range m.accounts {
			if otherID != id && identity.NormalizeEmail(other.acc.Email) == norm {
				return identity.Account{}, identity.ConflictError{Op: "mem.UpdateProfile", Field: "email"}
			}
		}
		a.acc.Email = *in.Email
	}
	if in.Name != nil {
		a.acc.Name = *in.Name
	}
	if in.Age != nil {
		a.acc.Age = in.Age
	}
	if in.Gender != nil {
		a.acc.Gender = in.Gender
	}
	a.acc.UpdatedAt = in.Now
	return a.acc, nil
}

func (m *memStore) GetSessionRecord(_ context.Context, id string) (identity.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return identity.SessionRecord{}, identity.NotFoundError{Op: "mem.GetSessionRecord", Resource: "account"}
	}
	return identity.SessionRecord{
		Account:          a.acc,
		SessionTokenHash: a.tokenHash,
		SessionExpiresAt: a.expiresAt,
	}, nil
}

func (m *memStore) SetSessionToken(_ context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return identity.NotFoundError{Op: "mem.SetSessionToken", Resource: "account"}
	}
	a.tokenHash = &tokenHash
	a.expiresAt = &expiresAt
	a.acc.UpdatedAt = now
	return nil
}

func (m *memStore) ClearSessionToken(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return identity.NotFoundError{Op: "mem.ClearSessionToken", Resource: "account"}
	}
	a.tokenHash = nil
	a.expiresAt = nil
	a.acc.UpdatedAt = now
	return nil
}

// promote flips an account to admin for role-gate tests.
func (m *memStore) promote(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.acc.Role = identity.RoleAdmin
	}
}

// sessionState reports the raw auth fields for mutation assertions.
func (m *memStore) sessionState(id string) (tokenHash *string, expiresAt *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		return a.tokenHash, a.expiresAt
	}
	return nil, nil
}

var _ identity.Store = (*memStore)(nil)
