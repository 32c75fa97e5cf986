package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the narrow pgx surface the store needs. Both *pgxpool.Pool and
// pgxmock pools satisfy it, which keeps store tests database-free.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
//   - The pool is owned by the caller; this store must not close it.
//   - The schema identifier is validated to keep identifier interpolation safe.
//   - SetSessionToken/ClearSessionToken are single-row UPDATEs, so the
//     "hash and expiry move together" invariant holds without a transaction.
type PostgresStore struct {
	db     Querier
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "ripple").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(db Querier, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		db:     db,
		schema: "ripple",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, fmt.Errorf("identity: nil db")
	}
	return st, nil
}

func (s *PostgresStore) accounts() string { return s.schema + ".accounts" }

const accountColumns = "id, email, name, age, gender, icon, role, created_at, updated_at"

// CreateAccount hashes the password and inserts a new account with
// role defaulting to standard and auth fields unset.
func (s *PostgresStore) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.CreateAccount"

	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if name == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "name is required"}
	}
	if strings.TrimSpace(in.Password) == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	id, err := NewULID(now)
	if err != nil {
		return Account{}, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO `+s.accounts()+` (
		     id, email, email_norm, name, age, gender, icon, role,
		     password_hash, created_at, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		id, email, NormalizeEmail(email), name, in.Age, in.Gender, in.Icon,
		string(RoleStandard), pwHash, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ConflictError{Op: op, Field: "email"}
		}
		return Account{}, err
	}

	return Account{
		ID:        id,
		Email:     email,
		Name:      name,
		Age:       in.Age,
		Gender:    in.Gender,
		Icon:      in.Icon,
		Role:      RoleStandard,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetAccountByID loads an account without secrets.
func (s *PostgresStore) GetAccountByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.GetAccountByID"

	row := s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM `+s.accounts()+` WHERE id = $1`, id)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// GetAccountAuthByEmail loads an account plus its password hash for sign-in.
// Lookup is by normalized email.
func (s *PostgresStore) GetAccountAuthByEmail(ctx context.Context, email string) (AccountAuth, error) {
	const op = "identity.GetAccountAuthByEmail"

	var (
		a      Account
		role   string
		pwHash string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, age, gender, icon, role, created_at, updated_at, password_hash
		 FROM `+s.accounts()+` WHERE email_norm = $1`,
		NormalizeEmail(email),
	).Scan(&a.ID, &a.Email, &a.Name, &a.Age, &a.Gender, &a.Icon, &role, &a.CreatedAt, &a.UpdatedAt, &pwHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return AccountAuth{}, NotFoundError{Op: op, Resource: "account"}
	}
	if err != nil {
		return AccountAuth{}, err
	}

	a.Role = Role(role)
	return AccountAuth{Account: a, PasswordHash: pwHash}, nil
}

// ListAccounts returns every account without secrets, newest first.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accountColumns+` FROM `+s.accounts()+` ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateProfile applies the provided fields and returns the updated account.
// Auth columns are untouchable through this path.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Account, error) {
	const op = "identity.UpdateProfile"

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var emailNorm *string
	if in.Email != nil {
		n := NormalizeEmail(*in.Email)
		emailNorm = &n
	}

	row := s.db.QueryRow(ctx,
		`UPDATE `+s.accounts()+` SET
		     email      = COALESCE($2, email),
		     email_norm = COALESCE($3, email_norm),
		     name       = COALESCE($4, name),
		     age        = COALESCE($5, age),
		     gender     = COALESCE($6, gender),
		     updated_at = $7
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, in.Email, emailNorm, in.Name, in.Age, in.Gender, now,
	)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ConflictError{Op: op, Field: "email"}
		}
		return Account{}, err
	}
	return a, nil
}

// GetSessionRecord loads the verifier's view of an account.
func (s *PostgresStore) GetSessionRecord(ctx context.Context, id string) (SessionRecord, error) {
	const op = "identity.GetSessionRecord"

	var (
		rec  SessionRecord
		role string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, age, gender, icon, role, created_at, updated_at,
		        session_token_hash, session_expires_at
		 FROM `+s.accounts()+` WHERE id = $1`,
		id,
	).Scan(
		&rec.Account.ID, &rec.Account.Email, &rec.Account.Name,
		&rec.Account.Age, &rec.Account.Gender, &rec.Account.Icon,
		&role, &rec.Account.CreatedAt, &rec.Account.UpdatedAt,
		&rec.SessionTokenHash, &rec.SessionExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return SessionRecord{}, NotFoundError{Op: op, Resource: "account"}
	}
	if err != nil {
		return SessionRecord{}, err
	}

	rec.Account.Role = Role(role)
	return rec, nil
}

// SetSessionToken writes the token hash and expiry in one record write,
// replacing any prior session (last-write-wins).
func (s *PostgresStore) SetSessionToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	const op = "identity.SetSessionToken"

	tag, err := s.db.Exec(ctx,
		`UPDATE `+s.accounts()+` SET
		     session_token_hash = $2,
		     session_expires_at = $3,
		     updated_at         = $4
		 WHERE id = $1`,
		id, tokenHash, expiresAt, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "account"}
	}
	return nil
}

// ClearSessionToken clears the token hash and expiry together.
func (s *PostgresStore) ClearSessionToken(ctx context.Context, id string, now time.Time) error {
	const op = "identity.ClearSessionToken"

	tag, err := s.db.Exec(ctx,
		`UPDATE `+s.accounts()+` SET
		     session_token_hash = NULL,
		     session_expires_at = NULL,
		     updated_at         = $2
		 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "account"}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		a    Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Age, &a.Gender, &a.Icon, &role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	a.Role = Role(role)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
