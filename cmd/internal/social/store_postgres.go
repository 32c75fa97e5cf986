package social

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ripple/cmd/identity/ids"
)

// Querier is the narrow pgx surface the store needs; *pgxpool.Pool and
// pgxmock pools both satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store over PostgreSQL. The pool is owned by the
// caller.
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
			return fmt.Errorf("social: invalid schema identifier: %w", ErrInvalidInput)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db Querier, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{db: db, schema: "ripple"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, fmt.Errorf("social: nil db: %w", ErrInvalidInput)
	}
	return st, nil
}

func (s *PostgresStore) posts() string    { return s.schema + ".posts" }
func (s *PostgresStore) comments() string { return s.schema + ".comments" }
func (s *PostgresStore) accounts() string { return s.schema + ".accounts" }

const (
	postColumns    = "id, author_id, title, content, created_at, updated_at"
	commentColumns = "id, post_id, author_id, content, created_at, updated_at"
)

// ---- posts ----

func (s *PostgresStore) CreatePost(ctx context.Context, in CreatePostInput) (Post, error) {
	if strings.TrimSpace(in.AuthorID) == "" ||
		strings.TrimSpace(in.Title) == "" ||
		strings.TrimSpace(in.Content) == "" {
		return Post{}, ErrInvalidInput
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Post{}, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO `+s.posts()+` (id, author_id, title, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, in.AuthorID, in.Title, in.Content, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}

	return Post{
		ID:        id,
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM `+s.posts()+` WHERE id = $1`, id)
	return scanPost(row)
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+postColumns+` FROM `+s.posts()+` ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListPostsByAuthor returns the author's posts, or ErrNotFound when the
// account itself does not exist.
func (s *PostgresStore) ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.accounts()+` WHERE id = $1)`, authorID,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+postColumns+` FROM `+s.posts()+` WHERE author_id = $1 ORDER BY id DESC`,
		authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (s *PostgresStore) UpdatePost(ctx context.Context, id string, in UpdatePostInput) (Post, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.db.QueryRow(ctx,
		`UPDATE `+s.posts()+` SET
		     title      = COALESCE($2, title),
		     content    = COALESCE($3, content),
		     updated_at = $4
		 WHERE id = $1
		 RETURNING `+postColumns,
		id, in.Title, in.Content, now,
	)
	return scanPost(row)
}

// DeletePost removes the post; its comments go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeletePost(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM `+s.posts()+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- comments ----

func (s *PostgresStore) CreateComment(ctx context.Context, in CreateCommentInput) (Comment, error) {
	if strings.TrimSpace(in.PostID) == "" ||
		strings.TrimSpace(in.AuthorID) == "" ||
		strings.TrimSpace(in.Content) == "" {
		return Comment{}, ErrInvalidInput
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Comment{}, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO `+s.comments()+` (id, post_id, author_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, in.PostID, in.AuthorID, in.Content, now,
	)
	if err != nil {
		// A bad post_id surfaces as an FK violation.
		if isForeignKeyViolation(err) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}

	return Comment{
		ID:        id,
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetComment(ctx context.Context, id string) (Comment, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM `+s.comments()+` WHERE id = $1`, id)
	return scanComment(row)
}

func (s *PostgresStore) ListComments(ctx context.Context) ([]Comment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+commentColumns+` FROM `+s.comments()+` ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func (s *PostgresStore) ListCommentsByPost(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+commentColumns+` FROM `+s.comments()+` WHERE post_id = $1 ORDER BY id ASC`,
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func (s *PostgresStore) UpdateComment(ctx context.Context, id string, in UpdateCommentInput) (Comment, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.db.QueryRow(ctx,
		`UPDATE `+s.comments()+` SET
		     content    = COALESCE($2, content),
		     updated_at = $3
		 WHERE id = $1
		 RETURNING `+commentColumns,
		id, in.Content, now,
	)
	return scanComment(row)
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM `+s.comments()+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- KPI ----

// CollectKPI aggregates the dashboard snapshot in three scans.
func (s *PostgresStore) CollectKPI(ctx context.Context) (KPI, error) {
	var (
		kpi    KPI
		avgAge *float64
	)

	err := s.db.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE gender = 'female'),
		        count(*) FILTER (WHERE gender = 'male'),
		        count(*) FILTER (WHERE gender = 'other'),
		        count(*) FILTER (WHERE gender = 'prefer_not_to_say'),
		        avg(age)
		 FROM `+s.accounts(),
	).Scan(
		&kpi.Users.Total,
		&kpi.Users.ByGender.Female,
		&kpi.Users.ByGender.Male,
		&kpi.Users.ByGender.Other,
		&kpi.Users.ByGender.PreferNotToSay,
		&avgAge,
	)
	if err != nil {
		return KPI{}, err
	}
	if avgAge != nil {
		kpi.Users.AverageAge = round2(*avgAge)
	}

	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM `+s.posts()).Scan(&kpi.Posts.Total); err != nil {
		return KPI{}, err
	}
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM `+s.comments()).Scan(&kpi.Comments.Total); err != nil {
		return KPI{}, err
	}

	if kpi.Users.Total > 0 {
		kpi.Posts.AveragePerUser = round2(float64(kpi.Posts.Total) / float64(kpi.Users.Total))
	}
	if kpi.Posts.Total > 0 {
		kpi.Comments.AveragePerPost = round2(float64(kpi.Comments.Total) / float64(kpi.Posts.Total))
	}
	return kpi, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ---- scanning ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func scanComment(row rowScanner) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func collectComments(rows pgx.Rows) ([]Comment, error) {
	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var _ Store = (*PostgresStore)(nil)
