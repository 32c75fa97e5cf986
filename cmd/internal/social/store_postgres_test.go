package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	st, err := NewPostgresStore(mock)
	require.NoError(t, err)
	return mock, st
}

const (
	postCols    = `id, author_id, title, content, created_at, updated_at`
	commentCols = `id, post_id, author_id, content, created_at, updated_at`
)

func fkViolation() error {
	return &pgconn.PgError{Code: "23503", ConstraintName: "comments_post_id_fkey"}
}

func TestNewSocialPostgresStore(t *testing.T) {
	t.Run("nil db rejected", func(t *testing.T) {
		_, err := NewPostgresStore(nil)
		require.Error(t, err)
	})

	t.Run("invalid schema rejected", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = NewPostgresStore(mock, WithSchema("ripple; DROP TABLE posts"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("custom schema accepted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		st, err := NewPostgresStore(mock, WithSchema("ripple_test"))
		require.NoError(t, err)
		assert.Equal(t, "ripple_test.posts", st.posts())
	})
}

func TestPostgresStore_Posts(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	t.Run("create", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectExec(`INSERT INTO ripple\.posts`).
			WithArgs(pgxmock.AnyArg(), "01AUTHOR", "Hello", "First post", now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		got, err := st.CreatePost(context.Background(), CreatePostInput{
			AuthorID: "01AUTHOR",
			Title:    "Hello",
			Content:  "First post",
			Now:      now,
		})
		require.NoError(t, err)
		assert.Len(t, got.ID, 26)
		assert.Equal(t, "01AUTHOR", got.AuthorID)
		assert.Equal(t, now, got.CreatedAt)
		assert.Equal(t, now, got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create with blank fields rejected before any query", func(t *testing.T) {
		_, st := newMockStore(t)

		for name, in := range map[string]CreatePostInput{
			"no author":  {Title: "t", Content: "c"},
			"no title":   {AuthorID: "01A", Content: "c"},
			"no content": {AuthorID: "01A", Title: "t"},
		} {
			_, err := st.CreatePost(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput, name)
		}
	})

	t.Run("get missing maps to not found", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectQuery(`SELECT ` + postCols + ` FROM ripple\.posts WHERE id = \$1`).
			WithArgs("01GONE").
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := st.GetPost(context.Background(), "01GONE")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list", func(t *testing.T) {
		mock, st := newMockStore(t)

		rows := pgxmock.NewRows([]string{"id", "author_id", "title", "content", "created_at", "updated_at"}).
			AddRow("01B", "01AUTHOR", "Second", "more", now, now).
			AddRow("01A", "01AUTHOR", "First", "text", now, now)
		mock.ExpectQuery(`SELECT ` + postCols + ` FROM ripple\.posts ORDER BY id DESC`).
			WillReturnRows(rows)

		got, err := st.ListPosts(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Second", got[0].Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list by author checks the account first", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("01AUTHOR").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT ` + postCols + ` FROM ripple\.posts WHERE author_id = \$1`).
			WithArgs("01AUTHOR").
			WillReturnRows(pgxmock.NewRows([]string{"id", "author_id", "title", "content", "created_at", "updated_at"}).
				AddRow("01A", "01AUTHOR", "First", "text", now, now))

		got, err := st.ListPostsByAuthor(context.Background(), "01AUTHOR")
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list by unknown author is not found", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("01NOBODY").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := st.ListPostsByAuthor(context.Background(), "01NOBODY")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update partial", func(t *testing.T) {
		mock, st := newMockStore(t)

		title := "Renamed"
		mock.ExpectQuery(`UPDATE ripple\.posts SET`).
			WithArgs("01A", &title, (*string)(nil), now).
			WillReturnRows(pgxmock.NewRows([]string{"id", "author_id", "title", "content", "created_at", "updated_at"}).
				AddRow("01A", "01AUTHOR", "Renamed", "text", now.Add(-time.Hour), now))

		got, err := st.UpdatePost(context.Background(), "01A", UpdatePostInput{Title: &title, Now: now})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, now, got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectExec(`DELETE FROM ripple\.posts WHERE id = \$1`).
			WithArgs("01A").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, st.DeletePost(context.Background(), "01A"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete missing is not found", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectExec(`DELETE FROM ripple\.posts WHERE id = \$1`).
			WithArgs("01GONE").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, st.DeletePost(context.Background(), "01GONE"), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error passes through", func(t *testing.T) {
		mock, st := newMockStore(t)

		boom := errors.New("connection reset")
		mock.ExpectQuery(`SELECT ` + postCols + ` FROM ripple\.posts ORDER BY id DESC`).
			WillReturnError(boom)

		_, err := st.ListPosts(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Comments(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

	t.Run("create", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectExec(`INSERT INTO ripple\.comments`).
			WithArgs(pgxmock.AnyArg(), "01POST", "01AUTHOR", "Nice one", now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		got, err := st.CreateComment(context.Background(), CreateCommentInput{
			PostID:   "01POST",
			AuthorID: "01AUTHOR",
			Content:  "Nice one",
			Now:      now,
		})
		require.NoError(t, err)
		assert.Len(t, got.ID, 26)
		assert.Equal(t, "01POST", got.PostID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create against a vanished post is not found", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectExec(`INSERT INTO ripple\.comments`).
			WithArgs(pgxmock.AnyArg(), "01GONE", "01AUTHOR", "too late", now).
			WillReturnError(fkViolation())

		_, err := st.CreateComment(context.Background(), CreateCommentInput{
			PostID:   "01GONE",
			AuthorID: "01AUTHOR",
			Content:  "too late",
			Now:      now,
		})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list by post", func(t *testing.T) {
		mock, st := newMockStore(t)

		rows := pgxmock.NewRows([]string{"id", "post_id", "author_id", "content", "created_at", "updated_at"}).
			AddRow("01C1", "01POST", "01AUTHOR", "first", now, now).
			AddRow("01C2", "01POST", "01OTHER", "second", now, now)
		mock.ExpectQuery(`SELECT ` + commentCols + ` FROM ripple\.comments WHERE post_id = \$1`).
			WithArgs("01POST").
			WillReturnRows(rows)

		got, err := st.ListCommentsByPost(context.Background(), "01POST")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Content)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update missing is not found", func(t *testing.T) {
		mock, st := newMockStore(t)

		content := "edited"
		mock.ExpectQuery(`UPDATE ripple\.comments SET`).
			WithArgs("01GONE", &content, now).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := st.UpdateComment(context.Background(), "01GONE", UpdateCommentInput{Content: &content, Now: now})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectExec(`DELETE FROM ripple\.comments WHERE id = \$1`).
			WithArgs("01C1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, st.DeleteComment(context.Background(), "01C1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_CollectKPI(t *testing.T) {
	t.Run("aggregates and rounds", func(t *testing.T) {
		mock, st := newMockStore(t)

		avg := 29.337
		mock.ExpectQuery(`SELECT count\(\*\),`).
			WillReturnRows(pgxmock.NewRows([]string{"total", "female", "male", "other", "pnts", "avg"}).
				AddRow(3, 1, 1, 0, 1, &avg))
		mock.ExpectQuery(`SELECT count\(\*\) FROM ripple\.posts`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(6))
		mock.ExpectQuery(`SELECT count\(\*\) FROM ripple\.comments`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(9))

		got, err := st.CollectKPI(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 3, got.Users.Total)
		assert.Equal(t, 1, got.Users.ByGender.Female)
		assert.Equal(t, 1, got.Users.ByGender.PreferNotToSay)
		assert.InDelta(t, 29.34, got.Users.AverageAge, 1e-9)
		assert.Equal(t, 6, got.Posts.Total)
		assert.InDelta(t, 2.0, got.Posts.AveragePerUser, 1e-9)
		assert.Equal(t, 9, got.Comments.Total)
		assert.InDelta(t, 1.5, got.Comments.AveragePerPost, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty tables yield zeroes, not division faults", func(t *testing.T) {
		mock, st := newMockStore(t)

		mock.ExpectQuery(`SELECT count\(\*\),`).
			WillReturnRows(pgxmock.NewRows([]string{"total", "female", "male", "other", "pnts", "avg"}).
				AddRow(0, 0, 0, 0, 0, (*float64)(nil)))
		mock.ExpectQuery(`SELECT count\(\*\) FROM ripple\.posts`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM ripple\.comments`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		got, err := st.CollectKPI(context.Background())
		require.NoError(t, err)
		assert.Zero(t, got.Users.AverageAge)
		assert.Zero(t, got.Posts.AveragePerUser)
		assert.Zero(t, got.Comments.AveragePerPost)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
