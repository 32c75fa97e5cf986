package social

import "context"

// Store persists posts and comments and serves the KPI snapshot.
//
// Lookups for absent rows return ErrNotFound. CreateComment verifies the
// parent post exists; ListPostsByAuthor verifies the account exists, so
// "no posts yet" and "no such user" stay distinguishable.
type Store interface {
	CreatePost(ctx context.Context, in CreatePostInput) (Post, error)
	GetPost(ctx context.Context, id string) (Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error)
	UpdatePost(ctx context.Context, id string, in UpdatePostInput) (Post, error)
	DeletePost(ctx context.Context, id string) error

	CreateComment(ctx context.Context, in CreateCommentInput) (Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	ListComments(ctx context.Context) ([]Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]Comment, error)
	UpdateComment(ctx context.Context, id string, in UpdateCommentInput) (Comment, error)
	DeleteComment(ctx context.Context, id string) error

	CollectKPI(ctx context.Context) (KPI, error)
}
