package social

import "time"

// Post is a user-authored entry on the public feed.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePostInput carries a validated new post.
type CreatePostInput struct {
	AuthorID string
	Title    string
	Content  string
	Now      time.Time
}

// UpdatePostInput applies partial edits; nil fields keep their value.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Now     time.Time
}

// CreateCommentInput carries a validated new comment.
type CreateCommentInput struct {
	PostID   string
	AuthorID string
	Content  string
	Now      time.Time
}

// UpdateCommentInput applies partial edits; nil fields keep their value.
type UpdateCommentInput struct {
	Content *string
	Now     time.Time
}

// KPI is the admin metrics snapshot. Field names mirror the dashboard
// client's expectations.
type KPI struct {
	Users    KPIUsers    `json:"users"`
	Posts    KPIPosts    `json:"posts"`
	Comments KPIComments `json:"comments"`
}

type KPIUsers struct {
	Total      int         `json:"total"`
	ByGender   KPIByGender `json:"byGender"`
	AverageAge float64     `json:"averageAge"`
}

type KPIByGender struct {
	Female         int `json:"female"`
	Male           int `json:"male"`
	Other          int `json:"other"`
	PreferNotToSay int `json:"preferNotToSay"`
}

type KPIPosts struct {
	Total          int     `json:"total"`
	AveragePerUser float64 `json:"averagePerUser"`
}

type KPIComments struct {
	Total          int     `json:"total"`
	AveragePerPost float64 `json:"averagePerPost"`
}
