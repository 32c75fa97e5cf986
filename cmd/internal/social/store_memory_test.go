package social

import (
	"context"
	"sync"

	"ripple/cmd/identity/ids"
)

// memStore is an in-memory Store for handler tests. Authors are registered
// explicitly so the user-existence and KPI paths have something to read.
type memStore struct {
	mu       sync.Mutex
	authors  map[string]memAuthor
	posts    map[string]Post
	comments map[string]Comment
}

type memAuthor struct {
	gender *string
	age    *int
}

func newSocialMemStore() *memStore {
	return &memStore{
		authors:  make(map[string]memAuthor),
		posts:    make(map[string]Post),
		comments: make(map[string]Comment),
	}
}

func (m *memStore) addAuthor(id string, gender *string, age *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[id] = memAuthor{gender: gender, age: age}
}

func (m *memStore) CreatePost(_ context.Context, in CreatePostInput) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Post{}, err
	}
	p := Post{
		ID:        id,
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: in.Now,
		UpdatedAt: in.Now,
	}
	m.posts[id] = p
	return p, nil
}

func (m *memStore) GetPost(_ context.Context, id string) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListPosts(context.Context) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) ListPostsByAuthor(_ context.Context, authorID string) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.authors[authorID]; !ok {
		return nil, ErrNotFound
	}
	var out []Post
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePost(_ context.Context, id string, in UpdatePostInput) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	p.UpdatedAt = in.Now
	m.posts[id] = p
	return p, nil
}

func (m *memStore) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *memStore) CreateComment(_ context.Context, in CreateCommentInput) (Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[in.PostID]; !ok {
		return Comment{}, ErrNotFound
	}
	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Comment{}, err
	}
	c := Comment{
		ID:        id,
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		Content:   in.Content,
		CreatedAt: in.Now,
		UpdatedAt: in.Now,
	}
	m.comments[id] = c
	return c, nil
}

func (m *memStore) GetComment(_ context.Context, id string) (Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListComments(context.Context) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Comment, 0, len(m.comments))
	for _, c := range m.comments {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) ListCommentsByPost(_ context.Context, postID string) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) UpdateComment(_ context.Context, id string, in UpdateCommentInput) (Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if in.Content != nil {
		c.Content = *in.Content
	}
	c.UpdatedAt = in.Now
	m.comments[id] = c
	return c, nil
}

func (m *memStore) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *memStore) CollectKPI(context.Context) (KPI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kpi KPI
	kpi.Users.Total = len(m.authors)

	var ageSum, aged int
	for _, a := range m.authors {
		if a.gender != nil {
			switch *a.gender {
			case "female":
				kpi.Users.ByGender.Female++
			case "male":
				kpi.Users.ByGender.Male++
			case "other":
				kpi.Users.ByGender.Other++
			case "prefer_not_to_say":
				kpi.Users.ByGender.PreferNotToSay++
			}
		}
		if a.age != nil {
			ageSum += *a.age
			aged++
		}
	}
	if aged > 0 {
		kpi.Users.AverageAge = round2(float64(ageSum) / float64(aged))
	}

	kpi.Posts.Total = len(m.posts)
	kpi.Comments.Total = len(m.comments)
	if kpi.Users.Total > 0 {
		kpi.Posts.AveragePerUser = round2(float64(kpi.Posts.Total) / float64(kpi.Users.Total))
	}
	if kpi.Posts.Total > 0 {
		kpi.Comments.AveragePerPost = round2(float64(kpi.Comments.Total) / float64(kpi.Posts.Total))
	}
	return kpi, nil
}

var _ Store = (*memStore)(nil)
