package social

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ripple/cmd/identity"
	authapi "ripple/cmd/internal/auth/api"
)

// Guard is the slice of the auth gate the social routes need. The concrete
// implementation lives in the auth API package.
type Guard interface {
	Require(attachIdentity bool) func(http.Handler) http.Handler
	RequireRole(role identity.Role) func(http.Handler) http.Handler
}

// Notifier receives content events for fan-out (the realtime feed). A nil
// Notifier disables fan-out.
type Notifier interface {
	Notify(kind string, data any)
}

// Event kinds published to the Notifier.
const (
	EventPostCreated    = "post.created"
	EventPostUpdated    = "post.updated"
	EventPostDeleted    = "post.deleted"
	EventCommentCreated = "comment.created"
	EventCommentUpdated = "comment.updated"
	EventCommentDeleted = "comment.deleted"
)

// Handler serves the posts, comments, and KPI routes.
type Handler struct {
	log          *slog.Logger
	store        Store
	notify       Notifier
	maxBodyBytes int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithNotifier wires content events into the given Notifier.
func WithNotifier(n Notifier) HandlerOption {
	return func(h *Handler) { h.notify = n }
}

// WithMaxBodyBytes bounds request bodies (default 1 MiB).
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler constructs a social Handler.
func NewHandler(log *slog.Logger, store Store, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("social: nil store")
	}
	h := &Handler{log: log, store: store, maxBodyBytes: 1 << 20}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register wires the social routes onto the mux. Reads require a valid
// session; writes additionally resolve the caller for ownership checks;
// the KPI snapshot is admin-only.
func (h *Handler) Register(mux *http.ServeMux, guard Guard) {
	if h == nil || mux == nil || guard == nil {
		return
	}
	read := guard.Require(false)
	write := guard.Require(true)
	admin := func(next http.Handler) http.Handler {
		return guard.Require(true)(guard.RequireRole(identity.RoleAdmin)(next))
	}

	mux.Handle("GET /api/posts", read(http.HandlerFunc(h.handlePostsList)))
	mux.Handle("GET /api/posts/user/{userID}", read(http.HandlerFunc(h.handlePostsByUser)))
	mux.Handle("POST /api/posts", write(http.HandlerFunc(h.handlePostCreate)))
	mux.Handle("PUT /api/posts/{postID}", write(http.HandlerFunc(h.handlePostUpdate)))
	mux.Handle("DELETE /api/posts/{postID}", write(http.HandlerFunc(h.handlePostDelete)))

	mux.Handle("GET /api/comments", read(http.HandlerFunc(h.handleCommentsList)))
	mux.Handle("GET /api/comments/post/{postID}", read(http.HandlerFunc(h.handleCommentsByPost)))
	mux.Handle("POST /api/comments", write(http.HandlerFunc(h.handleCommentCreate)))
	mux.Handle("PUT /api/comments/{commentID}", write(http.HandlerFunc(h.handleCommentUpdate)))
	mux.Handle("DELETE /api/comments/{commentID}", write(http.HandlerFunc(h.handleCommentDelete)))

	mux.Handle("GET /api/kpi", admin(http.HandlerFunc(h.handleKPI)))
}

// ---- wire models ----

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type createCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

type updateCommentRequest struct {
	Content *string `json:"content"`
}

type postEnvelope struct {
	Post Post `json:"post"`
}

type postsEnvelope struct {
	Posts []Post `json:"posts"`
}

type commentEnvelope struct {
	Comment Comment `json:"comment"`
}

type commentsEnvelope struct {
	Comments []Comment `json:"comments"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

// ---- post handlers ----

func (h *Handler) handlePostsList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context())
	if err != nil {
		h.log.Error("social.posts.list.fail", "err", err)
		h.fail(w, http.StatusInternalServerError, "server_error")
		return
	}
	h.respond(w, http.StatusOK, postsEnvelope{Posts: orEmptyPosts(posts)})
}

func (h *Handler) handlePostsByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	posts, err := h.store.ListPostsByAuthor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.fail(w, http.StatusNotFound, "user_not_found")
			return
		}
		h.log.Error("social.posts.by_user.fail", "err", err)
		h.fail(w, http.StatusInternalServerError, "server_error")
		return
	}
	h.respond(w, http.StatusOK, postsEnvelope{Posts: orEmptyPosts(posts)})
}

func (h *Handler) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := authapi.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "user_not_authenticated")
		return
	}

	var req createPostRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		h.fail(w, http.StatusUnprocessableEntity, "title_required")
		return
	}
	if content == "" {
		h.fail(w, http.StatusUnprocessableEntity, "content_required")
		return
	}

	post, err := h.store.CreatePost(r.Context(), CreatePostInput{
		AuthorID: caller.ID,
		Title:    title,
		Content:  content,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		h.log.Error("social.posts.create.fail", "err", err)
		h.fail(w, http.StatusInternalServerError, "server_error")
		return
	}

	h.log.Info("social.posts.create.ok", "post_id", post.ID, "author_id", caller.ID)
	h.publish(EventPostCreated, post)
	h.respond(w, http.StatusCreated, postEnvelope{Post: post})
}

func (h *Handler) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	caller, ok := authapi.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "user_not_authenticated")
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		h.failLookup(w, err, "post_not_found", "social.posts.get.fail")
		return
	}
	if post.AuthorID != caller.ID && caller.Role != identity.RoleAdmin {
		h.fail(w, http.StatusForbidden, "forbidden")
		return
	}

	var req updatePostRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	in := UpdatePostInput{Now: time.Now().UTC()}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			h.fail(w, http.StatusUnprocessableEntity, "title_required")
			return
		}
		in.Title = &t
	}
	if req.Content != nil {
		c := strings.TrimSpace(*req.Content)
		if c == "" {
			h.fail(w, http.StatusUnprocessableEntity, "content_required")
			return
		}
		in.Content = &c
	}

	updated, err := h.store.UpdatePost(r.Context(), postID, in)
	if err != nil {
		h.failLookup(w, err, "post_not_found", "social.posts.update.fail")
		return
	}

	h.publish(EventPostUpdated, updated)
	h.respond(w, http.StatusOK, postEnvelope{Post: updated})
}

func (h *Handler) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	caller, ok := authapi.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "user_not_authenticated")
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		h.failLookup(w, err, "post_not_found", "social.posts.get.fail")
		return
	}
	if post.AuthorID != caller.ID && caller.Role != identity.RoleAdmin {
		h.fail(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.store.DeletePost(r.Context(), postID); err != nil {
		h.failLookup(w, err, "post_not_found", "social.posts.delete.fail")
		return
	}

	h.log.Info("social.posts.delete.ok", "post_id", postID, "caller_id", caller.ID)
	h.publish(EventPostDeleted, post)
	h.respond(w, http.StatusOK, messageEnvelope{Message: "post deleted"})
}

// ---- comment handlers ----

func (h *Handler) handleCommentsList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListComments(r.Context())
	if err != nil {
		h.log.Error("social.comments.list.fail", "err", err)
		h.fail(w, http.StatusInternalServerError, "server_error")
		return
	}
	h.respond(w, http.StatusOK, commentsEnvelope{Comments: orEmptyComments(comments)})
}

func (h *Handler) handleCommentsByPost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")

	comments, err := h.store.ListCommentsByPost(r.Context(), postID)
	if err != nil {
		h.log.Error("social.comments.by_post.fail", "err", err)
		h.fail(w, http.StatusInternalServerError, "server_error")
		return
	}
	h.respond(w, http.StatusOK, commentsEnvelope{Comments: orEmptyComments(comments)})
}

func (h *Handler) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := authapi.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "user_not_authenticated")
		return
	}

	var req createCommentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	postID := strings.TrimSpace(req.PostID)
	content := strings.TrimSpace(req.Content)
	if postID == "" {
		h.fail(w, http.StatusUnprocessableEntity, "post_id_required")
		return
	}
	if content == "" {
		h.fail(w, http.StatusUnprocessableEntity, "content_required")
		return
	}

	// Parent must exist before the insert so a bad postId is a clean 404.
	if _, err := h.store.GetPost(r.Context(), postID); err != nil {
		h.failLookup(w, err, "post_not_found", "social.comments.parent.fail")
		return
	}

	comment, err := h.store.CreateComment(r.Context(), CreateCommentInput{
		PostID:   postID,
		AuthorID: caller.ID,
		Content:  content,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		// The post can vanish between the check and the insert.
		h.failLookup(w, err, "post_not_found", "social.comments.create.fail")
		return
	}

	h.log.Info("social.comments.create.ok", "comment_id", comment.ID, "post_id", postID)
	h.publish(EventCommentCreated, comment)
	h.respond(w, http.StatusCreated, commentEnvelope{Comment: comment})
}

func (h *Handler) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	commentID := r.PathValue("commentID")

	caller, ok := authapi.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "user_not_authenticated")
		return
	}

	comment, err := h.store.GetComment(r.Context(), commentID)
	if err != nil {
		h.failLookup(w, err, "comment_not_found", "social.comments.get.fail")
		return
	}
	if comment.AuthorID != caller.ID && caller.Role != identity.RoleAdmin {
		h.fail(w, http.StatusForbidden, "forbidden")
		return
	}

	var req updateCommentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	in := UpdateCommentInput{Now: time.Now().UTC()}
	if req.Content != nil {
		c := strings.TrimSpace(*req.Content)
		if c == "" {
			h.fail(w, http.StatusUnprocessableEntity, "content_required")
			return
		}
		in.Content = &c
	}

	updated, err := h.store.UpdateComment(r.Context(), commentID, in)
	if err != nil {
		h.failLookup(w, err, "comment_not_found", "social.comments.update.fail")
		return
	}

	h.publish(EventCommentUpdated, updated)
	h.respond(w, http.StatusOK, commentEnvelope{Comment: updated})
}

func (h *Handler) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	commentID := r.PathValue("commentID")

	caller, ok := authapi.AccountFromContext(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "user_not_authenticated")
		return
	}

	comment, err := h.store.GetComment(r.Context(), commentID)
	if err != nil {
		h.failLookup(w, err, "comment_not_found", "social.comments.get.fail")
		return
	}
	if comment.AuthorID != caller.ID && caller.Role != identity.RoleAdmin {
		h.fail(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.store.DeleteComment(r.Context(), commentID); err != nil {
		h.failLookup(w, err, "comment_not_found", "social.comments.delete.fail")
		return
	}

	h.log.Info("social.comments.delete.ok", "comment_id", commentID, "caller_id", caller.ID)
	h.publish(EventCommentDeleted, comment)
	h.respond(w, http.StatusOK, messageEnvelope{Message: "comment deleted"})
}

// ---- KPI ----

func (h *Handler) handleKPI(w http.ResponseWriter, r *http.Request) {
	kpi, err := h.store.CollectKPI(r.Context())
	if err != nil {
		h.log.Error("social.kpi.fail", "err", err)
		h.fail(w, http.StatusInternalServerError, "server_error")
		return
	}
	h.respond(w, http.StatusOK, kpi)
}

// ---- plumbing ----

func (h *Handler) publish(kind string, data any) {
	if h.notify != nil {
		h.notify.Notify(kind, data)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("social: trailing data after JSON body")
	}
	return nil
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("social.respond.encode.fail", "err", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, status int, code string) {
	h.respond(w, status, map[string]string{"error": code})
}

// failLookup maps ErrNotFound to a 404 with the given code and anything
// else to a logged 500.
func (h *Handler) failLookup(w http.ResponseWriter, err error, notFoundCode, logEvent string) {
	if errors.Is(err, ErrNotFound) {
		h.fail(w, http.StatusNotFound, notFoundCode)
		return
	}
	h.log.Error(logEvent, "err", err)
	h.fail(w, http.StatusInternalServerError, "server_error")
}

func orEmptyPosts(in []Post) []Post {
	if in == nil {
		return []Post{}
	}
	return in
}

func orEmptyComments(in []Comment) []Comment {
	if in == nil {
		return []Comment{}
	}
	return in
}
